package norsani

import (
	"net/url"
	"sort"
	"strings"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of query parameters. Order is significant: it
// is the order the parameters appear on the wire.
type Params []Param

// Get returns the first value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// Keys returns the parameter keys in order.
func (p Params) Keys() []string {
	keys := make([]string, len(p))
	for i, param := range p {
		keys[i] = param.Key
	}
	return keys
}

// Encode renders the parameters as an RFC 3986 encoded query string,
// keeping their order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(percentEncode(param.Key))
		b.WriteByte('=')
		b.WriteString(percentEncode(param.Value))
	}
	return b.String()
}

// ParamsFromMap converts an unordered map into Params sorted by key.
func ParamsFromMap(m map[string]string) Params {
	params := make(Params, 0, len(m))
	for k, v := range m {
		params = append(params, Param{Key: k, Value: v})
	}
	sortParamsByKey(params)
	return params
}

// Canonicalize rewrites the query string of rawURL with its keys sorted and
// every key and value URI-component encoded. A URL without "?" is returned
// unchanged. Canonicalize(Canonicalize(u)) == Canonicalize(u).
func Canonicalize(rawURL string) string {
	base, query, found := strings.Cut(rawURL, "?")
	if !found {
		return rawURL
	}
	return base + "?" + CanonicalQuery(parseQuery(query))
}

// CanonicalQuery sorts params by key and renders them the way Canonicalize
// does. The input slice is not modified.
func CanonicalQuery(params Params) string {
	sorted := make(Params, len(params))
	copy(sorted, params)
	sortParamsByKey(sorted)

	var b strings.Builder
	for i, param := range sorted {
		if i > 0 {
			b.WriteByte('&')
		}
		key := encodeURIComponent(param.Key)
		// Only the first bracket pair of a key survives unescaped.
		key = strings.Replace(key, "%5B", "[", 1)
		key = strings.Replace(key, "%5D", "]", 1)
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(encodeURIComponent(param.Value))
	}
	return b.String()
}

// splitURL separates the part before "?" from its parsed query.
func splitURL(rawURL string) (string, Params) {
	base, query, found := strings.Cut(rawURL, "?")
	if !found {
		return rawURL, nil
	}
	return base, parseQuery(query)
}

func parseQuery(query string) Params {
	query, _, _ = strings.Cut(query, "#")

	var params Params
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		params = append(params, Param{Key: unescape(key), Value: unescape(value)})
	}
	return params
}

func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func sortParamsByKey(params Params) {
	sort.SliceStable(params, func(i, j int) bool {
		return params[i].Key < params[j].Key
	})
}

const upperhex = "0123456789ABCDEF"

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	return escape(s, func(c byte) bool {
		return isUnreserved(c) || strings.IndexByte("!*'()", c) >= 0
	})
}

// percentEncode is the RFC 3986 encoding OAuth 1.0a signs with: only
// A-Z a-z 0-9 - _ . ~ pass through.
func percentEncode(s string) string {
	return escape(s, isUnreserved)
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}

func escape(s string, keep func(byte) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

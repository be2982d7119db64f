package norsani

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Version is the library version reported in the User-Agent header.
const Version = "1.0.0"

// UserAgent is sent with every request.
const UserAgent = "norsani-api-go/" + Version

// RequestSpec describes one logical API call.
//
// For GET, Data is appended to the query string and must be Params,
// map[string]string, map[string]any or url.Values. For every other method
// Data is JSON-encoded into the request body.
type RequestSpec struct {
	Method   string
	Endpoint string
	Family   APIFamily
	Data     any
}

// Credentials are attached by the transport as HTTP basic auth.
type Credentials struct {
	Username string
	Password string
}

// SignedRequest is a fully assembled request, built fresh for every call.
type SignedRequest struct {
	Method string
	// URL has no query string; see Query and RequestURI.
	URL           string
	Query         Params
	Header        http.Header
	Body          []byte
	BasicAuth     *Credentials
	SkipTLSVerify bool
	Timeout       time.Duration
	Encoding      string
}

// RequestURI returns URL with the encoded query string appended.
func (r *SignedRequest) RequestURI() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	return r.URL + "?" + r.Query.Encode()
}

// RequestBuilder turns RequestSpecs into SignedRequests.
type RequestBuilder struct {
	config ClientConfig
	signer *OAuthSigner
}

// NewRequestBuilder returns a builder for cfg. A nil signer gets the
// default OAuthSigner for cfg.
func NewRequestBuilder(cfg ClientConfig, signer *OAuthSigner) *RequestBuilder {
	if signer == nil {
		signer = NewOAuthSigner(cfg)
	}
	return &RequestBuilder{config: cfg, signer: signer}
}

// Config returns a copy of the builder's configuration.
func (b *RequestBuilder) Config() ClientConfig {
	return b.config
}

// Build resolves, authenticates and assembles spec.
func (b *RequestBuilder) Build(spec RequestSpec) (*SignedRequest, error) {
	method := strings.ToUpper(spec.Method)
	if !isSupportedMethod(method) {
		return nil, &ConfigurationError{Field: "method", Err: fmt.Errorf("unsupported method %q", spec.Method)}
	}

	resolved := b.config.ResolveURL(spec.Endpoint, spec.Family)
	base, query := splitURL(resolved)

	req := &SignedRequest{
		Method:   method,
		URL:      base,
		Header:   defaultHeader(method),
		Timeout:  b.config.timeout,
		Encoding: b.config.encoding,
	}

	if b.config.useSSL {
		if b.config.queryStringAuth {
			query = append(query,
				Param{Key: "consumer_key", Value: b.config.consumerKey},
				Param{Key: "consumer_secret", Value: b.config.consumerSecret},
			)
		} else {
			req.BasicAuth = &Credentials{Username: b.config.consumerKey, Password: b.config.consumerSecret}
		}
		req.SkipTLSVerify = !b.config.verifySSL
	} else {
		oauth, err := b.signer.Sign(method, resolved)
		if err != nil {
			return nil, err
		}
		query = append(query, oauth...)
	}
	sortParamsByKey(query)
	req.Query = query

	if method == http.MethodGet {
		extra, err := queryFromData(spec.Data)
		if err != nil {
			return nil, err
		}
		req.Query = append(req.Query, extra...)
		return req, nil
	}

	if spec.Data != nil {
		body, err := json.Marshal(spec.Data)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		req.Body = body
	}
	return req, nil
}

func isSupportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func defaultHeader(method string) http.Header {
	h := make(http.Header, 4)
	h.Set("User-Agent", UserAgent)
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-cache")
	if method != http.MethodGet {
		h.Set("Accept", "application/json")
	}
	return h
}

// queryFromData converts GET data into query parameters. Maps are emitted
// in key order since they carry none of their own.
func queryFromData(data any) (Params, error) {
	switch d := data.(type) {
	case nil:
		return nil, nil
	case Params:
		return d, nil
	case map[string]string:
		return ParamsFromMap(d), nil
	case map[string]any:
		params := make(Params, 0, len(d))
		for k, v := range d {
			value, err := scalarString(v)
			if err != nil {
				return nil, fmt.Errorf("GET data %q: %w", k, err)
			}
			params = append(params, Param{Key: k, Value: value})
		}
		sortParamsByKey(params)
		return params, nil
	case url.Values:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var params Params
		for _, k := range keys {
			for _, v := range d[k] {
				params = append(params, Param{Key: k, Value: v})
			}
		}
		return params, nil
	default:
		return nil, fmt.Errorf("unsupported GET data type %T", data)
	}
}

// scalarString formats a single query value. Nested maps, slices and
// structs have no defined query form and are rejected.
func scalarString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case fmt.Stringer:
		return val.String(), nil
	}

	if v == nil {
		return "", fmt.Errorf("nil value")
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

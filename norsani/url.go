package norsani

import (
	"net"
	"net/url"
	"strings"
)

// APIFamily selects which REST namespace an endpoint lives under.
type APIFamily string

const (
	// FamilyWP is the core CMS REST API (wp/v2).
	FamilyWP APIFamily = "wp"
	// FamilyWC is the commerce plugin REST API.
	FamilyWC APIFamily = "wc"
	// FamilyNorsani is the default family. Any unrecognised value resolves
	// to it as well.
	FamilyNorsani APIFamily = "norsani"
)

const wpSegment = "wp/v2"

// apiSegment picks the namespace/version path for family.
func (c ClientConfig) apiSegment(family APIFamily) string {
	switch family {
	case FamilyWP:
		return wpSegment
	case FamilyWC:
		return c.commerceNamespace + "/" + c.commerceVersion
	default:
		return c.coreNamespace + "/" + c.coreVersion
	}
}

// ResolveURL returns the fully qualified URL for endpoint within family.
// Non-SSL configurations get a canonicalized query string, since that URL
// is what the OAuth signature covers.
func (c ClientConfig) ResolveURL(endpoint string, family APIFamily) string {
	resolved := c.baseURL + c.apiPrefix + "/" + c.apiSegment(family) + "/" + strings.TrimLeft(endpoint, "/")

	if c.port != "" {
		resolved = withPort(resolved, c.port)
	}

	if !c.useSSL {
		return Canonicalize(resolved)
	}
	return resolved
}

// withPort rewrites the authority of rawURL to host:port. A port already
// present in the URL is replaced. The rest of rawURL is left byte for byte.
func withPort(rawURL, port string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return rawURL
	}

	schemeEnd := strings.Index(rawURL, "://")
	if schemeEnd < 0 {
		return rawURL
	}
	authStart := schemeEnd + len("://")
	authEnd := len(rawURL)
	if i := strings.IndexAny(rawURL[authStart:], "/?#"); i >= 0 {
		authEnd = authStart + i
	}

	authority := rawURL[authStart:authEnd]
	if !strings.HasSuffix(authority, parsed.Host) {
		return rawURL
	}
	authority = strings.TrimSuffix(authority, parsed.Host) + net.JoinHostPort(parsed.Hostname(), port)
	return rawURL[:authStart] + authority + rawURL[authEnd:]
}

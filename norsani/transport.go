package norsani

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/htmlindex"
)

const maxErrorMessage = 512

// Response is a decoded API response.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is the decoded JSON document, or nil for an empty body.
	Body any
}

// Transport executes a SignedRequest. Implementations must honour
// BasicAuth, SkipTLSVerify and Timeout, and report every failure as an
// error rather than an empty response.
type Transport interface {
	Send(ctx context.Context, req *SignedRequest) (*Response, error)
}

// HTTPTransport is the net/http backed Transport.
type HTTPTransport struct {
	client *http.Client
	logger zerolog.Logger

	insecureOnce sync.Once
	insecure     *http.Client
}

// NewHTTPTransport wraps client. A nil client gets a fresh one limited
// to DefaultTimeout.
func NewHTTPTransport(client *http.Client, logger zerolog.Logger) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{client: client, logger: logger}
}

// Send performs req and decodes the JSON response.
func (t *HTTPTransport) Send(ctx context.Context, req *SignedRequest) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	uri := req.RequestURI()
	fail := func(op string, status int, err error) *TransportError {
		return &TransportError{Op: op, Method: req.Method, URL: req.URL, StatusCode: status, Err: err}
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, uri, body)
	if err != nil {
		return nil, fail("create request", 0, err)
	}
	httpReq.Header = req.Header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}
	if req.BasicAuth != nil {
		httpReq.SetBasicAuth(req.BasicAuth.Username, req.BasicAuth.Password)
	}

	client := t.client
	if req.SkipTLSVerify {
		client = t.insecureClient()
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	requestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(req.Method, "error").Inc()
		return nil, fail("execute request", 0, redactURL(err, req.URL))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	requestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(decodeCharset(resp.Body, req.Encoding))
	if err != nil {
		return nil, fail("read response", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		terr := fail("unexpected status", resp.StatusCode, nil)
		terr.Body = string(data)
		terr.Message = errorMessage(data)
		return nil, terr
	}

	t.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Norsani API request completed")

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out.Body); err != nil {
		terr := fail("decode response", resp.StatusCode, err)
		terr.Body = string(data)
		return nil, terr
	}
	return out, nil
}

// redactURL replaces the request URI inside a *url.Error with the bare
// URL. The query carries credentials and OAuth parameters.
func redactURL(err error, bare string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = bare
	}
	return err
}

// insecureClient lazily derives a client that skips certificate checks.
func (t *HTTPTransport) insecureClient() *http.Client {
	t.insecureOnce.Do(func() {
		clone := *t.client
		base := t.client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		clone.Transport = t.withoutTLSVerify(base)
		t.insecure = &clone
	})
	return t.insecure
}

func (t *HTTPTransport) withoutTLSVerify(rt http.RoundTripper) http.RoundTripper {
	switch base := rt.(type) {
	case *http.Transport:
		tr := base.Clone()
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{}
		}
		tr.TLSClientConfig.InsecureSkipVerify = true
		return tr
	case *debugTransport:
		return &debugTransport{base: t.withoutTLSVerify(base.base), logger: base.logger}
	default:
		t.logger.Warn().
			Type("transport", rt).
			Msg("Cannot disable TLS verification on custom round tripper")
		return rt
	}
}

// decodeCharset transcodes body to UTF-8 when the configured encoding
// is something else.
func decodeCharset(body io.Reader, label string) io.Reader {
	switch strings.ToLower(label) {
	case "", "utf8", "utf-8":
		return body
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return body
	}
	return enc.NewDecoder().Reader(body)
}

// errorMessage pulls the "message" field out of a REST error document,
// falling back to the trimmed raw body.
func errorMessage(data []byte) string {
	var doc struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &doc); err == nil && doc.Message != "" {
		return doc.Message
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}

package norsani

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, serverURL string, mutate func(*Options), options ...Option) *Client {
	t.Helper()
	opts := validOptions()
	opts.URL = serverURL
	if mutate != nil {
		mutate(&opts)
	}
	client, err := NewClient(opts, zerolog.Nop(), options...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientValidatesOptions(t *testing.T) {
	_, err := NewClient(Options{URL: "https://shop.test"}, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient(validOptions(), zerolog.Nop(), WithConcurrency(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient(validOptions(), zerolog.Nop(), WithTransport(nil))
	require.Error(t, err)
}

func TestClientGetSignsPlainHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/wp-json/norsani/v1/vendors", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "ck_test", q.Get("oauth_consumer_key"))
		assert.Equal(t, "HMAC-SHA256", q.Get("oauth_signature_method"))
		assert.Equal(t, "1.0", q.Get("oauth_version"))
		assert.NotEmpty(t, q.Get("oauth_signature"))
		assert.NotEmpty(t, q.Get("oauth_nonce"))
		assert.Equal(t, "2", q.Get("page"))

		_, _, hasAuth := r.BasicAuth()
		assert.False(t, hasAuth)
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))

		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Corner Cafe"}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	body, err := client.Get(context.Background(), "vendors", FamilyNorsani, map[string]string{"page": "2"})
	require.NoError(t, err)

	vendors, ok := body.([]any)
	require.True(t, ok)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Corner Cafe", vendors[0].(map[string]any)["name"])
}

func TestClientTLSVerification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ck_test", user)
		assert.Equal(t, "cs_test", pass)
		assert.Empty(t, r.URL.Query().Get("oauth_signature"))
		writeJSON(w, http.StatusOK, map[string]any{"namespace": "wc/v3"})
	}))
	defer server.Close()

	t.Run("verification disabled", func(t *testing.T) {
		client := newTestClient(t, server.URL, func(o *Options) { o.VerifySSL = boolPtr(false) })

		body, err := client.Get(context.Background(), "", FamilyWC, nil)
		require.NoError(t, err)
		assert.Equal(t, "wc/v3", body.(map[string]any)["namespace"])
	})

	t.Run("verification enabled", func(t *testing.T) {
		client := newTestClient(t, server.URL, nil)

		_, err := client.Get(context.Background(), "", FamilyWC, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)

		var terr *TransportError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, "execute request", terr.Op)
	})
}

func TestClientQueryStringAuth(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ck_test", r.URL.Query().Get("consumer_key"))
		assert.Equal(t, "cs_test", r.URL.Query().Get("consumer_secret"))
		_, _, hasAuth := r.BasicAuth()
		assert.False(t, hasAuth)
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(o *Options) {
		o.QueryStringAuth = true
		o.VerifySSL = boolPtr(false)
	})

	_, err := client.Get(context.Background(), "orders", FamilyWC, nil)
	require.NoError(t, err)
}

func TestClientNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"code":    "rest_no_route",
			"message": "No route was found matching the URL and request method.",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	called := false
	_, err := client.Get(context.Background(), "missing", FamilyWC, nil,
		OnComplete(func() { called = true }),
		OnResult(func(any) { called = true }),
	)
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, IsNotFound(err))

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
	assert.Equal(t, "No route was found matching the URL and request method.", terr.Message)
	assert.Contains(t, terr.Body, "rest_no_route")
	assert.False(t, terr.IsUnauthorized())
}

func TestClientUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.Get(context.Background(), "orders", FamilyWC, nil)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.True(t, terr.IsUnauthorized())
	assert.Equal(t, "nope", terr.Message)
}

func TestClientInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>maintenance</html>")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.Get(context.Background(), "products", FamilyWC, nil)
	require.Error(t, err)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "decode response", terr.Op)
	assert.Equal(t, "<html>maintenance</html>", terr.Body)
}

func TestClientEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	body, err := client.Delete(context.Background(), "products/9", FamilyWC)
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestClientCompletionHooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 42})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	var (
		got   any
		order []string
	)
	body, err := client.Get(context.Background(), "orders/42", FamilyWC, nil,
		OnComplete(func() { order = append(order, "complete") }),
		OnResult(func(b any) {
			got = b
			order = append(order, "result")
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, float64(42), got.(map[string]any)["id"])
	assert.Equal(t, []string{"result", "complete"}, order)
}

func TestClientPostSendsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.URL.Query().Get("oauth_signature"))

		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"name":"Tea"}`, string(data))

		writeJSON(w, http.StatusCreated, map[string]any{"id": 7, "name": "Tea"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	body, err := client.Post(context.Background(), "products", FamilyWC, map[string]any{"name": "Tea"})
	require.NoError(t, err)
	assert.Equal(t, float64(7), body.(map[string]any)["id"])
}

func TestClientPutAndOptions(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.Put(context.Background(), "products/1", FamilyWC, map[string]any{"stock_quantity": 3})
	require.NoError(t, err)
	_, err = client.Options(context.Background(), "products", FamilyWC)
	require.NoError(t, err)

	assert.Equal(t, []string{http.MethodPut, http.MethodOptions}, methods)
}

func TestClientDoAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/broken") {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"path": r.URL.Path})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil, WithConcurrency(2))

	specs := []RequestSpec{
		{Method: http.MethodGet, Endpoint: "products", Family: FamilyWC},
		{Method: http.MethodGet, Endpoint: "broken", Family: FamilyWC},
		{Method: http.MethodGet, Endpoint: "vendors", Family: FamilyNorsani},
	}

	results, err := client.DoAll(context.Background(), specs)
	require.Error(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "/wp-json/wc/v3/products", results[0].Body.(map[string]any)["path"])
	assert.Nil(t, results[1])
	assert.Equal(t, "/wp-json/norsani/v1/vendors", results[2].Body.(map[string]any)["path"])

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
	assert.Contains(t, merr.Errors[0].Error(), "GET broken")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClientDoAllEmpty(t *testing.T) {
	client := newTestClient(t, "https://shop.test", nil)

	results, err := client.DoAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

type recordingTransport struct {
	requests []*SignedRequest
	response *Response
}

func (r *recordingTransport) Send(_ context.Context, req *SignedRequest) (*Response, error) {
	r.requests = append(r.requests, req)
	return r.response, nil
}

func TestClientWithTransport(t *testing.T) {
	rt := &recordingTransport{response: &Response{StatusCode: http.StatusOK, Body: "pong"}}
	client := newTestClient(t, "https://shop.test", nil, WithTransport(rt))

	require.NoError(t, client.Ping(context.Background(), FamilyWC))
	require.Len(t, rt.requests, 1)

	req := rt.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "https://shop.test/wp-json/wc/v3/", req.URL)
	require.NotNil(t, req.BasicAuth)
	assert.Equal(t, "ck_test", req.BasicAuth.Username)
}

func TestClientWithSignerOptions(t *testing.T) {
	rt := &recordingTransport{response: &Response{StatusCode: http.StatusOK}}
	client := newTestClient(t, "http://shop.test", nil,
		WithTransport(rt),
		WithSigner(WithClock(fixedClock), WithNonceSource(fixedNonce)),
	)

	_, err := client.Get(context.Background(), "products", FamilyWC, nil)
	require.NoError(t, err)

	nonce, _ := rt.requests[0].Query.Get("oauth_nonce")
	ts, _ := rt.requests[0].Query.Get("oauth_timestamp")
	assert.Equal(t, "fixednonce", nonce)
	assert.Equal(t, "1700000000", ts)
}

func TestClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(o *Options) { o.Timeout = 50 * time.Millisecond })

	_, err := client.Get(context.Background(), "products", FamilyWC, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClientDecodesConfiguredCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=ISO-8859-1")
		_, _ = w.Write([]byte("{\"name\":\"caf\xe9\"}"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(o *Options) { o.Encoding = "latin1" })

	body, err := client.Get(context.Background(), "products/1", FamilyWC, nil)
	require.NoError(t, err)
	assert.Equal(t, "café", body.(map[string]any)["name"])
}

func TestClientRecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	counter := requestsTotal.WithLabelValues(http.MethodPut, "202")
	before := testutil.ToFloat64(counter)

	_, err := client.Put(context.Background(), "products/1", FamilyWC, nil)
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestClientDebugLogging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1})
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	opts := validOptions()
	opts.URL = server.URL
	client, err := NewClient(opts, logger, WithDebugLogging(true))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "products", FamilyWC, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "request_dump")
	assert.Contains(t, out, "response_dump")
	assert.Contains(t, out, "Norsani API request completed")
}

func TestClientDefaultHTTPClientUsesConfiguredTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{name: "unset", timeout: 0, want: DefaultTimeout},
		{name: "longer than default", timeout: 2 * time.Minute, want: 2 * time.Minute},
		{name: "shorter than default", timeout: 5 * time.Second, want: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, debug := range []bool{false, true} {
				client := newTestClient(t, "https://shop.test", func(o *Options) { o.Timeout = tt.timeout }, WithDebugLogging(debug))

				transport, ok := client.transport.(*HTTPTransport)
				require.True(t, ok)
				assert.Equal(t, tt.want, transport.client.Timeout)
			}
		})
	}
}

func TestClientTransportErrorsHideCredentials(t *testing.T) {
	tlsServer := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tlsURL := tlsServer.URL
	tlsServer.Close()

	plainServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	plainURL := plainServer.URL
	plainServer.Close()

	tests := []struct {
		name      string
		url       string
		mutate    func(*Options)
		forbidden []string
	}{
		{
			name: "query string auth",
			url:  tlsURL,
			mutate: func(o *Options) {
				o.QueryStringAuth = true
				o.VerifySSL = boolPtr(false)
			},
			forbidden: []string{"cs_test", "consumer_secret", "consumer_key"},
		},
		{
			name:      "oauth",
			url:       plainURL,
			forbidden: []string{"oauth_signature", "oauth_nonce", "ck_test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.url, tt.mutate)

			_, err := client.Get(context.Background(), "orders", FamilyWC, Params{{Key: "page", Value: "2"}})
			require.Error(t, err)

			var terr *TransportError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, "execute request", terr.Op)

			msg := err.Error()
			assert.Contains(t, msg, "/wp-json/wc/v3/orders")
			for _, s := range tt.forbidden {
				assert.NotContains(t, msg, s)
			}
		})
	}
}

func TestClientDebugLogsEmptyResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	opts := validOptions()
	opts.URL = server.URL
	client, err := NewClient(opts, logger)
	require.NoError(t, err)

	_, err = client.Delete(context.Background(), "products/9", FamilyWC)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Norsani API request completed")
	assert.Contains(t, buf.String(), `"status":204`)
}

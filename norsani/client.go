package norsani

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is how many requests DoAll runs at once.
const DefaultConcurrency = 4

// DefaultTimeout bounds a request when Options.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Client represents a Norsani / WooCommerce REST API client.
type Client struct {
	builder     *RequestBuilder
	transport   Transport
	logger      zerolog.Logger
	concurrency int

	// construction-time settings consumed by NewClient
	httpClient *http.Client
	debug      bool
	signerOpts []SignerOption
}

// NewClient validates opts and returns a ready client. No request is made.
func NewClient(opts Options, logger zerolog.Logger, options ...Option) (*Client, error) {
	cfg, err := NewClientConfig(opts)
	if err != nil {
		return nil, err
	}

	c := &Client{
		logger:      logger,
		concurrency: DefaultConcurrency,
	}

	if debugLoggingRequested() {
		options = append(options, WithDebugLogging(true))
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, &ConfigurationError{Err: err}
		}
	}

	c.builder = NewRequestBuilder(cfg, NewOAuthSigner(cfg, c.signerOpts...))

	if c.transport == nil {
		hc := c.httpClient
		if hc == nil {
			hc = &http.Client{Timeout: defaultClientTimeout(cfg)}
		}
		if c.debug {
			copied := *hc
			base := copied.Transport
			if base == nil {
				base = http.DefaultTransport
			}
			copied.Transport = &debugTransport{base: base, logger: logger}
			hc = &copied
		}
		c.transport = NewHTTPTransport(hc, logger)
	}

	c.logger.Debug().
		Str("url", cfg.BaseURL()).
		Bool("ssl", cfg.UseSSL()).
		Bool("query_string_auth", cfg.QueryStringAuth()).
		Str("commerce_version", cfg.CommerceVersion()).
		Msg("Norsani client configured")

	return c, nil
}

func defaultClientTimeout(cfg ClientConfig) time.Duration {
	if cfg.Timeout() > 0 {
		return cfg.Timeout()
	}
	return DefaultTimeout
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() ClientConfig {
	return c.builder.Config()
}

// Do builds spec and sends it. Transport errors are returned unchanged.
func (c *Client) Do(ctx context.Context, spec RequestSpec) (*Response, error) {
	req, err := c.builder.Build(spec)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("method", req.Method).
			Str("endpoint", spec.Endpoint).
			Str("family", string(spec.Family)).
			Msg("Norsani API request failed")
		return nil, err
	}
	return resp, nil
}

// DoAll sends every spec, at most WithConcurrency at a time. Results line
// up with specs; a failed request leaves a nil entry and contributes to the
// returned error.
func (c *Client) DoAll(ctx context.Context, specs []RequestSpec) ([]*Response, error) {
	results := make([]*Response, len(specs))
	if len(specs) == 0 {
		return results, nil
	}

	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)

	for i, spec := range specs {
		g.Go(func() error {
			resp, err := c.Do(ctx, spec)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("%s %s: %w", spec.Method, spec.Endpoint, err))
				mu.Unlock()
				return nil
			}
			results[i] = resp
			return nil
		})
	}

	_ = g.Wait()
	return results, errs.ErrorOrNil()
}

// Get retrieves endpoint. data, if given, rides along in the query string
// outside the OAuth signature (paging and filter parameters).
func (c *Client) Get(ctx context.Context, endpoint string, family APIFamily, data any, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodGet, endpoint, family, data, opts)
}

// Post creates a resource with data as the JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, family APIFamily, data any, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodPost, endpoint, family, data, opts)
}

// Put updates a resource with data as the JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, family APIFamily, data any, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodPut, endpoint, family, data, opts)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, endpoint string, family APIFamily, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodDelete, endpoint, family, nil, opts)
}

// Options asks the API to describe endpoint.
func (c *Client) Options(ctx context.Context, endpoint string, family APIFamily, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodOptions, endpoint, family, nil, opts)
}

// Ping fetches the namespace index of family, confirming the URL and
// credentials work.
func (c *Client) Ping(ctx context.Context, family APIFamily) error {
	_, err := c.Get(ctx, "", family, nil)
	return err
}

func (c *Client) call(ctx context.Context, method, endpoint string, family APIFamily, data any, opts []CallOption) (any, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	resp, err := c.Do(ctx, RequestSpec{Method: method, Endpoint: endpoint, Family: family, Data: data})
	if err != nil {
		return nil, err
	}

	if co.onResult != nil {
		co.onResult(resp.Body)
	}
	if co.onComplete != nil {
		co.onComplete()
	}
	return resp.Body, nil
}

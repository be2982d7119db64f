package norsani

// Functional options for NewClient and per-call options for the verb
// helpers live here.

import (
	"fmt"
	"net/http"
)

// Option configures a Client during construction in NewClient.
type Option func(*Client) error

// WithTransport replaces the default HTTPTransport. WithHTTPClient and
// WithDebugLogging have no effect once a custom transport is set.
func WithTransport(t Transport) Option {
	return func(c *Client) error {
		if t == nil {
			return fmt.Errorf("transport cannot be nil")
		}
		c.transport = t
		return nil
	}
}

// WithHTTPClient sets the http.Client the default transport uses.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithSigner passes options through to the client's OAuthSigner.
func WithSigner(opts ...SignerOption) Option {
	return func(c *Client) error {
		c.signerOpts = append(c.signerOpts, opts...)
		return nil
	}
}

// WithConcurrency bounds how many requests DoAll keeps in flight.
func WithConcurrency(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("concurrency must be > 0")
		}
		c.concurrency = n
		return nil
	}
}

// WithDebugLogging dumps every request and response through the client's
// logger at debug level.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}

// CallOption configures a single Get/Post/Put/Delete/Options call.
type CallOption func(*callOptions)

type callOptions struct {
	onComplete func()
	onResult   func(body any)
}

// OnComplete registers fn to run after the call succeeds. It is not called
// when the request fails.
func OnComplete(fn func()) CallOption {
	return func(o *callOptions) {
		o.onComplete = fn
	}
}

// OnResult is OnComplete with the decoded response body.
func OnResult(fn func(body any)) CallOption {
	return func(o *callOptions) {
		o.onResult = fn
	}
}

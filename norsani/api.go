package norsani

import (
	"context"
)

// API defines the interface for Norsani REST operations
type API interface {
	// Get retrieves an endpoint, with data added to the query string
	Get(ctx context.Context, endpoint string, family APIFamily, data any, opts ...CallOption) (any, error)

	// Post creates a resource
	Post(ctx context.Context, endpoint string, family APIFamily, data any, opts ...CallOption) (any, error)

	// Put updates a resource
	Put(ctx context.Context, endpoint string, family APIFamily, data any, opts ...CallOption) (any, error)

	// Delete removes a resource
	Delete(ctx context.Context, endpoint string, family APIFamily, opts ...CallOption) (any, error)

	// Options describes an endpoint
	Options(ctx context.Context, endpoint string, family APIFamily, opts ...CallOption) (any, error)

	// Ping verifies the client can reach the API namespace
	Ping(ctx context.Context, family APIFamily) error
}

// BatchRunner sends several requests concurrently
type BatchRunner interface {
	DoAll(ctx context.Context, specs []RequestSpec) ([]*Response, error)
}

var (
	_ API         = (*Client)(nil)
	_ BatchRunner = (*Client)(nil)
	_ Transport   = (*HTTPTransport)(nil)
)

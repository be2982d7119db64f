package norsani

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid norsani configuration")
	// ErrTransport indicates the request could not be completed
	ErrTransport = errors.New("norsani transport failure")
)

// ConfigurationError reports missing or invalid client settings. It is
// returned synchronously from NewClientConfig and NewClient, and by the
// signer when it cannot produce a nonce.
type ConfigurationError struct {
	Field string
	Err   error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("norsani configuration error: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("norsani configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInvalidConfig) hold for every ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// TransportError represents a failed request: a network error, a non-2xx
// response, or a body that could not be decoded as JSON.
type TransportError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Message    string
	Body       string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("norsani %s %s: %s: status %d: %s", e.Method, e.URL, e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("norsani %s %s: %s: status %d", e.Method, e.URL, e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("norsani %s %s: %s: %v", e.Method, e.URL, e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// IsNotFound checks if the error indicates a not found response
func (e *TransportError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *TransportError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a TransportError carrying a 404.
func IsNotFound(err error) bool {
	var terr *TransportError
	if !errors.As(err, &terr) {
		return false
	}
	return terr.IsNotFound()
}

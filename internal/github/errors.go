package github

import (
	"fmt"
	"net/http"
)

// TransportError indicates the request never produced an HTTP response:
// DNS failure, refused connection, TLS error, timeout or cancellation.
// It is not retried by the polling loops and is propagated to the caller.
type TransportError struct {
	// Endpoint is the URL that could not be reached.
	Endpoint string
	// Reason is the underlying error.
	Reason error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Reason)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Reason
}

// ProtocolError indicates the server answered but the response did not have
// the expected status or shape.
type ProtocolError struct {
	// Endpoint is the URL that answered.
	Endpoint string
	// StatusCode is the HTTP status, 0 when unknown.
	StatusCode int
	// Reason describes what was wrong with the response.
	Reason error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("unexpected response from %s (status %d): %v", e.Endpoint, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("unexpected response from %s: %v", e.Endpoint, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error {
	return e.Reason
}

// IsUnauthorized reports whether the server rejected the credentials, which
// for the notifications endpoint means the stored token is no longer valid.
func (e *ProtocolError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

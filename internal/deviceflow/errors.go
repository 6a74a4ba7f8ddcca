package deviceflow

import (
	"errors"
	"fmt"
)

// ErrTimeout matches any *TimeoutError through errors.Is.
var ErrTimeout = errors.New("timeout while waiting for user authorization")

// TimeoutError is returned when the attempt budget is exhausted while the
// server still answers authorization_pending or slow_down.
//
// The budget is fixed from the initial interval, so a run of slow_down
// answers can exhaust it before the device code's lifetime has elapsed.
type TimeoutError struct {
	Attempts int
	Limit    int
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v after %d of %d attempts", ErrTimeout, e.Attempts, e.Limit)
}

// Is allows errors.Is(err, ErrTimeout).
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// AuthorizationError is a fatal answer from the authorization server:
// expired or incorrect codes, denied access, bad client credentials or an
// unsupported grant type. The authorization attempt is over.
type AuthorizationError struct {
	Code        ErrorCode
	Description string
	URI         string
}

// Error returns the server's description, falling back to the code.
func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthorizationError) Is(target error) bool {
	_, ok := target.(*AuthorizationError)
	return ok
}

func newAuthorizationError(e *TokenError) *AuthorizationError {
	return &AuthorizationError{Code: e.Code, Description: e.Description, URI: e.URI}
}

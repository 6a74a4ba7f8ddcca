package deviceflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GrantType is the grant_type sent to the token endpoint while polling.
const GrantType = "urn:ietf:params:oauth:grant-type:device_code"

// DeviceCode is the device authorization response. It is created once per
// authorization attempt and never persisted.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	// ExpiresIn is the lifetime of the codes in seconds.
	ExpiresIn int `json:"expires_in"`
	// Interval is the minimum polling interval in seconds.
	Interval int `json:"interval"`
}

// PollInterval returns Interval as a duration.
func (d *DeviceCode) PollInterval() time.Duration {
	return time.Duration(d.Interval) * time.Second
}

// Lifetime returns ExpiresIn as a duration.
func (d *DeviceCode) Lifetime() time.Duration {
	return time.Duration(d.ExpiresIn) * time.Second
}

// ErrorCode is the error field of a token endpoint error response.
type ErrorCode string

const (
	ErrorAuthorizationPending       ErrorCode = "authorization_pending"
	ErrorSlowDown                   ErrorCode = "slow_down"
	ErrorExpiredToken               ErrorCode = "expired_token"
	ErrorUnsupportedGrantType       ErrorCode = "unsupported_grant_type"
	ErrorIncorrectClientCredentials ErrorCode = "incorrect_client_credentials"
	ErrorIncorrectDeviceCode        ErrorCode = "incorrect_device_code"
	ErrorAccessDenied               ErrorCode = "access_denied"
)

var knownCodes = map[ErrorCode]struct{}{
	ErrorAuthorizationPending:       {},
	ErrorSlowDown:                   {},
	ErrorExpiredToken:               {},
	ErrorUnsupportedGrantType:       {},
	ErrorIncorrectClientCredentials: {},
	ErrorIncorrectDeviceCode:        {},
	ErrorAccessDenied:               {},
}

// Known reports whether c is one of the codes defined for the device flow.
func (c ErrorCode) Known() bool {
	_, ok := knownCodes[c]
	return ok
}

// Retryable reports whether polling should continue after c.
func (c ErrorCode) Retryable() bool {
	return c == ErrorAuthorizationPending || c == ErrorSlowDown
}

// ResponseKind discriminates the two shapes the token endpoint answers with.
type ResponseKind int

const (
	KindSuccess ResponseKind = iota + 1
	KindError
)

// TokenSuccess is a granted token.
type TokenSuccess struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// TokenError is an error answer from the token endpoint.
type TokenError struct {
	Code        ErrorCode `json:"error"`
	Description string    `json:"error_description"`
	URI         string    `json:"error_uri"`
}

// TokenResponse is the decoded token endpoint answer. Exactly one of Success
// and Error is set, according to Kind.
type TokenResponse struct {
	Kind    ResponseKind
	Success *TokenSuccess
	Error   *TokenError
}

// ParseTokenResponse decodes a token endpoint body. The variant is chosen by
// which discriminant field is present (access_token or error) before the
// body is decoded into that variant.
func ParseTokenResponse(body []byte) (*TokenResponse, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	_, hasToken := nonNull(probe, "access_token")
	_, hasError := nonNull(probe, "error")

	switch {
	case hasToken && hasError:
		return nil, errors.New("token response carries both access_token and error")
	case hasError:
		var e TokenError
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("decode token error: %w", err)
		}
		if e.Code == "" {
			return nil, errors.New("token error response has an empty error code")
		}
		return &TokenResponse{Kind: KindError, Error: &e}, nil
	case hasToken:
		var s TokenSuccess
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, fmt.Errorf("decode token: %w", err)
		}
		if s.AccessToken == "" {
			return nil, errors.New("token response has an empty access_token")
		}
		return &TokenResponse{Kind: KindSuccess, Success: &s}, nil
	default:
		return nil, errors.New("token response has neither access_token nor error")
	}
}

func nonNull(m map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := m[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

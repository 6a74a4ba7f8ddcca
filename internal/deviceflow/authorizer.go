package deviceflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ghnotifier/internal/github"
)

const (
	// DefaultSlowDownStep is added to the interval on every slow_down answer.
	DefaultSlowDownStep = 5 * time.Second

	// DefaultInterval is used when the server sends no usable interval.
	DefaultInterval = 5 * time.Second
)

// Poster sends a JSON body to an absolute URL. *github.Client implements it.
type Poster interface {
	PostJSON(ctx context.Context, endpoint string, body any) (*github.Response, error)
}

// SleepFunc suspends for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Progress describes one unsuccessful poll that will be retried.
type Progress struct {
	Attempt  int
	Limit    int
	Code     ErrorCode
	Interval time.Duration
}

// Config holds the endpoints and client identity used by the Authorizer.
type Config struct {
	ClientID      string
	Scope         string
	DeviceCodeURL string
	TokenURL      string

	// SlowDownStep defaults to DefaultSlowDownStep.
	SlowDownStep time.Duration
	// DefaultInterval defaults to DefaultInterval.
	DefaultInterval time.Duration
}

// Authorizer runs the OAuth 2.0 Device Authorization Grant: it requests a
// device code and polls the token endpoint until the user has authorized the
// device, the attempt budget runs out, or the server reports a fatal error.
type Authorizer struct {
	cfg        Config
	client     Poster
	sleep      SleepFunc
	logger     *slog.Logger
	onProgress func(Progress)
}

// Option configures the Authorizer.
type Option func(*Authorizer)

// WithSleep replaces the function used to wait between polls.
func WithSleep(sleep SleepFunc) Option {
	return func(a *Authorizer) {
		a.sleep = sleep
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authorizer) {
		a.logger = logger
	}
}

// WithProgress registers a callback invoked before every wait between polls.
func WithProgress(fn func(Progress)) Option {
	return func(a *Authorizer) {
		a.onProgress = fn
	}
}

// New creates an Authorizer.
func New(cfg Config, client Poster, opts ...Option) *Authorizer {
	if cfg.SlowDownStep <= 0 {
		cfg.SlowDownStep = DefaultSlowDownStep
	}
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = DefaultInterval
	}
	a := &Authorizer{
		cfg:    cfg,
		client: client,
		sleep:  Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sleep waits for d, returning early with ctx.Err() when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type deviceCodeRequest struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// RequestDeviceCode asks the authorization server for a device and user code.
func (a *Authorizer) RequestDeviceCode(ctx context.Context) (*DeviceCode, error) {
	resp, err := a.client.PostJSON(ctx, a.cfg.DeviceCodeURL, deviceCodeRequest{
		ClientID: a.cfg.ClientID,
		Scope:    a.cfg.Scope,
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		DeviceCode
		TokenError
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &github.ProtocolError{
			Endpoint:   a.cfg.DeviceCodeURL,
			StatusCode: resp.StatusCode,
			Reason:     fmt.Errorf("decode device code: %w", err),
		}
	}
	if body.Code != "" {
		return nil, newAuthorizationError(&body.TokenError)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &github.ProtocolError{
			Endpoint:   a.cfg.DeviceCodeURL,
			StatusCode: resp.StatusCode,
			Reason:     errors.New("device code request rejected"),
		}
	}
	if body.DeviceCode.DeviceCode == "" || body.UserCode == "" || body.VerificationURI == "" {
		return nil, &github.ProtocolError{
			Endpoint:   a.cfg.DeviceCodeURL,
			StatusCode: resp.StatusCode,
			Reason:     errors.New("device code response is missing required fields"),
		}
	}

	code := body.DeviceCode
	a.logger.Debug("Received device code",
		"verification_uri", code.VerificationURI,
		"expires_in", code.ExpiresIn,
		"interval", code.Interval)
	return &code, nil
}

type tokenRequest struct {
	ClientID   string `json:"client_id"`
	DeviceCode string `json:"device_code"`
	GrantType  string `json:"grant_type"`
}

// PollForToken polls the token endpoint until it grants an access token.
//
// The attempt budget is floor(expiresIn / interval), computed once from the
// initial interval. authorization_pending waits interval and retries;
// slow_down grows interval by the slow-down step first. Once the budget is
// used up either answer ends the loop with a *TimeoutError. Any other error
// code ends it immediately with an *AuthorizationError.
func (a *Authorizer) PollForToken(ctx context.Context, deviceCode string, interval, expiresIn time.Duration) (string, error) {
	if interval <= 0 {
		interval = a.cfg.DefaultInterval
	}
	limit := int(expiresIn / interval)

	req := tokenRequest{
		ClientID:   a.cfg.ClientID,
		DeviceCode: deviceCode,
		GrantType:  GrantType,
	}

	for attempts := 1; ; attempts++ {
		resp, err := a.requestToken(ctx, req)
		if err != nil {
			return "", err
		}

		if resp.Kind == KindSuccess {
			a.logger.Debug("Device authorized", "attempts", attempts)
			return resp.Success.AccessToken, nil
		}

		code := resp.Error.Code
		switch code {
		case ErrorAuthorizationPending:
		case ErrorSlowDown:
			if attempts < limit {
				interval += a.cfg.SlowDownStep
				a.logger.Debug("Server asked to slow down", "interval", interval)
			}
		default:
			return "", newAuthorizationError(resp.Error)
		}

		if attempts >= limit {
			return "", &TimeoutError{Attempts: attempts, Limit: limit}
		}

		if a.onProgress != nil {
			a.onProgress(Progress{Attempt: attempts, Limit: limit, Code: code, Interval: interval})
		}
		if err := a.sleep(ctx, interval); err != nil {
			return "", err
		}
	}
}

func (a *Authorizer) requestToken(ctx context.Context, req tokenRequest) (*TokenResponse, error) {
	resp, err := a.client.PostJSON(ctx, a.cfg.TokenURL, req)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseTokenResponse(resp.Body)
	if err != nil {
		return nil, &github.ProtocolError{Endpoint: a.cfg.TokenURL, StatusCode: resp.StatusCode, Reason: err}
	}
	return parsed, nil
}

// Authorize runs the whole flow: it requests a device code, hands it to
// prompt so the user can be told where to enter it, then polls for the token.
func (a *Authorizer) Authorize(ctx context.Context, prompt func(*DeviceCode)) (string, error) {
	code, err := a.RequestDeviceCode(ctx)
	if err != nil {
		return "", fmt.Errorf("request device code: %w", err)
	}
	if prompt != nil {
		prompt(code)
	}
	return a.PollForToken(ctx, code.DeviceCode, code.PollInterval(), code.Lifetime())
}

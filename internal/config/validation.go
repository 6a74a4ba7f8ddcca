package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the values that would otherwise fail late, deep inside a
// polling loop.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.ClientID == "" {
		errs = append(errs, errors.New("auth.client_id must not be empty"))
	}
	for key, raw := range map[string]string{
		"auth.device_code_url": c.Auth.DeviceCodeURL,
		"auth.token_url":       c.Auth.TokenURL,
		"api.base_url":         c.API.BaseURL,
	} {
		if err := validateURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if c.Auth.SlowDownStep <= 0 {
		errs = append(errs, errors.New("auth.slow_down_step must be positive"))
	}
	if c.Auth.DefaultInterval <= 0 {
		errs = append(errs, errors.New("auth.default_interval must be positive"))
	}
	if c.Poller.DefaultInterval <= 0 {
		errs = append(errs, errors.New("poller.default_interval must be positive"))
	}
	if c.Poller.MaxInFlight < 1 {
		errs = append(errs, errors.New("poller.max_inflight must be at least 1"))
	}
	switch c.Poller.Backpressure {
	case BackpressureQueue, BackpressureSkip:
	default:
		errs = append(errs, fmt.Errorf("poller.backpressure must be %q or %q, got %q",
			BackpressureQueue, BackpressureSkip, c.Poller.Backpressure))
	}
	if c.History.Retain < 0 {
		errs = append(errs, errors.New("history.retain must not be negative"))
	}

	if len(errs) > 0 {
		return &ConfigError{Op: "validate", Path: c.source, Err: errors.Join(errs...)}
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q must include scheme and host", raw)
	}
	return nil
}

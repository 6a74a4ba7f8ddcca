package config

import "time"

// Config is the effective ghnotifier configuration, assembled from defaults,
// the optional config.yaml and GHNOTIFIER_* environment variables.
type Config struct {
	Auth    AuthConfig    `mapstructure:"auth"`
	API     APIConfig     `mapstructure:"api"`
	Poller  PollerConfig  `mapstructure:"poller"`
	Token   TokenConfig   `mapstructure:"token"`
	Sink    SinkConfig    `mapstructure:"sink"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`

	// settings is the raw nested view of the configuration, kept for Render.
	settings map[string]any
	// source is the config file that was read, empty when running on defaults.
	source string
}

// AuthConfig configures the OAuth device authorization grant.
type AuthConfig struct {
	// ClientID identifies the OAuth application to the authorization server.
	ClientID string `mapstructure:"client_id"`

	// Scope is requested with the device code.
	Scope string `mapstructure:"scope"`

	// DeviceCodeURL is the device authorization endpoint (POST /login/device/code).
	DeviceCodeURL string `mapstructure:"device_code_url"`

	// TokenURL is the token endpoint polled for the access token
	// (POST /login/oauth/access_token).
	TokenURL string `mapstructure:"token_url"`

	// SlowDownStep is added to the polling interval for every slow_down answer.
	SlowDownStep time.Duration `mapstructure:"slow_down_step"`

	// DefaultInterval is used when the server does not send a usable interval.
	DefaultInterval time.Duration `mapstructure:"default_interval"`
}

// APIConfig configures requests to the REST API.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Accept    string        `mapstructure:"accept"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// PollerConfig configures the notification polling loop.
type PollerConfig struct {
	// DefaultInterval is the cadence used when X-Poll-Interval is absent or invalid.
	DefaultInterval time.Duration `mapstructure:"default_interval"`

	// MaxInFlight bounds concurrent notification deliveries.
	MaxInFlight int `mapstructure:"max_inflight"`

	// Backpressure selects what happens when MaxInFlight deliveries are running:
	// "queue" waits for a free slot, "skip" drops the notification.
	Backpressure string `mapstructure:"backpressure"`
}

// TokenConfig configures where the access token is persisted.
type TokenConfig struct {
	Path string `mapstructure:"path"`
}

// SinkConfig selects and configures the notification sinks.
type SinkConfig struct {
	Console     bool   `mapstructure:"console"`
	Desktop     bool   `mapstructure:"desktop"`
	OpenBrowser bool   `mapstructure:"open_browser"`
	Template    string `mapstructure:"template"`
	Icon        string `mapstructure:"icon"`
}

// HistoryConfig configures the local delivery log.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Retain  int    `mapstructure:"retain"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Source returns the config file the configuration was read from, or an
// empty string when only defaults and environment were used.
func (c *Config) Source() string {
	return c.source
}

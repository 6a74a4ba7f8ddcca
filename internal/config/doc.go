// Package config provides configuration management for ghnotifier.
//
// Configuration is read with Viper from an optional YAML file, by default
// <user config dir>/ghnotifier/config.yaml, and can be overridden per key
// through environment variables with the GHNOTIFIER_ prefix, where dots in
// the key become underscores:
//
//	GHNOTIFIER_AUTH_CLIENT_ID=abc123 ghnotifier watch
//	GHNOTIFIER_POLLER_MAX_INFLIGHT=2 ghnotifier watch
//
// A missing file is not an error: every key has a default. The device flow
// endpoints default to golang.org/x/oauth2/github.Endpoint and the REST API to
// https://api.github.com, which lets tests point both at an httptest server.
//
// The access token itself does not live in config.yaml. It is kept in the
// plaintext file <user config dir>/ghnotifierrc (see internal/tokenstore),
// overridable with token.path.
//
// When the host has no user config directory, loading fails with a
// *ConfigError wrapping ErrNoConfigDir.
package config

package config

import (
	"errors"
	"fmt"
)

// ErrNoConfigDir is returned when the host has no usable user config directory.
var ErrNoConfigDir = errors.New("unable to locate config directory")

// ConfigError is returned for anything that prevents a usable configuration:
// a missing config directory, an unreadable or malformed file, or invalid values.
// It is fatal at startup.
type ConfigError struct {
	// Op is the step that failed ("read", "decode", "validate", ...).
	Op string
	// Path is the file involved, if any.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

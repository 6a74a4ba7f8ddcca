package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"ghnotifier/pkg/logging"
)

// EnvPrefix is prepended to environment overrides, e.g. GHNOTIFIER_AUTH_CLIENT_ID.
const EnvPrefix = "ghnotifier"

// userConfigDir is swapped in tests.
var userConfigDir = os.UserConfigDir

// ConfigDir returns the platform config directory (e.g. ~/.config on Linux).
func ConfigDir() (string, error) {
	dir, err := userConfigDir()
	if err != nil || dir == "" {
		return "", &ConfigError{Op: "locate config directory", Err: errors.Join(ErrNoConfigDir, err)}
	}
	return dir, nil
}

// DefaultConfigFile returns <config dir>/ghnotifier/config.yaml.
func DefaultConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, configFileName), nil
}

// Load reads the configuration from disk and environment using Viper.
// An empty path selects DefaultConfigFile. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultConfigFile()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	source := path
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Op: "read", Path: path, Err: err}
		}
		logging.Debug("Config", "No config file at %s, using defaults", path)
		source = ""
	} else {
		logging.Debug("Config", "Loaded configuration from %s", path)
	}

	cfg, err := decode(v, source)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper, source string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Op: "decode", Path: source, Err: err}
	}
	cfg.settings = v.AllSettings()
	cfg.source = source

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePaths fills in token and history locations left empty by the user.
func (c *Config) resolvePaths() error {
	if c.Token.Path != "" && c.History.Path != "" {
		return nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if c.Token.Path == "" {
		c.Token.Path = filepath.Join(dir, TokenFileName)
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(dir, AppName, historyFileName)
	}
	return nil
}

// Render returns the configuration as YAML, in the same layout config.yaml uses.
func (c *Config) Render() ([]byte, error) {
	settings := c.settings
	if settings == nil {
		v := viper.New()
		setDefaults(v)
		settings = v.AllSettings()
	}
	out, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return out, nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return &ConfigError{Op: "write", Path: path, Err: os.ErrExist}
		}
	}

	v := viper.New()
	setDefaults(v)
	out, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return &ConfigError{Op: "write", Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return &ConfigError{Op: "write", Path: path, Err: err}
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return &ConfigError{Op: "write", Path: path, Err: err}
	}
	logging.Info("Config", "Wrote default configuration to %s", path)
	return nil
}

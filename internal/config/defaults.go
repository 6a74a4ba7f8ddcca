package config

import (
	"github.com/spf13/viper"
	"golang.org/x/oauth2/github"
)

const (
	// AppName is used for the config subdirectory and the User-Agent.
	AppName = "ghnotifier"

	// TokenFileName is the plaintext token file kept directly in the user config dir.
	TokenFileName = "ghnotifierrc"

	configFileName  = "config.yaml"
	historyFileName = "history.db"

	// DefaultClientID is the OAuth application registered for ghnotifier.
	DefaultClientID = "a14deabe89e4f5d2dfb9"

	// DefaultScope only grants access to notifications.
	DefaultScope = "notifications"

	// DefaultAccept selects the v3 REST media type.
	DefaultAccept = "application/vnd.github.v3+json"

	DefaultAPIBaseURL = "https://api.github.com"

	BackpressureQueue = "queue"
	BackpressureSkip  = "skip"
)

// DefaultNotificationTemplate renders "[<type>]\n<title>".
const DefaultNotificationTemplate = "[{{ .SubjectType }}]\n{{ .SubjectTitle }}"

func setDefaults(v *viper.Viper) {
	v.SetDefault("auth.client_id", DefaultClientID)
	v.SetDefault("auth.scope", DefaultScope)
	v.SetDefault("auth.device_code_url", github.Endpoint.DeviceAuthURL)
	v.SetDefault("auth.token_url", github.Endpoint.TokenURL)
	v.SetDefault("auth.slow_down_step", "5s")
	v.SetDefault("auth.default_interval", "5s")

	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.accept", DefaultAccept)
	v.SetDefault("api.user_agent", AppName)
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("poller.default_interval", "60s")
	v.SetDefault("poller.max_inflight", 8)
	v.SetDefault("poller.backpressure", BackpressureQueue)

	v.SetDefault("token.path", "")

	v.SetDefault("sink.console", true)
	v.SetDefault("sink.desktop", true)
	v.SetDefault("sink.open_browser", false)
	v.SetDefault("sink.template", DefaultNotificationTemplate)
	v.SetDefault("sink.icon", "")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retain", 500)

	v.SetDefault("log.level", "info")
}

// Default returns the configuration built from defaults only.
// Paths are resolved against the user config directory.
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	return decode(v, "")
}

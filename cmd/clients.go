package cmd

import (
	"net/http"

	"ghnotifier/internal/config"
	"ghnotifier/internal/deviceflow"
	"ghnotifier/internal/github"
	"ghnotifier/internal/tokenstore"
	"ghnotifier/pkg/logging"
)

func newGitHubClient(cfg *config.Config) (*github.Client, error) {
	return github.New(cfg.API.BaseURL,
		github.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		github.WithAccept(cfg.API.Accept),
		github.WithUserAgent(cfg.API.UserAgent+"/"+appVersion),
		github.WithLogger(logging.With("GitHub")),
	)
}

func newAuthorizer(cfg *config.Config, client deviceflow.Poster, opts ...deviceflow.Option) *deviceflow.Authorizer {
	opts = append([]deviceflow.Option{deviceflow.WithLogger(logging.With("DeviceFlow"))}, opts...)
	return deviceflow.New(deviceflow.Config{
		ClientID:        cfg.Auth.ClientID,
		Scope:           cfg.Auth.Scope,
		DeviceCodeURL:   cfg.Auth.DeviceCodeURL,
		TokenURL:        cfg.Auth.TokenURL,
		SlowDownStep:    cfg.Auth.SlowDownStep,
		DefaultInterval: cfg.Auth.DefaultInterval,
	}, client, opts...)
}

func newTokenStore(cfg *config.Config) (*tokenstore.Store, error) {
	return tokenstore.New(cfg.Token.Path)
}

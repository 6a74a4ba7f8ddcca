package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultAccept selects the v3 REST media type.
	DefaultAccept = "application/vnd.github.v3+json"

	// PollIntervalHeader carries the server-requested notification polling cadence in seconds.
	PollIntervalHeader = "X-Poll-Interval"

	// tokenType makes oauth2.Token render "Authorization: token <value>".
	tokenType = "token"

	maxBodyBytes = 10 << 20
)

// Client is a thin wrapper over the GitHub HTTP endpoints used by ghnotifier:
// the OAuth device flow endpoints on github.com and the notifications API.
type Client struct {
	baseURL   *url.URL
	accept    string
	userAgent string
	http      *http.Client
	logger    *slog.Logger

	// dedupes concurrent follow-up URL lookups for the same comment
	resolveGroup singleflight.Group
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithAccept overrides the Accept header sent with every request.
func WithAccept(accept string) Option {
	return func(c *Client) {
		c.accept = accept
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a client for the REST API rooted at rawURL (https://api.github.com).
func New(rawURL string, opts ...Option) (*Client, error) {
	if rawURL == "" {
		return nil, errors.New("base url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" {
		return nil, errors.New("base url must include scheme")
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	c := &Client{
		baseURL: parsed,
		accept:  DefaultAccept,
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// PostJSON posts body as JSON to an absolute endpoint URL and returns the raw
// response regardless of status. The device flow endpoints answer errors
// with a JSON body, so status handling is left to the caller.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req, "")
	return c.do(req)
}

// NotificationsResponse is one page of the notifications endpoint.
type NotificationsResponse struct {
	Notifications []Notification
	// PollInterval is the raw X-Poll-Interval header, empty when absent.
	PollInterval string
}

// ListNotifications fetches GET /notifications. since must already be
// formatted as an ISO-8601 UTC timestamp; an empty since omits the parameter
// so the server returns every unread notification.
func (c *Client) ListNotifications(ctx context.Context, token, since string) (*NotificationsResponse, error) {
	u := c.resolve("/notifications")
	if since != "" {
		values := url.Values{}
		values.Set("since", since)
		u += "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req, token)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProtocolError{Endpoint: u, StatusCode: resp.StatusCode, Reason: errors.New(snippet(resp.Body))}
	}

	var items []Notification
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return nil, &ProtocolError{Endpoint: u, StatusCode: resp.StatusCode, Reason: fmt.Errorf("decode notifications: %w", err)}
	}
	return &NotificationsResponse{
		Notifications: items,
		PollInterval:  resp.Header.Get(PollIntervalHeader),
	}, nil
}

// ResolveHTMLURL follows an API URL (such as a subject's latest_comment_url)
// and returns the html_url of the resource it points to. Concurrent lookups
// of the same URL share one request.
func (c *Client) ResolveHTMLURL(ctx context.Context, token, apiURL string) (string, error) {
	v, err, shared := c.resolveGroup.Do(apiURL, func() (interface{}, error) {
		return c.doResolveHTMLURL(ctx, token, apiURL)
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("Shared follow-up URL lookup", "api_url", apiURL)
	}
	return v.(string), nil
}

func (c *Client) doResolveHTMLURL(ctx context.Context, token, apiURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", err
	}
	c.decorate(req, token)

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProtocolError{Endpoint: apiURL, StatusCode: resp.StatusCode, Reason: errors.New(snippet(resp.Body))}
	}

	var resource struct {
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(resp.Body, &resource); err != nil {
		return "", &ProtocolError{Endpoint: apiURL, StatusCode: resp.StatusCode, Reason: fmt.Errorf("decode resource: %w", err)}
	}
	if resource.HTMLURL == "" {
		return "", &ProtocolError{Endpoint: apiURL, StatusCode: resp.StatusCode, Reason: errors.New("resource has no html_url")}
	}
	return resource.HTMLURL, nil
}

func (c *Client) do(req *http.Request) (*Response, error) {
	endpoint := redact(req.URL)

	resp, err := c.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = endpoint
		}
		return nil, &TransportError{Endpoint: endpoint, Reason: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Reason: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("HTTP request completed",
		"method", req.Method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"bytes", len(body))

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) resolve(p string) string {
	u := *c.baseURL
	u.Path = path.Join(c.baseURL.Path, p)
	return u.String()
}

func (c *Client) decorate(req *http.Request, token string) {
	if c.accept != "" {
		req.Header.Set("Accept", c.accept)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: tokenType}).SetAuthHeader(req)
	}
}

// BaseURL returns the configured API URL without trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// redact drops the query string so cursors and codes do not end up in errors.
func redact(u *url.URL) string {
	clean := *u
	clean.RawQuery = ""
	return clean.String()
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return s
}

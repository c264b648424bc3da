// Package identitytoolkit is an authsdk.Backend over the hosted identity
// REST API (accounts:* endpoints plus the secure token service).
//
// The session (ID token, refresh token and user) is kept in memory only.
package identitytoolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/authsdk"
	"github.com/aussiebroadwan/authkit/pkg/httpx"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

const (
	DefaultBaseURL    = "https://identitytoolkit.googleapis.com"
	DefaultTokenURL   = "https://securetoken.googleapis.com"
	DefaultRequestURI = "http://localhost"

	// tokenBuffer refreshes the ID token this long before it expires
	tokenBuffer = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	// APIKey is the project's web API key, sent as the key query parameter
	APIKey string

	// BaseURL is the accounts API root (default DefaultBaseURL)
	BaseURL string

	// TokenURL is the secure token service root (default DefaultTokenURL)
	TokenURL string

	// RequestURI is sent with federated sign-ins (default DefaultRequestURI)
	RequestURI string

	// HTTPClient replaces the default client. When nil, a client with a 10s
	// timeout, request logging and RateLimit throttling is built.
	HTTPClient *http.Client

	// RateLimit throttles outbound calls; a zero value disables throttling
	RateLimit httpx.RateLimitConfig

	Logger *slog.Logger
}

// Client talks to the identity REST API and holds the signed-in session.
type Client struct {
	baseURL    string
	tokenURL   string
	apiKey     string
	requestURI string
	httpClient *http.Client
	logger     *slog.Logger

	mu        sync.Mutex
	session   *session
	listeners map[int]func(*authsdk.BackendUser)
	nextID    int

	// refreshMu serializes token refreshes
	refreshMu sync.Mutex
}

var _ authsdk.Backend = (*Client)(nil)

// NewClient creates a signed-out Client.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slogx.Discard()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		var transport http.RoundTripper = http.DefaultTransport
		if cfg.RateLimit.Enabled() {
			transport = httpx.NewRateLimitedTransport(transport, cfg.RateLimit)
		}
		httpClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: &slogx.Transport{Base: transport, Logger: logger},
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(orDefault(cfg.BaseURL, DefaultBaseURL), "/"),
		tokenURL:   strings.TrimSuffix(orDefault(cfg.TokenURL, DefaultTokenURL), "/"),
		apiKey:     cfg.APIKey,
		requestURI: orDefault(cfg.RequestURI, DefaultRequestURI),
		httpClient: httpClient,
		logger:     logger,
		listeners:  make(map[int]func(*authsdk.BackendUser)),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (c *Client) accountsURL(method string) string {
	return c.baseURL + "/v1/accounts:" + method + "?key=" + url.QueryEscape(c.apiKey)
}

func (c *Client) tokenEndpoint() string {
	return c.tokenURL + "/v1/token?key=" + url.QueryEscape(c.apiKey)
}

// postJSON sends body to an accounts endpoint and decodes the reply into target.
func (c *Client) postJSON(ctx context.Context, method string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountsURL(method), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, target)
}

// postForm sends form data to the secure token service.
func (c *Client) postForm(ctx context.Context, data url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint(), strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp, body)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ============================================================================
// Listeners
// ============================================================================

// OnSessionChange registers listener and calls it right away with the
// current user. Listeners run synchronously on the goroutine that changed
// the session, after the client's lock is released.
func (c *Client) OnSessionChange(listener func(*authsdk.BackendUser)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	current := c.session.userCopy()
	c.mu.Unlock()

	listener(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// notify delivers user to every listener registered at call time.
func (c *Client) notify(user *authsdk.BackendUser) {
	c.mu.Lock()
	listeners := make([]func(*authsdk.BackendUser), 0, len(c.listeners))
	for _, id := range slices.Sorted(maps.Keys(c.listeners)) {
		listeners = append(listeners, c.listeners[id])
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(copyUser(user))
	}
}

package httpx

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the client-side request budget towards the backend.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// DefaultLimit keeps an interactive client well under the backend's own
// per-IP quota so a retry loop in the host app cannot lock the account.
// Override with: RATELIMIT_BACKEND_REQUESTS, RATELIMIT_BACKEND_WINDOW_SEC, RATELIMIT_BACKEND_BURST
var DefaultLimit = RateLimitConfig{
	RequestsPerWindow: 60,
	Window:            time.Minute,
	Burst:             10,
}

// Enabled reports whether the config describes a usable limit.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0
}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: RATELIMIT_{prefix}_{field}
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// RateLimitedTransport delays outbound requests so they never exceed the
// configured budget. A request whose context ends while waiting fails with
// the context error and is never sent.
type RateLimitedTransport struct {
	Base    http.RoundTripper
	limiter *rate.Limiter
}

// NewRateLimitedTransport wraps base with a token bucket built from config.
func NewRateLimitedTransport(base http.RoundTripper, config RateLimitConfig) *RateLimitedTransport {
	burst := max(config.Burst, 1)
	ratePerSecond := float64(config.RequestsPerWindow) / config.Window.Seconds()

	return &RateLimitedTransport{
		Base:    base,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (t *RateLimitedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(r.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

package slogx

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport logs every outbound request at debug level using the logger found
// in the request context (or Logger). The query string is never logged since
// it carries the backend API key.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	log := FromContext(r.Context(), t.Logger)

	resp, err := t.base().RoundTrip(r)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		log.Warn("backend_request_failed",
			"method", r.Method,
			"host", r.URL.Host,
			"path", r.URL.Path,
			"duration_ms", duration,
			"error", err,
		)
		return nil, err
	}

	log.Debug("backend_request",
		"method", r.Method,
		"host", r.URL.Host,
		"path", r.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}

// Package httplog logs outbound HTTP requests through the context logger.
package httplog

import (
	"net/http"
	"subhunt/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// Transport wraps an http.RoundTripper and writes a debug access log line for
// every request it sends.
type Transport struct {
	// Base sends the requests. http.DefaultTransport is used when nil.
	Base http.RoundTripper
}

// Ensure Transport conforms to the http.RoundTripper interface at compile time.
var _ http.RoundTripper = (*Transport)(nil)

// New returns a Transport sending its requests through base.
func New(base http.RoundTripper) *Transport {
	return &Transport{Base: base}
}

// RoundTrip sends r and logs its outcome. Errors are returned untouched.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	res, err := base.RoundTrip(r)

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("url", r.URL.Redacted()),
		zap.String("user_agent", r.UserAgent()),
		zap.Float64("latency", time.Since(start).Seconds()),
	}
	if err != nil {
		logger.Debug(r.Context(), "http request failed", append(fields, zap.Error(err))...)

		return nil, err //nolint: wrapcheck
	}

	logger.Debug(r.Context(), "http request",
		append(fields,
			zap.Int("status_code", res.StatusCode),
			zap.Int64("content_length", res.ContentLength))...)

	return res, nil
}

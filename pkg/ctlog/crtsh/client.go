// Package crtsh provides a ctlog.Client implementation backed by the public
// crt.sh certificate search service.
package crtsh

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"subhunt/pkg/ctlog"
	"subhunt/pkg/domain"
	"subhunt/pkg/logger"
	"subhunt/pkg/metrics"
	"subhunt/pkg/serrors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the crt.sh search endpoint.
	DefaultBaseURL = "https://crt.sh/"
	// DefaultUserAgent identifies subhunt to crt.sh.
	DefaultUserAgent = "subhunt/1.0 (+certificate transparency recon)"

	instrumentationName = "subhunt/crtsh"
	// maxErrorBody caps how much of a failed response ends up in the error message.
	maxErrorBody = 256
)

// Options configure a Client. Zero values fall back to the defaults above and to
// the global OpenTelemetry providers.
type Options struct {
	// BaseURL is the search endpoint queried by Fetch.
	BaseURL string
	// UserAgent is sent with every request.
	UserAgent string
	// MeterProvider receives request and parse metrics.
	MeterProvider metric.MeterProvider
	// TracerProvider receives a span per Fetch.
	TracerProvider trace.TracerProvider
}

// Client talks to crt.sh and fulfills the ctlog.Client interface. It performs
// exactly one request per Fetch and never retries.
type Client struct {
	httpClient *http.Client // httpClient is owned by the caller and may carry a timeout
	baseURL    *url.URL
	userAgent  string

	tracer    trace.Tracer
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
	malformed metric.Int64Counter
}

// Ensure Client conforms to the ctlog.Client interface at compile time.
var _ ctlog.Client = (*Client)(nil)

// New constructs a Client that sends its requests through httpClient.
func New(httpClient *http.Client, options Options) (*Client, error) {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.UserAgent == "" {
		options.UserAgent = DefaultUserAgent
	}
	if options.MeterProvider == nil {
		options.MeterProvider = otel.GetMeterProvider()
	}
	if options.TracerProvider == nil {
		options.TracerProvider = otel.GetTracerProvider()
	}

	base, err := url.Parse(options.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse base URL: %w", err)
	}

	meter := options.MeterProvider.Meter(instrumentationName)
	requests, err := meter.Int64Counter("crtsh.requests",
		metric.WithDescription("Number of crt.sh searches by outcome."))
	if err != nil {
		return nil, fmt.Errorf("could not create requests counter: %w", err)
	}
	duration, err := meter.Float64Histogram("crtsh.request.duration",
		metric.WithDescription("Duration of crt.sh searches."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create duration histogram: %w", err)
	}
	malformed, err := meter.Int64Counter("crtsh.responses.malformed",
		metric.WithDescription("Number of crt.sh bodies that could not be decoded."))
	if err != nil {
		return nil, fmt.Errorf("could not create malformed counter: %w", err)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		userAgent:  options.UserAgent,
		tracer:     options.TracerProvider.Tracer(instrumentationName),
		requests:   requests,
		duration:   duration,
		malformed:  malformed,
	}, nil
}

// SearchURL returns the URL Fetch requests for d. Quick scans ask crt.sh to
// leave out expired certificates.
func (c *Client) SearchURL(d domain.Domain, mode domain.ScanMode) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("q", d.String())
	q.Set("output", "json")
	if mode != domain.ScanModeComplete {
		q.Set("exclude", "expired")
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Fetch searches crt.sh for certificates issued to d and returns the raw body.
func (c *Client) Fetch(ctx context.Context, d domain.Domain, mode domain.ScanMode) ([]byte, error) {
	if d.IsZero() {
		return nil, serrors.With(serrors.ErrInvalidDomain, "refusing to query crt.sh without a validated domain")
	}

	ctx, span := c.tracer.Start(ctx, "crtsh.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("domain", d.String()), attribute.String("mode", string(mode))))
	defer span.End()

	logger.Info(ctx, "querying crt.sh", zap.String("domain", d.String()), zap.String("mode", string(mode)))

	start := time.Now()
	body, status, err := c.get(ctx, c.SearchURL(d, mode))

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	c.requests.Add(ctx, 1, attrs)
	c.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	span.SetAttributes(attribute.Int("http.status_code", status))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "could not reach crt.sh", zap.Error(err))

		return nil, err
	}

	logger.Debug(ctx, "received response from crt.sh", zap.Int("status", status), zap.Int("bytes", len(body)))

	return body, nil
}

// get performs the request and maps every failure to ErrUpstreamUnavailable.
func (c *Client) get(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, serrors.Wrap(serrors.ErrUpstreamUnavailable, err, "could not send request to crt.sh")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, serrors.Wrap(serrors.ErrUpstreamUnavailable, err, "could not read crt.sh response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(b))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody] + "..."
		}

		return nil, resp.StatusCode, serrors.With(serrors.ErrUpstreamUnavailable,
			"crt.sh answered with status %d: %s", resp.StatusCode, snippet)
	}

	return b, resp.StatusCode, nil
}

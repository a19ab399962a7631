// Package feed acquires structured weather and earthquake readings from the
// scraper service over HTTP. Requests go through a circuit breaker and are
// retried with exponential backoff on transport errors, 429 and 5xx.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
	"github.com/couchcryptid/storm-port-monitor/internal/observability"
)

// Source labels used in logs and metrics.
const (
	SourceWeather    = "weather"
	SourceEarthquake = "earthquake"
)

// ErrUpstream is wrapped by every error caused by the feed itself rather
// than by the caller's context.
var ErrUpstream = errors.New("feed: upstream error")

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// Options configures a Client.
type Options struct {
	WeatherURL    string
	EarthquakeURL string
	Timeout       time.Duration
	Retries       int
	MinBackoff    time.Duration
	MaxBackoff    time.Duration
	UserAgent     string
}

// Client fetches readings from the configured feed URLs.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.code)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// NewClient creates a feed client. Zero backoff values default to 500ms..10s.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "storm-port-monitor"
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "feed",
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return !se.retryable()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		breaker: cb,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// EarthquakesEnabled reports whether an earthquake feed is configured.
func (c *Client) EarthquakesEnabled() bool {
	return c.opts.EarthquakeURL != ""
}

// FetchWeather returns the current weather reading, or nil when no system is
// active (HTTP 204 or a JSON null body).
func (c *Client) FetchWeather(ctx context.Context) (*domain.WeatherReading, error) {
	body, err := c.get(ctx, SourceWeather, c.opts.WeatherURL)
	if err != nil {
		return nil, err
	}
	if isEmpty(body) {
		return nil, nil
	}

	var r domain.WeatherReading
	if err := json.Unmarshal(body, &r); err != nil {
		c.metrics.FetchErrors.WithLabelValues(SourceWeather).Inc()
		return nil, fmt.Errorf("%w: decode weather reading: %w", ErrUpstream, err)
	}
	return &r, nil
}

// FetchEarthquakes returns the recent earthquake list, newest first.
func (c *Client) FetchEarthquakes(ctx context.Context) ([]domain.EarthquakeReading, error) {
	if !c.EarthquakesEnabled() {
		return nil, nil
	}
	body, err := c.get(ctx, SourceEarthquake, c.opts.EarthquakeURL)
	if err != nil {
		return nil, err
	}
	if isEmpty(body) {
		return nil, nil
	}

	var readings []domain.EarthquakeReading
	if err := json.Unmarshal(body, &readings); err != nil {
		c.metrics.FetchErrors.WithLabelValues(SourceEarthquake).Inc()
		return nil, fmt.Errorf("%w: decode earthquake readings: %w", ErrUpstream, err)
	}
	return readings, nil
}

func (c *Client) get(ctx context.Context, source, url string) ([]byte, error) {
	start := time.Now()
	defer func() {
		c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	backoff := c.opts.MinBackoff
	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, url)
		})
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if attempt == c.opts.Retries {
			break
		}

		c.logger.Warn("feed request failed, retrying",
			"source", source, "attempt", attempt+1, "backoff", backoff, "error", err)
		if !sleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = nextBackoff(backoff, c.opts.MaxBackoff)
	}

	c.metrics.FetchErrors.WithLabelValues(source).Inc()
	return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, source, lastErr)
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &statusError{code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func isEmpty(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

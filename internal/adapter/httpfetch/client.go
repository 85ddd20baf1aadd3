// Package httpfetch is the shared HTTP layer for all upstream forecast
// sources: timeouts, bounded retries, and a per-host circuit breaker.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/flight-triage/internal/observability"
)

const (
	maxAttempts    = 3
	baseBackoff    = time.Second
	maxBodyBytes   = 32 << 20 // ensemble payloads run large
	breakerTimeout = 2 * time.Minute
)

// StatusError is a non-2xx upstream response. Client errors (4xx) are never
// retried; the request is wrong, not the network.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether another attempt could plausibly succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client fetches upstream payloads with retries and one circuit breaker per
// host, so a dead provider cannot stall the whole run.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewClient creates a fetch client. The timeout bounds each individual
// attempt, not the whole retry sequence.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
		breakers:   make(map[string]*gobreaker.CircuitBreaker[[]byte]),
		sleep:      time.Sleep,
	}
}

// Get fetches rawURL, retrying transient failures with linear backoff.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	host := hostOf(rawURL)
	breaker := c.breakerFor(host)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-after(c.sleep, time.Duration(attempt-1)*baseBackoff):
			}
		}

		body, err := breaker.Execute(func() ([]byte, error) {
			return c.doGet(ctx, rawURL)
		})
		if err == nil {
			return body, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.BreakerOpen.WithLabelValues(host).Inc()
			return nil, fmt.Errorf("%s: circuit open: %w", host, err)
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("fetch attempt failed",
			"host", host, "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("%s: %d attempts failed: %w", host, maxAttempts, lastErr)
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "flight-triage/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func (c *Client) breakerFor(host string) *gobreaker.CircuitBreaker[[]byte] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[host]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    host,
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A 4xx is our mistake, not the provider's outage.
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Retryable()
			}
			return err == nil
		},
	})
	c.breakers[host] = b
	return b
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

// after adapts a sleep func to a channel so backoff stays cancelable.
func after(sleep func(time.Duration), d time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		sleep(d)
		close(done)
	}()
	return done
}

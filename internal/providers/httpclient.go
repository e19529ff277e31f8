package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/devscholar/reference-engine/internal/domain"
)

// HTTPClientConfig configures the shared provider HTTP client.
type HTTPClientConfig struct {
	// Timeout bounds each provider call end to end.
	Timeout time.Duration

	// RateLimit is the sustained request rate per second against the
	// provider API.
	RateLimit float64

	// BurstSize is the token-bucket burst.
	BurstSize int

	// MaxRetries is the number of retry attempts after the first call.
	MaxRetries int

	// RetryDelay is the base delay between retries when the provider does
	// not send Retry-After.
	RetryDelay time.Duration

	// UserAgent identifies the engine to provider APIs.
	UserAgent string

	// APIKey and APIKeyHeader configure optional key authentication.
	APIKey       string
	APIKeyHeader string
}

func (c *HTTPClientConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RateLimit == 0 {
		c.RateLimit = 5
	}
	if c.BurstSize == 0 {
		c.BurstSize = 5
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "DevScholar-ReferenceEngine/1.0"
	}
}

// HTTPClient is an http.Client wrapper with token-bucket rate limiting and
// bounded retries on 429 and 5xx responses, honoring Retry-After. Safe for
// concurrent use.
type HTTPClient struct {
	client  *http.Client
	limiter *rate.Limiter
	config  HTTPClientConfig
}

// NewHTTPClient creates a rate-limited retrying HTTP client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	cfg.applyDefaults()
	return &HTTPClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.BurstSize),
		config:  cfg,
	}
}

// Get issues a rate-limited GET with default headers applied.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.Do(req)
}

// Do executes the request, waiting on the rate limiter before each attempt
// and retrying throttled or failing responses up to MaxRetries times. The
// caller owns the returned body.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == c.config.MaxRetries {
				return nil, lastErr
			}
			if err := sleepCtx(req.Context(), c.config.RetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		delay := c.retryDelay(resp)
		drainAndClose(resp)
		// Keep the sentinel in the chain so exhausted retries classify
		// correctly (rate limited vs transient server failure).
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("server returned status %d: %w", resp.StatusCode, domain.ErrRateLimited)
		} else {
			lastErr = fmt.Errorf("server returned status %d: %w", resp.StatusCode, domain.ErrNetwork)
		}
		if attempt == c.config.MaxRetries {
			return nil, fmt.Errorf("retries exhausted after %d attempts: %w", attempt+1, lastErr)
		}
		if err := sleepCtx(req.Context(), delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// retryableStatus reports whether the response warrants a retry: 429 or any
// 5xx.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// retryDelay derives the wait before the next attempt, preferring the
// provider's Retry-After header (seconds or HTTP date) over the configured
// base delay.
func (c *HTTPClient) retryDelay(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return c.config.RetryDelay
	}
	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return c.config.RetryDelay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drainAndClose(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

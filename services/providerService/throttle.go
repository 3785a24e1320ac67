package providerService

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// throttledClient serializes a provider's HTTP traffic behind a minimum
// inter-request delay and applies the shared retry policy: exponential
// backoff on timeouts and 5xx, Retry-After sleep on 429, no retry on auth
// failures.
type throttledClient struct {
	httpClient *http.Client
	minDelay   time.Duration
	maxRetries int
	logger     *logrus.Logger

	mu          sync.Mutex
	nextAllowed time.Time

	rateMu        sync.Mutex
	rateRemaining *int
}

func newThrottledClient(timeout, minDelay time.Duration, maxRetries int, logger *logrus.Logger) *throttledClient {
	return &throttledClient{
		httpClient: &http.Client{Timeout: timeout},
		minDelay:   minDelay,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// waitTurn blocks until this client's rate-limit slot opens, then claims the
// next slot. Concurrent callers queue behind the mutex.
func (c *throttledClient) waitTurn() {
	c.mu.Lock()
	now := time.Now()
	wait := c.nextAllowed.Sub(now)
	if wait < 0 {
		wait = 0
	}
	c.nextAllowed = now.Add(wait + c.minDelay)
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

func (c *throttledClient) rateLimitRemaining() *int {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	return c.rateRemaining
}

func (c *throttledClient) captureRateHeaders(h http.Header) {
	for _, name := range []string{"X-Requests-Remaining", "X-RateLimit-Remaining", "x-ratelimit-requests-remaining"} {
		if v := h.Get(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.rateMu.Lock()
				c.rateRemaining = &n
				c.rateMu.Unlock()
				return
			}
		}
	}
}

func retryAfter(h http.Header, attempt int) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return backoffDelay(attempt)
}

func backoffDelay(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// get fetches url with the retry policy applied and returns the response
// body. Every returned error wraps one of the package's tagged errors.
func (c *throttledClient) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		c.waitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: building request: %v", ErrMalformed, err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport errors and client timeouts are transient.
			lastErr = fmt.Errorf("%w: %v", ErrTimeout, err)
			time.Sleep(backoffDelay(attempt))
			continue
		}

		c.captureRateHeaders(resp.Header)

		switch {
		case resp.StatusCode == http.StatusOK:
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: reading body: %v", ErrTimeout, readErr)
				time.Sleep(backoffDelay(attempt))
				continue
			}
			return body, nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)

		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			sleep := retryAfter(resp.Header, attempt)
			c.logger.WithFields(logrus.Fields{"url": url, "sleep": sleep}).Warn("rate limited, backing off")
			lastErr = fmt.Errorf("%w: status 429", ErrRateLimited)
			time.Sleep(sleep)
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: status %d", ErrTimeout, resp.StatusCode)
			time.Sleep(backoffDelay(attempt))
			continue

		default:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: unexpected status %d", ErrMalformed, resp.StatusCode)
		}
	}

	return nil, lastErr
}

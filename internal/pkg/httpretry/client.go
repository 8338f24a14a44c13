// Package httpretry wraps an HTTP client with exponential backoff and
// jitter. The plan generator uses it for LLM provider calls, which hit
// rate limits under concurrent drafting.
package httpretry

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/emailpilot/emailpilot/internal/pkg/logger"
)

// Doer executes HTTP requests. Both *http.Client and *Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client retries transient failures with exponential backoff and full
// jitter. 429 and 5xx responses are retried; client errors and context
// cancellation are not.
type Client struct {
	inner      Doer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// New wraps inner with retry logic. A nil inner gets a default
// http.Client with a 30s timeout; maxRetries below 1 defaults to 3.
func New(inner Doer, maxRetries int) *Client {
	if inner == nil {
		inner = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &Client{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
	}
}

// Do executes the request, retrying retryable failures. The final
// attempt's response is returned as-is so callers can inspect the body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if req.Context().Err() != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, req.Context().Err()
		}

		if attempt > 0 {
			// The body was consumed by the previous attempt.
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("reset request body: %w", err)
				}
				req.Body = body
			}

			delay := c.delay(attempt)
			logger.Debug("retrying request",
				"attempt", fmt.Sprintf("%d/%d", attempt, c.maxRetries),
				"host", req.URL.Host,
				"wait", delay.String())

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := c.inner.Do(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, err
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt == c.maxRetries {
			return resp, nil
		}

		// Drain for connection reuse before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
	}

	return nil, lastErr
}

// delay computes full-jitter exponential backoff for the given attempt,
// floored at 100ms.
func (c *Client) delay(attempt int) time.Duration {
	exp := float64(c.baseDelay) * math.Pow(2, float64(attempt-1))
	if exp > float64(c.maxDelay) {
		exp = float64(c.maxDelay)
	}
	jittered := time.Duration(rand.Float64() * exp)
	if jittered < 100*time.Millisecond {
		jittered = 100 * time.Millisecond
	}
	return jittered
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

package providers

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"time"
)

// RetryPolicy configures the retry executor. It is pure configuration with no
// lifecycle; the zero value is unusable, use DefaultRetryPolicy.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt. The
	// operation therefore runs at most MaxRetries+1 times.
	MaxRetries int

	// BaseDelay is the backoff base. Attempt n (zero-indexed) sleeps
	// min(BaseDelay*2^n + jitter, MaxDelay) where jitter is uniform in
	// [0, 0.3*BaseDelay*2^n].
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// Retryable classifies an error as transient. Nil means DefaultRetryable.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the policy used by the gateway when the caller
// supplies none.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Retryable:  DefaultRetryable,
	}
}

// Do invokes op, retrying transient failures with exponential backoff and
// jitter. It performs no I/O itself and knows nothing about HTTP; it only
// invokes op and sleeps between attempts.
//
// Non-retryable errors propagate immediately. When the attempt budget is
// exhausted, the last observed error is returned unchanged so callers see the
// original failure classification. Context cancellation during a backoff
// sleep returns ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff(attempt - 1)):
			}
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// backoff computes the delay before the retry following attempt n.
func (p RetryPolicy) backoff(n int) time.Duration {
	base := float64(p.BaseDelay) * math.Pow(2, float64(n))
	jitter := rand.Float64() * 0.3 * base
	delay := time.Duration(base + jitter)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// DefaultRetryable classifies an error as transient. Retryable classes are
// rate limits (HTTP 429 or textual "rate limit"), server errors (5xx), and
// transport-level failures (timeout, connection refused/reset). Everything
// else, including context cancellation, propagates without retry.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) {
		return true
	}
	var server *ServerError
	if errors.As(err, &server) {
		switch server.StatusCode {
		case 500, 502, 503, 504:
			return true
		}
		return server.StatusCode >= 500 && server.StatusCode < 600
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit",
		"timeout",
		"timed out",
		"connection refused",
		"connection reset",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

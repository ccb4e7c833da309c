package llm

import (
	"context"
	"time"
)

// RetryPolicy is an explicit retry schedule for the completion call:
// bounded attempts, exponential backoff between them, and a predicate
// deciding which errors are worth another attempt.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Retryable      func(error) bool
}

// DefaultRetryPolicy mirrors the production schedule: 3 attempts total,
// backoff starting at 2s and capped at 10s, retrying only the retryable
// failure class.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     10 * time.Second,
		Retryable:      IsRetryable,
	}
}

// Do runs op until it succeeds, exhausts the attempt budget, or hits a
// non-retryable error. The backoff wait respects context cancellation.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return "", err
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return "", lastErr
}

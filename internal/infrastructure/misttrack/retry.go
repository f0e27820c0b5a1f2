package misttrack

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// retryPolicy mirrors the client's backoff settings: up to MaxRetries extra
// attempts, waiting Delay*Backoff^n scaled by a jitter factor in [0.8, 1.2).
type retryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	Backoff    float64

	// Classify decides whether an error is retryable. Nil means never.
	Classify func(error) bool

	// OnRetry is an optional hook for logging and metrics
	OnRetry func(attempt int, wait time.Duration, err error)
}

func doWithRetry(ctx context.Context, p retryPolicy, fn func(context.Context) error) error {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Backoff < 1 {
		p.Backoff = 1
	}

	delay := p.Delay
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Classify == nil || !p.Classify(err) || attempt == p.MaxRetries {
			break
		}

		wait := time.Duration(float64(delay) * (0.8 + rand.Float64()*0.4))
		delay = time.Duration(float64(delay) * p.Backoff)

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = errors.New("retry: exhausted with no error")
	}
	return lastErr
}

func isRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable()
}

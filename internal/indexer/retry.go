package indexer

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds exponential backoff for a single pipeline step.
// MaxRetries of zero runs the step exactly once.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func (p RetryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	return withRetry(ctx, p.MaxRetries, p.Backoff, fn)
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}

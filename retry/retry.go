// Package retry provides bounded retry with exponential backoff for
// idempotent read operations. The payment engine never retries
// submissions: a blind resend of a transfer risks paying twice, so write
// paths surface their first error and stop.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config bounds a retry loop.
type Config struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// Delay is the wait before the second try.
	Delay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// Multiplier scales the delay after each failed try.
	Multiplier float64
}

// Reads is the default configuration for contract reads.
var Reads = Config{
	Attempts:   3,
	Delay:      100 * time.Millisecond,
	MaxDelay:   2 * time.Second,
	Multiplier: 2.0,
}

// Do runs fn until it succeeds, the attempts are exhausted, retryable
// reports an error as permanent, or the context ends. A nil retryable
// treats every error as transient.
func Do[T any](ctx context.Context, cfg Config, retryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := cfg.Delay

	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return zero, err
		}

		if attempt == cfg.Attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, fmt.Errorf("retries exhausted: %w", lastErr)
}

package util

import (
	"context"
	"time"
)

// Retry runs fn until it succeeds or maxAttempts calls have failed, doubling
// the wait between calls starting from baseDelay. Bar imports and other
// provider round trips go through this to ride out transient upstream
// errors. The error from the final attempt is returned; cancelling ctx
// aborts the backoff wait early.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	delay := baseDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= maxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

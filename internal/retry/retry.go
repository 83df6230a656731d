// Package retry retries operations against flaky backends, such as a
// postgres snapshot store that is still starting up.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy bounds a retry loop. Timeout applies to each attempt, zero means no
// per-attempt deadline.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Timeout   time.Duration
}

// DefaultPolicy suits opening a database connection.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  5,
		BaseDelay: 200 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Timeout:   10 * time.Second,
	}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// WithRetry runs op until it succeeds, returns a Permanent error, the policy's
// attempts run out or ctx is done.
func WithRetry[T any](ctx context.Context, p Policy, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.Attempts, 1)

	var err error
	for attempt := range attempts {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		var result T
		result, err = try(ctx, p.Timeout, op)
		if err == nil {
			return result, nil
		}

		var perm permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}

		log.Debug().
			Err(err).
			Str("operation", name).
			Int("attempt", attempt+1).
			Msg("Operation failed")

		if attempt == attempts-1 {
			break
		}

		delay := backoff(attempt, p.BaseDelay, p.MaxDelay)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	return zero, fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}

func try[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(opCtx)
}

// backoff doubles base per attempt, capped at ceiling, with 0.5x to 1.5x jitter.
func backoff(attempt int, base, ceiling time.Duration) time.Duration {
	delay := time.Duration(1<<min(attempt, 30)) * base
	if ceiling > 0 && delay > ceiling {
		delay = ceiling
	}
	delay = time.Duration(float64(delay) * (0.5 + rand.Float64()))
	if ceiling > 0 && delay > ceiling {
		delay = ceiling
	}
	return delay
}

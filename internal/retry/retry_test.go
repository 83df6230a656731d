package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		Attempts:  attempts,
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
		Timeout:   time.Second,
	}
}

func TestWithRetry_SucceedsFirstTime(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastPolicy(3), "ping", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastPolicy(4), "ping", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection refused")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	_, err := WithRetry(context.Background(), fastPolicy(3), "open store", func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "open store failed after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestWithRetry_Permanent(t *testing.T) {
	bad := errors.New("unknown driver")
	calls := 0
	_, err := WithRetry(context.Background(), fastPolicy(5), "open store", func(context.Context) (int, error) {
		calls++
		return 0, Permanent(bad)
	})
	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := WithRetry(ctx, fastPolicy(5), "ping", func(context.Context) (int, error) {
		calls++
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestWithRetry_AttemptTimeout(t *testing.T) {
	p := fastPolicy(1)
	p.Timeout = 10 * time.Millisecond
	_, err := WithRetry(context.Background(), p, "slow", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoff(t *testing.T) {
	for attempt := range 40 {
		d := backoff(attempt, 10*time.Millisecond, time.Second)
		assert.Positive(t, d)
		assert.LessOrEqual(t, d, time.Second)
	}
	d := backoff(0, 100*time.Millisecond, time.Second)
	assert.GreaterOrEqual(t, d, 50*time.Millisecond)
	assert.LessOrEqual(t, d, 150*time.Millisecond)
}

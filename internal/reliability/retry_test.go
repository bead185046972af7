package reliability

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	t.Run("dial policy produces the contractual delay sequence", func(t *testing.T) {
		eb := NewExponentialBackoff(5*time.Second, 0, 2.0, 5)

		expected := []time.Duration{
			5 * time.Second,
			10 * time.Second,
			20 * time.Second,
			40 * time.Second,
			80 * time.Second,
		}
		for attempt, want := range expected {
			shouldRetry, delay := eb.ShouldRetry(attempt, errors.New("dial tcp: refused"))
			assert.True(t, shouldRetry, "attempt %d", attempt)
			assert.Equal(t, want, delay, "attempt %d", attempt)
		}

		// Sixth consecutive failure gives up.
		shouldRetry, delay := eb.ShouldRetry(5, errors.New("dial tcp: refused"))
		assert.False(t, shouldRetry)
		assert.Equal(t, time.Duration(0), delay)
	})

	t.Run("NextDelay caps at max interval", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, 1*time.Second, 2.0, 10)

		assert.Equal(t, 100*time.Millisecond, eb.NextDelay(0))
		assert.Equal(t, 800*time.Millisecond, eb.NextDelay(3))
		assert.Equal(t, 1*time.Second, eb.NextDelay(6))
	})

	t.Run("jitter perturbs the delay when enabled", func(t *testing.T) {
		eb := NewExponentialBackoff(1*time.Second, 10*time.Second, 2.0, 5)
		eb.Jitter = true

		delays := make([]time.Duration, 10)
		for i := range delays {
			delays[i] = eb.NextDelay(0)
			assert.GreaterOrEqual(t, delays[i], 850*time.Millisecond)
			assert.LessOrEqual(t, delays[i], 1150*time.Millisecond)
		}

		allSame := true
		for i := 1; i < len(delays); i++ {
			if delays[i] != delays[0] {
				allSame = false
				break
			}
		}
		assert.False(t, allSame, "jitter should produce different delays")
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, 1*time.Second, 2.0, 3)

		shouldRetry, _ := eb.ShouldRetry(0, PermanentError{Err: errors.New("bad vhost")})
		assert.False(t, shouldRetry)
	})
}

func TestFixedDelay(t *testing.T) {
	fd := NewFixedDelay(2*time.Second, 3)

	assert.Equal(t, 2*time.Second, fd.NextDelay(0))
	assert.Equal(t, 2*time.Second, fd.NextDelay(2))
	assert.Equal(t, 3, fd.MaxRetries())

	shouldRetry, _ := fd.ShouldRetry(2, errors.New("x"))
	assert.True(t, shouldRetry)
	shouldRetry, _ = fd.ShouldRetry(3, errors.New("x"))
	assert.False(t, shouldRetry)
}

func TestRetry(t *testing.T) {
	t.Run("returns nil once fn succeeds", func(t *testing.T) {
		var calls int32
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 5), func() error {
			if atomic.AddInt32(&calls, 1) < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("returns last error when attempts are exhausted", func(t *testing.T) {
		last := errors.New("still failing")
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 2), func() error {
			return last
		})

		assert.ErrorIs(t, err, last)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Retry(ctx, NewFixedDelay(time.Hour, 5), func() error {
			return errors.New("transient")
		})

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("stops immediately on permanent error", func(t *testing.T) {
		var calls int32
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 5), func() error {
			atomic.AddInt32(&calls, 1)
			return PermanentError{Err: errors.New("fatal")}
		})

		assert.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

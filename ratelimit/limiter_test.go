package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	selerr "selecta/types/errors"
)

func TestLimiter_SucceedsOnFirstTry(t *testing.T) {
	limiter := NewLimiter(Policy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	limiter.Register("spotify", 600)

	calls := 0
	err := limiter.Do(context.Background(), "spotify", func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestLimiter_RetriesTransientFailures(t *testing.T) {
	limiter := NewLimiter(Policy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	limiter.Register("spotify", 600)

	calls := 0
	err := limiter.Do(context.Background(), "spotify", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return selerr.New(selerr.KindTransient, "temporary", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestLimiter_DoesNotRetryAuthFailures(t *testing.T) {
	limiter := NewLimiter(Policy{MaxAttempts: 5, BaseDelay: time.Millisecond})
	limiter.Register("spotify", 600)

	calls := 0
	err := limiter.Do(context.Background(), "spotify", func(ctx context.Context) error {
		calls++
		return selerr.New(selerr.KindAuthFailed, "bad token", nil)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestLimiter_RespectsCancellation(t *testing.T) {
	limiter := NewLimiter(Policy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	limiter.Register("spotify", 600)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Do(ctx, "spotify", func(ctx context.Context) error {
		return errors.New("should not be called")
	})

	assert.Error(t, err)
}

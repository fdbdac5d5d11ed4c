package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedMonotonicallyDecreasesToFloor(t *testing.T) {
	limiter := New(Options{Rate: 4, Floor: 0.25})

	previous := limiter.Rate()
	for i := 0; i < 10; i++ {
		limiter.OnRateLimited(0)
		current := limiter.Rate()
		assert.LessOrEqual(t, current, previous)
		assert.GreaterOrEqual(t, current, 0.25)
		previous = current
	}
	assert.Equal(t, 0.25, limiter.Rate())
}

func TestSuccessMonotonicallyRecoversToCeiling(t *testing.T) {
	limiter := New(Options{Rate: 4, Floor: 0.25, Ceiling: 8, Step: 0.5, RecoveryThreshold: 2})
	for i := 0; i < 6; i++ {
		limiter.OnRateLimited(0)
	}

	previous := limiter.Rate()
	for i := 0; i < 100; i++ {
		limiter.OnSuccess()
		current := limiter.Rate()
		assert.GreaterOrEqual(t, current, previous)
		assert.LessOrEqual(t, current, 8.0)
		previous = current
	}
	assert.Equal(t, 8.0, limiter.Rate())
}

func TestAcquireHonorsCancellation(t *testing.T) {
	limiter := New(Options{Rate: 1})
	limiter.OnRateLimited(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquireRespectsRetryAfter(t *testing.T) {
	limiter := New(Options{Rate: 100})
	require.NoError(t, limiter.Acquire(context.Background()))

	limiter.OnRateLimited(60 * time.Millisecond)
	start := time.Now()
	require.NoError(t, limiter.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestAcquirePacesAtConfiguredRate(t *testing.T) {
	limiter := New(Options{Rate: 50}) // 20ms spacing
	start := time.Now()
	for i := 0; i < 4; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

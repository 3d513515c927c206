package esimaccess

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAdmitsUpToCeiling(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(8, time.Second)
	limiter.Clock = func() time.Time { return now }
	limiter.Sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatalf("unexpected sleep of %v within ceiling", d)
		return nil
	}

	for i := 0; i < 8; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
}

func TestRateLimiterDelaysOverCeiling(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(8, time.Second)
	limiter.Clock = func() time.Time { return now }

	var slept []time.Duration
	limiter.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}

	for i := 0; i < 8; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	// Part way into the window, the ninth request waits out the remainder.
	now = now.Add(300 * time.Millisecond)
	require.NoError(t, limiter.Wait(context.Background()))

	require.Len(t, slept, 1)
	require.Equal(t, 700*time.Millisecond, slept[0])
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, time.Second)
	limiter.Clock = func() time.Time { return now }
	limiter.Sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatalf("unexpected sleep of %v after window lapse", d)
		return nil
	}

	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))

	now = now.Add(time.Second)
	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))
}

func TestRateLimiterHonorsContextCancellation(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, time.Second)
	limiter.Clock = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	limiter.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	require.NoError(t, limiter.Wait(ctx))
	err := limiter.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	require.Equal(t, DefaultRateLimit, limiter.limit)
	require.Equal(t, DefaultRateLimitWindow, limiter.window)
}

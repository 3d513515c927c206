package esimaccess

import (
	"context"
	"sync"
	"time"
)

// Default provider-side request ceiling.
const (
	DefaultRateLimit       = 8
	DefaultRateLimitWindow = time.Second
)

// RateLimiter is a fixed-window admission gate matching the provider's
// documented ceiling. It never rejects: callers over the ceiling wait for the
// current window to lapse and re-check. Fairness among blocked callers is
// best-effort.
type RateLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time

	// Clock and Sleep are injectable for tests. Nil means real time.
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter returns a limiter admitting at most limit requests per window.
// Non-positive arguments fall back to the provider defaults.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return &RateLimiter{limit: limit, window: window}
}

// Wait blocks until the request may be sent, or until ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := r.tryAdmit()
		if ok {
			return nil
		}

		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAdmit performs one check-and-increment pass. On refusal it returns the
// time remaining in the current window.
func (r *RateLimiter) tryAdmit() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.windowStart.IsZero() || now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.count = 0
	}

	if r.count < r.limit {
		r.count++
		return 0, true
	}

	remaining := r.window - now.Sub(r.windowStart)
	if remaining <= 0 {
		remaining = time.Millisecond
	}
	return remaining, false
}

func (r *RateLimiter) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

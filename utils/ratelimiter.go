package utils

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces out consecutive outgoing requests by a minimum interval.
type RateLimiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a RateLimiter with the given interval in milliseconds.
func NewRateLimiter(intervalMs int) *RateLimiter {
	return &RateLimiter{interval: time.Duration(intervalMs) * time.Millisecond}
}

// Wait blocks until the interval since the previous call has elapsed,
// or ctx is done. The first call never blocks.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastRequest.IsZero() {
		if wait := r.interval - time.Since(r.lastRequest); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	r.lastRequest = time.Now()
	return nil
}

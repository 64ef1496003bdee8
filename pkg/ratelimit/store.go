package ratelimit

import (
	"context"
	"time"
)

// Store is the atomic per-key counter behind the limiter.
//
// Incr must perform window rollover and increment as one atomic unit per
// key: two callers racing on a previously absent key must observe counts 1
// and 2, never 1 and 1. Eviction of expired windows must be invisible to
// correctness; a fresh key behaves like a first-ever call.
type Store interface {
	// Incr increments the counter for key within its current fixed window,
	// resetting the window first if it has elapsed. Returns the count after
	// increment and the current window's start time.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, windowStart time.Time, err error)
}

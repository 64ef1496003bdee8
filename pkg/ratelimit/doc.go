// Package ratelimit provides fixed-window rate limiting keyed by
// operation and caller identity.
//
// Fixed windows were chosen over a sliding log for O(1) memory per key.
// Each operation class carries its own limit and window; keys compose the
// operation name with a user ID or client IP. The limiter never returns an
// error for an exhausted bucket: callers read Result.Allowed and surface
// KindRateLimited themselves. A store failure is an error, and is never
// interpreted as "allow".
//
//	limiter, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{
//		Limit:  3,
//		Window: time.Hour,
//	})
//	res, err := limiter.Allow(ctx, "entity-setup:"+userID)
package ratelimit

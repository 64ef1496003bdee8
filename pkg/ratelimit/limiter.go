package ratelimit

import (
	"context"
)

// Limiter applies one operation class's fixed-window policy on top of an
// atomic counter store.
type Limiter struct {
	store Store
	cfg   Config
}

// New creates a limiter for the given operation config.
func New(store Store, cfg Config) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, cfg: cfg}, nil
}

// Allow records one request for key and reports whether it fits the window.
// An exhausted window is not an error; store failures are.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if key == "" {
		return Result{}, ErrEmptyKey
	}

	count, windowStart, err := l.store.Incr(ctx, key, l.cfg.Window)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:   count <= int64(l.cfg.Limit),
		Limit:     l.cfg.Limit,
		Remaining: max(l.cfg.Limit-int(count), 0),
		ResetAt:   windowStart.Add(l.cfg.Window),
	}, nil
}

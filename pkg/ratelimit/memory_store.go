package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window is one key's fixed-window counter.
type window struct {
	count  int64
	start  time.Time
	length time.Duration
}

func (w *window) expired(now time.Time) bool {
	return !now.Before(w.start.Add(w.length))
}

// MemoryStore implements Store with a locked map, for single-process
// deployments and tests. Expired windows are evicted in the background to
// bound memory; eviction is indistinguishable from natural rollover.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired windows are evicted.
// Zero disables background cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// NewMemoryStore creates an in-memory fixed-window store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		windows:         make(map[string]*window),
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}
	return ms
}

// Incr increments the counter for key, rolling the window over first when
// it has elapsed. Creation, rollover, and increment happen under one lock
// so concurrent callers can never both observe an uninitialized window.
func (ms *MemoryStore) Incr(ctx context.Context, key string, windowLen time.Duration) (int64, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return 0, time.Time{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	w, ok := ms.windows[key]
	if !ok || w.expired(now) || w.length != windowLen {
		w = &window{start: now, length: windowLen}
		ms.windows[key] = w
	}

	w.count++
	return w.count, w.start, nil
}

func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.evictExpired()
		case <-ms.stopCleanup:
			return
		}
	}
}

func (ms *MemoryStore) evictExpired() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, w := range ms.windows {
		if w.expired(now) {
			delete(ms.windows, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	ms.closeOnce.Do(func() {
		close(ms.stopCleanup)
	})
}

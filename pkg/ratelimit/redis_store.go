package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript performs window creation, increment, and TTL read as one
// atomic Redis operation. The key's TTL is set only when the counter is
// created, so the window start stays fixed for the window's lifetime and
// Redis evicts the key once the window elapses.
var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RedisStore implements Store on Redis, sharing windows across server
// instances.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "ratelimit:" key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.keyPrefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed fixed-window store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	rs := &RedisStore{
		client:    client,
		keyPrefix: "ratelimit:",
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Incr atomically increments key's window counter in Redis.
func (rs *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	res, err := incrScript.Run(ctx, rs.client, []string{rs.keyPrefix + key}, window.Milliseconds()).Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, ErrStoreUnavailable
	}

	count, ok := res[0].(int64)
	if !ok {
		return 0, time.Time{}, ErrStoreUnavailable
	}
	ttlMs, ok := res[1].(int64)
	if !ok {
		return 0, time.Time{}, ErrStoreUnavailable
	}

	// PTTL counts down from the window length; the difference recovers the
	// window's fixed start time.
	now := time.Now()
	elapsed := window - time.Duration(ttlMs)*time.Millisecond
	if ttlMs < 0 || elapsed < 0 {
		elapsed = 0
	}
	return count, now.Add(-elapsed), nil
}

package idempotency_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/idempotency"
)

func TestRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("fresh key executes once", func(t *testing.T) {
		t.Parallel()
		store := idempotency.NewMemoryStore()
		tenantID := uuid.New()
		entityID := uuid.New()

		var calls atomic.Int64
		got, replayed, err := idempotency.Run(ctx, store, tenantID, "k", idempotency.DefaultStaleAfter,
			func(ctx context.Context) (uuid.UUID, error) {
				calls.Add(1)
				return entityID, nil
			})
		require.NoError(t, err)
		assert.False(t, replayed)
		assert.Equal(t, entityID, got)
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("replay returns recorded result without executing", func(t *testing.T) {
		t.Parallel()
		store := idempotency.NewMemoryStore()
		tenantID := uuid.New()
		entityID := uuid.New()

		_, _, err := idempotency.Run(ctx, store, tenantID, "k", idempotency.DefaultStaleAfter,
			func(ctx context.Context) (uuid.UUID, error) { return entityID, nil })
		require.NoError(t, err)

		got, replayed, err := idempotency.Run(ctx, store, tenantID, "k", idempotency.DefaultStaleAfter,
			func(ctx context.Context) (uuid.UUID, error) {
				t.Error("fn must not run on replay")
				return uuid.UUID{}, nil
			})
		require.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, entityID, got)
	})

	t.Run("in-flight key conflicts", func(t *testing.T) {
		t.Parallel()
		store := idempotency.NewMemoryStore()
		tenantID := uuid.New()

		// Simulate an operation still running: PENDING and fresh.
		_, _, err := store.BeginOrGet(ctx, tenantID, "k")
		require.NoError(t, err)

		_, _, err = idempotency.Run(ctx, store, tenantID, "k", idempotency.DefaultStaleAfter,
			func(ctx context.Context) (uuid.UUID, error) {
				t.Error("fn must not run while in flight")
				return uuid.UUID{}, nil
			})
		require.ErrorIs(t, err, idempotency.ErrInFlight)
	})

	t.Run("failed key is retried", func(t *testing.T) {
		t.Parallel()
		store := idempotency.NewMemoryStore()
		tenantID := uuid.New()
		entityID := uuid.New()
		boom := errors.New("boom")

		_, _, err := idempotency.Run(ctx, store, tenantID, "k", idempotency.DefaultStaleAfter,
			func(ctx context.Context) (uuid.UUID, error) { return uuid.UUID{}, boom })
		require.ErrorIs(t, err, boom)

		got, replayed, err := idempotency.Run(ctx, store, tenantID, "k", idempotency.DefaultStaleAfter,
			func(ctx context.Context) (uuid.UUID, error) { return entityID, nil })
		require.NoError(t, err)
		assert.False(t, replayed)
		assert.Equal(t, entityID, got)
	})

	t.Run("concurrent retries of a failed key execute exactly once", func(t *testing.T) {
		t.Parallel()
		store := idempotency.NewMemoryStore()
		tenantID := uuid.New()
		entityID := uuid.New()
		boom := errors.New("boom")

		_, _, err := idempotency.Run(ctx, store, tenantID, "k", idempotency.DefaultStaleAfter,
			func(ctx context.Context) (uuid.UUID, error) { return uuid.UUID{}, boom })
		require.ErrorIs(t, err, boom)

		const retriers = 20
		var calls atomic.Int64
		var executed, conflicted, replayed atomic.Int64

		var wg sync.WaitGroup
		for i := 0; i < retriers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, wasReplay, err := idempotency.Run(ctx, store, tenantID, "k", idempotency.DefaultStaleAfter,
					func(ctx context.Context) (uuid.UUID, error) {
						calls.Add(1)
						return entityID, nil
					})
				switch {
				case errors.Is(err, idempotency.ErrInFlight):
					conflicted.Add(1)
				case err != nil:
					t.Error(err)
				case wasReplay:
					replayed.Add(1)
				default:
					executed.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), calls.Load(), "retry must run exactly once")
		assert.Equal(t, int64(1), executed.Load())
		assert.Equal(t, int64(retriers), executed.Load()+conflicted.Load()+replayed.Load())
	})

	t.Run("failure under a cancelled request still lands as failed", func(t *testing.T) {
		t.Parallel()
		store := idempotency.NewMemoryStore()
		tenantID := uuid.New()

		reqCtx, cancel := context.WithCancel(context.Background())
		_, _, err := idempotency.Run(reqCtx, store, tenantID, "k", idempotency.DefaultStaleAfter,
			func(ctx context.Context) (uuid.UUID, error) {
				// Client disconnects mid-operation.
				cancel()
				return uuid.UUID{}, ctx.Err()
			})
		require.ErrorIs(t, err, context.Canceled)

		rec, isNew, err := store.BeginOrGet(ctx, tenantID, "k")
		require.NoError(t, err)
		assert.False(t, isNew)
		assert.Equal(t, idempotency.StatusFailed, rec.Status, "key must be retryable immediately, not parked as pending")
	})

	t.Run("stale pending key is taken over", func(t *testing.T) {
		t.Parallel()
		store := idempotency.NewMemoryStore()
		tenantID := uuid.New()
		entityID := uuid.New()

		_, _, err := store.BeginOrGet(ctx, tenantID, "k")
		require.NoError(t, err)

		// Tiny staleness budget so the abandoned PENDING row ages out.
		time.Sleep(10 * time.Millisecond)

		got, replayed, err := idempotency.Run(ctx, store, tenantID, "k", 5*time.Millisecond,
			func(ctx context.Context) (uuid.UUID, error) { return entityID, nil })
		require.NoError(t, err)
		assert.False(t, replayed)
		assert.Equal(t, entityID, got)
	})

	t.Run("zero staleAfter disables takeover", func(t *testing.T) {
		t.Parallel()
		store := idempotency.NewMemoryStore()
		tenantID := uuid.New()

		_, _, err := store.BeginOrGet(ctx, tenantID, "k")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		_, _, err = idempotency.Run(ctx, store, tenantID, "k", 0,
			func(ctx context.Context) (uuid.UUID, error) { return uuid.New(), nil })
		require.ErrorIs(t, err, idempotency.ErrInFlight)
	})

	t.Run("concurrent duplicates execute exactly once", func(t *testing.T) {
		t.Parallel()
		store := idempotency.NewMemoryStore()
		tenantID := uuid.New()
		entityID := uuid.New()

		const callers = 30
		var calls atomic.Int64
		var executed, conflicted, replayed atomic.Int64

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, wasReplay, err := idempotency.Run(ctx, store, tenantID, "k", idempotency.DefaultStaleAfter,
					func(ctx context.Context) (uuid.UUID, error) {
						calls.Add(1)
						return entityID, nil
					})
				switch {
				case errors.Is(err, idempotency.ErrInFlight):
					conflicted.Add(1)
				case err != nil:
					t.Error(err)
				case wasReplay:
					replayed.Add(1)
					if got != entityID {
						t.Errorf("replay returned %s, want %s", got, entityID)
					}
				default:
					executed.Add(1)
					if got != entityID {
						t.Errorf("execution returned %s, want %s", got, entityID)
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), calls.Load(), "mutation must run exactly once")
		assert.Equal(t, int64(1), executed.Load())
		assert.Equal(t, int64(callers), executed.Load()+conflicted.Load()+replayed.Load())
	})
}

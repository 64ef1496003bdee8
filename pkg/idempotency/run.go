package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultStaleAfter is how long a PENDING record may sit untouched before
// it is considered abandoned by a cancelled request and becomes eligible
// for takeover.
const DefaultStaleAfter = 15 * time.Minute

// Run executes fn at most once per (tenantID, key).
//
// The first caller wins the PENDING record and runs fn; its result is
// recorded as PROCESSED on success or FAILED on error. Replayed calls with
// the same key return the recorded result with replayed=true and never
// invoke fn. A key whose operation is still in flight returns ErrInFlight;
// FAILED records and PENDING records older than staleAfter are reclaimed
// and retried. staleAfter <= 0 disables takeover.
func Run(
	ctx context.Context,
	store Store,
	tenantID uuid.UUID,
	key string,
	staleAfter time.Duration,
	fn func(ctx context.Context) (uuid.UUID, error),
) (resultEntityID uuid.UUID, replayed bool, err error) {
	rec, isNew, err := store.BeginOrGet(ctx, tenantID, key)
	if err != nil {
		return uuid.UUID{}, false, err
	}

	if !isNew {
		switch rec.Status {
		case StatusProcessed:
			return rec.ResultEntityID, true, nil

		case StatusPending:
			if staleAfter <= 0 || time.Since(rec.UpdatedAt) < staleAfter {
				return uuid.UUID{}, false, ErrInFlight
			}
			claimed, err := store.Reclaim(ctx, tenantID, key, time.Now().Add(-staleAfter))
			if err != nil {
				return uuid.UUID{}, false, err
			}
			if !claimed {
				return uuid.UUID{}, false, ErrInFlight
			}

		case StatusFailed:
			// Zero cutoff: the claim rests on the FAILED status alone, so a
			// record a concurrent retry just reset to fresh PENDING can
			// never match as stale.
			claimed, err := store.Reclaim(ctx, tenantID, key, time.Time{})
			if err != nil {
				return uuid.UUID{}, false, err
			}
			if !claimed {
				// A concurrent retry won the claim or already finished.
				return uuid.UUID{}, false, ErrInFlight
			}
		}
	}

	entityID, err := fn(ctx)
	if err != nil {
		// The terminal transition must land even when fn failed because the
		// request context was cancelled, otherwise the key sits PENDING for
		// the full staleness window instead of being retryable at once.
		_ = store.Fail(context.WithoutCancel(ctx), tenantID, key)
		return uuid.UUID{}, false, err
	}

	if err := store.Complete(context.WithoutCancel(ctx), tenantID, key, entityID); err != nil {
		return uuid.UUID{}, false, err
	}
	return entityID, false, nil
}

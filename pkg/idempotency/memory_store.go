package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type recordKey struct {
	tenantID uuid.UUID
	key      string
}

// MemoryStore implements Store with a locked map, for single-process
// deployments and tests. Records are retained until Close so replays stay
// detectable for the process lifetime.
type MemoryStore struct {
	mu      sync.Mutex
	records map[recordKey]*Record
}

// NewMemoryStore creates an in-memory idempotency store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[recordKey]*Record),
	}
}

// BeginOrGet inserts a PENDING record or returns the existing one.
// Lookup and insert happen under one lock, so exactly one of N concurrent
// callers observes isNew.
func (ms *MemoryStore) BeginOrGet(ctx context.Context, tenantID uuid.UUID, key string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	if key == "" {
		return Record{}, false, ErrEmptyKey
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	k := recordKey{tenantID: tenantID, key: key}
	if rec, ok := ms.records[k]; ok {
		return *rec, false, nil
	}

	now := time.Now()
	rec := &Record{
		TenantID:  tenantID,
		Key:       key,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ms.records[k] = rec
	return *rec, true, nil
}

// Complete transitions a PENDING record to PROCESSED.
func (ms *MemoryStore) Complete(ctx context.Context, tenantID uuid.UUID, key string, resultEntityID uuid.UUID) error {
	return ms.transition(ctx, tenantID, key, func(rec *Record) {
		rec.Status = StatusProcessed
		rec.ResultEntityID = resultEntityID
	})
}

// Fail transitions a PENDING record to FAILED.
func (ms *MemoryStore) Fail(ctx context.Context, tenantID uuid.UUID, key string) error {
	return ms.transition(ctx, tenantID, key, func(rec *Record) {
		rec.Status = StatusFailed
	})
}

func (ms *MemoryStore) transition(ctx context.Context, tenantID uuid.UUID, key string, apply func(*Record)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec, ok := ms.records[recordKey{tenantID: tenantID, key: key}]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != StatusPending {
		return ErrNotPending
	}

	apply(rec)
	rec.UpdatedAt = time.Now()
	return nil
}

// Reclaim takes ownership of a FAILED or stale PENDING record.
func (ms *MemoryStore) Reclaim(ctx context.Context, tenantID uuid.UUID, key string, staleBefore time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec, ok := ms.records[recordKey{tenantID: tenantID, key: key}]
	if !ok {
		return false, ErrNotFound
	}

	reclaimable := rec.Status == StatusFailed ||
		(rec.Status == StatusPending && rec.UpdatedAt.Before(staleBefore))
	if !reclaimable {
		return false, nil
	}

	rec.Status = StatusPending
	rec.ResultEntityID = uuid.UUID{}
	rec.UpdatedAt = time.Now()
	return true, nil
}

package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an idempotency record.
type Status string

const (
	// StatusPending marks an operation currently in flight.
	StatusPending Status = "PENDING"
	// StatusProcessed marks a terminally completed operation.
	StatusProcessed Status = "PROCESSED"
	// StatusFailed marks a failed operation eligible for retry with the
	// same key.
	StatusFailed Status = "FAILED"
)

// Record is the durable outcome row for one (tenant, key) pair.
type Record struct {
	TenantID       uuid.UUID
	Key            string
	Status         Status
	ResultEntityID uuid.UUID // zero until StatusProcessed
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Store is the durable key-to-outcome mapping.
//
// All per-key transitions are atomic: of N concurrent BeginOrGet calls for
// the same absent key, exactly one observes isNew, and at most one
// concurrent Reclaim caller wins a claim.
type Store interface {
	// BeginOrGet atomically inserts a PENDING record for (tenantID, key)
	// or returns the existing record. isNew reports whether this caller
	// created the record and therefore owns the execution.
	BeginOrGet(ctx context.Context, tenantID uuid.UUID, key string) (rec Record, isNew bool, err error)

	// Complete transitions a PENDING record to PROCESSED, recording the
	// result. Returns ErrNotPending if the record is in any other state.
	Complete(ctx context.Context, tenantID uuid.UUID, key string, resultEntityID uuid.UUID) error

	// Fail transitions a PENDING record to FAILED, permitting a later
	// retry with the same key. Returns ErrNotPending if the record is in
	// any other state.
	Fail(ctx context.Context, tenantID uuid.UUID, key string) error

	// Reclaim atomically takes ownership of a FAILED record, or of a
	// PENDING record last updated before staleBefore (abandoned by a
	// cancelled request), by resetting it to a fresh PENDING state.
	// A zero staleBefore claims FAILED records only, so a record a
	// concurrent caller just reset never matches as stale. Returns false
	// when the record is PROCESSED, actively PENDING, or was claimed by a
	// concurrent caller.
	Reclaim(ctx context.Context, tenantID uuid.UUID, key string, staleBefore time.Time) (claimed bool, err error)
}

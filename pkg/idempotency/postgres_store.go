package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on the shared datastore, so the
// exactly-once guarantee holds across multiple server instances.
// Atomicity rests on the (tenant_id, key) primary key and conditional
// UPDATEs; no read-then-write happens outside a single statement.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed idempotency store.
// The idempotency_keys table is created by migrations.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// BeginOrGet inserts a PENDING row or returns the existing one.
// The unique-constraint-backed insert guarantees exactly one of N
// concurrent callers observes isNew.
func (ps *PostgresStore) BeginOrGet(ctx context.Context, tenantID uuid.UUID, key string) (Record, bool, error) {
	if key == "" {
		return Record{}, false, ErrEmptyKey
	}

	var rec Record
	err := ps.pool.QueryRow(ctx, `
		INSERT INTO idempotency_keys (tenant_id, key, status, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (tenant_id, key) DO NOTHING
		RETURNING tenant_id, key, status, created_at, updated_at`,
		tenantID, key, StatusPending,
	).Scan(&rec.TenantID, &rec.Key, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, errors.Join(ErrStoreUnavailable, err)
	}

	// Insert conflicted: read the winner's record.
	rec, err = ps.get(ctx, tenantID, key)
	if err != nil {
		return Record{}, false, err
	}
	return rec, false, nil
}

func (ps *PostgresStore) get(ctx context.Context, tenantID uuid.UUID, key string) (Record, error) {
	var (
		rec      Record
		resultID *uuid.UUID
	)
	err := ps.pool.QueryRow(ctx, `
		SELECT tenant_id, key, status, result_entity_id, created_at, updated_at
		FROM idempotency_keys
		WHERE tenant_id = $1 AND key = $2`,
		tenantID, key,
	).Scan(&rec.TenantID, &rec.Key, &rec.Status, &resultID, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, errors.Join(ErrStoreUnavailable, err)
	}
	if resultID != nil {
		rec.ResultEntityID = *resultID
	}
	return rec, nil
}

// Complete transitions a PENDING row to PROCESSED, recording the result.
func (ps *PostgresStore) Complete(ctx context.Context, tenantID uuid.UUID, key string, resultEntityID uuid.UUID) error {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $3, result_entity_id = $4, updated_at = now()
		WHERE tenant_id = $1 AND key = $2 AND status = $5`,
		tenantID, key, StatusProcessed, resultEntityID, StatusPending,
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// Fail transitions a PENDING row to FAILED.
func (ps *PostgresStore) Fail(ctx context.Context, tenantID uuid.UUID, key string) error {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $3, updated_at = now()
		WHERE tenant_id = $1 AND key = $2 AND status = $4`,
		tenantID, key, StatusFailed, StatusPending,
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// Reclaim takes ownership of a FAILED or stale PENDING row.
// The conditional UPDATE is the atomic claim: of N concurrent callers at
// most one sees an affected row.
func (ps *PostgresStore) Reclaim(ctx context.Context, tenantID uuid.UUID, key string, staleBefore time.Time) (bool, error) {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $3, result_entity_id = NULL, updated_at = now()
		WHERE tenant_id = $1 AND key = $2
		  AND (status = $4 OR (status = $3 AND updated_at < $5))`,
		tenantID, key, StatusPending, StatusFailed, staleBefore,
	)
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return tag.RowsAffected() == 1, nil
}

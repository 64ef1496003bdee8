package provisioning

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/opsdeck/pkg/pg"
	"github.com/opsdeck/opsdeck/pkg/tenantctx"
	"github.com/opsdeck/opsdeck/pkg/tenantfilter"
)

// PostgresRepository persists entities and presets with mandatory tenant
// scoping. Reads compose their predicates through the filter builder;
// writes stamp the tenant from the bound context.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	filter *tenantfilter.Builder
}

// NewPostgresRepository creates the production repository.
func NewPostgresRepository(pool *pgxpool.Pool, filter *tenantfilter.Builder) *PostgresRepository {
	return &PostgresRepository{pool: pool, filter: filter}
}

// CreateEntity inserts an entity owned by the bound tenant.
func (r *PostgresRepository) CreateEntity(ctx context.Context, e Entity) error {
	tc, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO entities (id, tenant_id, name, kind, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, tc.TenantID, e.Name, e.Kind, e.CreatedBy, e.CreatedAt,
	)
	return err
}

// GetEntity loads one entity within the caller's tenant.
func (r *PostgresRepository) GetEntity(ctx context.Context, id uuid.UUID) (Entity, error) {
	where, args, err := r.filter.Scope(ctx, "id = $1", id)
	if err != nil {
		return Entity{}, err
	}

	var e Entity
	err = r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, kind, created_by, created_at
		FROM entities WHERE `+where,
		args...,
	).Scan(&e.ID, &e.TenantID, &e.Name, &e.Kind, &e.CreatedBy, &e.CreatedAt)
	if pg.IsNotFound(err) {
		return Entity{}, ErrEntityNotFound
	}
	if err != nil {
		return Entity{}, err
	}
	return e, nil
}

// ListEntities returns the caller's tenant's entities, newest first.
func (r *PostgresRepository) ListEntities(ctx context.Context) ([]Entity, error) {
	where, args, err := r.filter.Scope(ctx, "")
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, name, kind, created_by, created_at
		FROM entities WHERE `+where+` ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Name, &e.Kind, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// CreatePreset inserts a preset owned by the bound tenant.
func (r *PostgresRepository) CreatePreset(ctx context.Context, p Preset) error {
	tc, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO presets (id, tenant_id, name, service, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, tc.TenantID, p.Name, p.Service, p.CreatedBy, p.CreatedAt,
	)
	return err
}

// ListPresets returns the caller's tenant's presets, newest first.
func (r *PostgresRepository) ListPresets(ctx context.Context) ([]Preset, error) {
	where, args, err := r.filter.Scope(ctx, "")
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, name, service, created_by, created_at
		FROM presets WHERE `+where+` ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []Preset
	for rows.Next() {
		var p Preset
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Service, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

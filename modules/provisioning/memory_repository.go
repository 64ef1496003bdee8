package provisioning

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/pkg/tenantctx"
)

// MemoryRepository is an in-memory Repository for tests and local
// development. It enforces the same tenant scoping discipline as the
// Postgres implementation: no bound tenant, no data.
type MemoryRepository struct {
	mu       sync.RWMutex
	entities map[uuid.UUID]Entity
	presets  map[uuid.UUID]Preset
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entities: make(map[uuid.UUID]Entity),
		presets:  make(map[uuid.UUID]Preset),
	}
}

func requireTenant(ctx context.Context) (uuid.UUID, error) {
	tc, err := tenantctx.Require(ctx)
	if err != nil {
		return uuid.UUID{}, err
	}
	return tc.TenantID, nil
}

func (r *MemoryRepository) CreateEntity(ctx context.Context, e Entity) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e.TenantID = tenantID
	r.entities[e.ID] = e
	return nil
}

func (r *MemoryRepository) GetEntity(ctx context.Context, id uuid.UUID) (Entity, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return Entity{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	if !ok || e.TenantID != tenantID {
		return Entity{}, ErrEntityNotFound
	}
	return e, nil
}

func (r *MemoryRepository) ListEntities(ctx context.Context) ([]Entity, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entity
	for _, e := range r.entities {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b Entity) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) CreatePreset(ctx context.Context, p Preset) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p.TenantID = tenantID
	r.presets[p.ID] = p
	return nil
}

func (r *MemoryRepository) ListPresets(ctx context.Context) ([]Preset, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Preset
	for _, p := range r.presets {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Preset) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

package provisioning

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the tenant-scoped persistence boundary for the module.
//
// Implementations derive the tenant from the bound context on every call
// and fail closed when none is bound; callers never pass a tenant ID
// explicitly.
type Repository interface {
	CreateEntity(ctx context.Context, e Entity) error
	GetEntity(ctx context.Context, id uuid.UUID) (Entity, error)
	ListEntities(ctx context.Context) ([]Entity, error)

	CreatePreset(ctx context.Context, p Preset) error
	ListPresets(ctx context.Context) ([]Preset, error)
}

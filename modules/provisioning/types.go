package provisioning

import (
	"time"

	"github.com/google/uuid"
)

// Entity is a provisioned business entity (company, branch, practice)
// owned by exactly one tenant.
type Entity struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Preset is a reusable service configuration template within a tenant.
type Preset struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Service   string    `json:"service"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// SetupEntityRequest is the wizard submission payload.
// IdempotencyKey is a client-generated UUID identifying this logical
// attempt; resubmitting after a crash or timeout with the same key returns
// the originally created entity.
type SetupEntityRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
}

// SetupEntityResult carries the created (or replayed) entity ID.
type SetupEntityResult struct {
	EntityID uuid.UUID `json:"entity_id"`
	Replayed bool      `json:"replayed"`
}

// CreatePresetRequest is the preset creation payload.
type CreatePresetRequest struct {
	Name    string `json:"name"`
	Service string `json:"service"`
}

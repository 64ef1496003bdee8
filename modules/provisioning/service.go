package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/pkg/idempotency"
	"github.com/opsdeck/opsdeck/pkg/rbac"
	"github.com/opsdeck/opsdeck/pkg/tenantctx"
)

// Service implements the module's operations on top of the pipeline
// primitives. Permission checks run after context binding and before any
// mutating data access.
type Service struct {
	repo       Repository
	idem       idempotency.Store
	perms      *rbac.Evaluator
	staleAfter time.Duration
	log        *slog.Logger
}

// NewService wires the provisioning service.
func NewService(repo Repository, idem idempotency.Store, perms *rbac.Evaluator, cfg Config, log *slog.Logger) *Service {
	staleAfter := cfg.IdempotencyStaleAfter
	if staleAfter == 0 {
		staleAfter = idempotency.DefaultStaleAfter
	}
	return &Service{
		repo:       repo,
		idem:       idem,
		perms:      perms,
		staleAfter: staleAfter,
		log:        log,
	}
}

// SetupEntity provisions a business entity exactly once per idempotency
// key. Replays return the originally created entity without re-executing
// the mutation.
func (s *Service) SetupEntity(ctx context.Context, req SetupEntityRequest) (SetupEntityResult, error) {
	if err := validateSetupEntity(req); err != nil {
		return SetupEntityResult{}, err
	}

	if err := s.perms.CanCtx(ctx, "entities.create"); err != nil {
		return SetupEntityResult{}, err
	}

	tc, err := tenantctx.Require(ctx)
	if err != nil {
		return SetupEntityResult{}, err
	}

	entityID, replayed, err := idempotency.Run(ctx, s.idem, tc.TenantID, req.IdempotencyKey, s.staleAfter,
		func(ctx context.Context) (uuid.UUID, error) {
			e := Entity{
				ID:        uuid.New(),
				TenantID:  tc.TenantID,
				Name:      req.Name,
				Kind:      req.Kind,
				CreatedBy: tc.UserID,
				CreatedAt: time.Now(),
			}
			if err := s.repo.CreateEntity(ctx, e); err != nil {
				return uuid.UUID{}, err
			}
			s.log.InfoContext(ctx, "entity provisioned",
				slog.String("entity_id", e.ID.String()),
				slog.String("kind", e.Kind),
			)
			return e.ID, nil
		},
	)
	if err != nil {
		return SetupEntityResult{}, err
	}

	return SetupEntityResult{EntityID: entityID, Replayed: replayed}, nil
}

// GetEntity loads one entity within the caller's tenant.
func (s *Service) GetEntity(ctx context.Context, id uuid.UUID) (Entity, error) {
	if err := s.perms.CanCtx(ctx, "entities.read"); err != nil {
		return Entity{}, err
	}
	return s.repo.GetEntity(ctx, id)
}

// ListEntities returns the caller's tenant's entities.
func (s *Service) ListEntities(ctx context.Context) ([]Entity, error) {
	if err := s.perms.CanCtx(ctx, "entities.read"); err != nil {
		return nil, err
	}
	return s.repo.ListEntities(ctx)
}

// CreatePreset creates a service preset within the caller's tenant.
func (s *Service) CreatePreset(ctx context.Context, req CreatePresetRequest) (Preset, error) {
	if err := validateCreatePreset(req); err != nil {
		return Preset{}, err
	}

	if err := s.perms.CanCtx(ctx, "presets.create"); err != nil {
		return Preset{}, err
	}

	tc, err := tenantctx.Require(ctx)
	if err != nil {
		return Preset{}, err
	}

	p := Preset{
		ID:        uuid.New(),
		TenantID:  tc.TenantID,
		Name:      req.Name,
		Service:   req.Service,
		CreatedBy: tc.UserID,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreatePreset(ctx, p); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// ListPresets returns the caller's tenant's presets.
func (s *Service) ListPresets(ctx context.Context) ([]Preset, error) {
	if err := s.perms.CanCtx(ctx, "presets.read"); err != nil {
		return nil, err
	}
	return s.repo.ListPresets(ctx)
}

func validateSetupEntity(req SetupEntityRequest) error {
	if _, err := uuid.Parse(req.IdempotencyKey); err != nil {
		return fmt.Errorf("%w: idempotency_key must be a UUID", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Kind) == "" {
		return fmt.Errorf("%w: kind is required", ErrInvalidRequest)
	}
	return nil
}

func validateCreatePreset(req CreatePresetRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Service) == "" {
		return fmt.Errorf("%w: service is required", ErrInvalidRequest)
	}
	return nil
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

package provisioning

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/pkg/httperr"
	"github.com/opsdeck/opsdeck/pkg/idempotency"
	"github.com/opsdeck/opsdeck/pkg/ratelimit"
	"github.com/opsdeck/opsdeck/pkg/rbac"
	"github.com/opsdeck/opsdeck/pkg/tenantctx"
	"github.com/opsdeck/opsdeck/pkg/tenantfilter"
)

// RouterDeps carries the pipeline pieces the router composes per route.
type RouterDeps struct {
	Service *Service

	// Binder is the tenant context middleware; every route runs behind it.
	Binder func(http.Handler) http.Handler

	// EntitySetupLimiter and PresetCreateLimiter apply the module's
	// operation-class rate limits, keyed per authenticated user.
	EntitySetupLimiter  *ratelimit.Limiter
	PresetCreateLimiter *ratelimit.Limiter

	Log *slog.Logger
}

// Router assembles the module routes with the full pipeline: bind context,
// rate limit, then handle (which gates on permissions and idempotency).
func Router(deps RouterDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(deps.Binder)

	entityLimit := ratelimit.Middleware(deps.EntitySetupLimiter,
		ratelimit.Key("entity-setup", ratelimit.ByUser(), ratelimit.ByClientIP()), deps.Log)
	presetLimit := ratelimit.Middleware(deps.PresetCreateLimiter,
		ratelimit.Key("preset-create", ratelimit.ByUser(), ratelimit.ByClientIP()), deps.Log)

	r.With(entityLimit).Post("/entities", deps.handleSetupEntity)
	r.Get("/entities", deps.handleListEntities)
	r.Get("/entities/{id}", deps.handleGetEntity)

	r.With(presetLimit).Post("/presets", deps.handleCreatePreset)
	r.Get("/presets", deps.handleListPresets)

	return r
}

func (d RouterDeps) handleSetupEntity(w http.ResponseWriter, r *http.Request) {
	var req SetupEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Respond(r.Context(), w, d.Log, httperr.Wrap(httperr.KindValidation, "malformed request body", err))
		return
	}
	// The key may also travel as a header, the convention offline queues use.
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}

	res, err := d.Service.SetupEntity(r.Context(), req)
	if err != nil {
		d.respondError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	d.respondJSON(w, r, status, res)
}

func (d RouterDeps) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httperr.Respond(r.Context(), w, d.Log, httperr.Wrap(httperr.KindValidation, "invalid entity id", err))
		return
	}

	e, err := d.Service.GetEntity(r.Context(), id)
	if err != nil {
		d.respondError(w, r, err)
		return
	}
	d.respondJSON(w, r, http.StatusOK, e)
}

func (d RouterDeps) handleListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := d.Service.ListEntities(r.Context())
	if err != nil {
		d.respondError(w, r, err)
		return
	}
	if entities == nil {
		entities = []Entity{}
	}
	d.respondJSON(w, r, http.StatusOK, entities)
}

func (d RouterDeps) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	var req CreatePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Respond(r.Context(), w, d.Log, httperr.Wrap(httperr.KindValidation, "malformed request body", err))
		return
	}

	p, err := d.Service.CreatePreset(r.Context(), req)
	if err != nil {
		d.respondError(w, r, err)
		return
	}
	d.respondJSON(w, r, http.StatusCreated, p)
}

func (d RouterDeps) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := d.Service.ListPresets(r.Context())
	if err != nil {
		d.respondError(w, r, err)
		return
	}
	if presets == nil {
		presets = []Preset{}
	}
	d.respondJSON(w, r, http.StatusOK, presets)
}

func (d RouterDeps) respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Log.ErrorContext(r.Context(), "failed to encode response", slog.Any("error", err))
	}
}

// respondError translates module and pipeline errors into the platform
// taxonomy at the transport boundary.
func (d RouterDeps) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var he error
	switch {
	case IsValidation(err):
		he = httperr.Wrap(httperr.KindValidation, err.Error(), err)
	case errors.Is(err, rbac.ErrPermissionDenied), errors.Is(err, rbac.ErrUnknownRole):
		he = httperr.Wrap(httperr.KindForbidden, "access denied", err)
	case errors.Is(err, tenantctx.ErrNoContext), errors.Is(err, tenantfilter.ErrNoTenant):
		he = httperr.Wrap(httperr.KindUnauthenticated, "authentication required", err)
	case errors.Is(err, idempotency.ErrInFlight):
		he = httperr.Wrap(httperr.KindConflict, "operation already in flight", err).
			WithMeta(map[string]any{"status": string(idempotency.StatusPending)})
	case errors.Is(err, ErrEntityNotFound):
		he = httperr.Wrap(httperr.KindNotFound, "entity not found", err)
	default:
		he = httperr.Wrap(httperr.KindInternal, "operation failed", err)
	}
	httperr.Respond(r.Context(), w, d.Log, he)
}

package tenantctx

import (
	"errors"
	"net/http"

	"github.com/opsdeck/opsdeck/pkg/httperr"
)

// Middleware creates the request binder: it authenticates the caller,
// resolves tenant membership, enforces role restrictions, and binds the
// resulting Context to the request for the duration of the handler.
//
// The binding lives on the derived request context, so it is released on
// every exit path (return, panic recovery upstream, client disconnect)
// and never leaks into other requests.
func Middleware(auth Authenticator, memberships MembershipResolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := auth.Authenticate(r)
			if err != nil {
				if cfg.requireAuth {
					httperr.Respond(r.Context(), w, cfg.log, classify(err))
					return
				}
				// Public endpoint: run with no bound identity. Require()
				// downstream still fails closed.
				next.ServeHTTP(w, r)
				return
			}

			tc := Context{
				UserID:       identity.UserID,
				IsSuperAdmin: identity.IsSuperAdmin,
			}

			membership, err := memberships.Resolve(r.Context(), identity.UserID)
			switch {
			case err == nil:
				tc.TenantID = membership.TenantID
				tc.Role = membership.Role
			case errors.Is(err, ErrTenantRequired) && (identity.IsSuperAdmin || !cfg.requireTenant):
				// Super admins and single-tenant deployments operate
				// without a membership row.
			default:
				httperr.Respond(r.Context(), w, cfg.log, classify(err))
				return
			}

			if !tc.IsSuperAdmin && !cfg.roleAllowed(tc.Role) {
				httperr.Respond(r.Context(), w, cfg.log, classify(ErrRoleNotAllowed))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
		})
	}
}

// classify translates package sentinel errors into the platform taxonomy.
// Anything unrecognized is an internal failure, never a permissive outcome.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrNoContext), errors.Is(err, ErrInvalidToken):
		return httperr.Wrap(httperr.KindUnauthenticated, "authentication required", err)
	case errors.Is(err, ErrTenantRequired):
		return httperr.Wrap(httperr.KindTenantRequired, "tenant membership required", err)
	case errors.Is(err, ErrRoleNotAllowed):
		return httperr.Wrap(httperr.KindForbidden, "access denied", err)
	default:
		return httperr.Wrap(httperr.KindInternal, "tenant context resolution failed", err)
	}
}

// Package tenantctx binds an authenticated request to an immutable
// tenant/user/role context for the lifetime of that request.
//
// The context value travels on the request's context.Context, so any code
// reached from the handler (services, repositories, spawned goroutines that
// inherit the context) can retrieve it without explicit parameter threading
// through layers that don't need it. Retrieval fails closed: Require returns
// an unauthenticated error when no context is bound, never a permissive
// default.
//
// Basic usage:
//
//	binder := tenantctx.Middleware(authenticator, memberships,
//		tenantctx.WithAllowedRoles("ADMIN", "STAFF"),
//	)
//
//	r.With(binder).Post("/entities", func(w http.ResponseWriter, r *http.Request) {
//		tc, err := tenantctx.Require(r.Context())
//		if err != nil {
//			// unreachable behind the binder, but fail closed anyway
//		}
//		_ = tc.TenantID
//	})
//
// A nested call that needs a different tenant must construct and bind a new
// Context explicitly; the bound value itself is never rebound or mutated.
package tenantctx

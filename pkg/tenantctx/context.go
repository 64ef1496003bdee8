package tenantctx

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context carries the tenant/user/role identity for one logical request.
// It is stored by value and never mutated after binding; code that needs a
// different tenant must build and bind a new Context explicitly.
type Context struct {
	TenantID     uuid.UUID // zero for public endpoints and single-tenant deployments
	UserID       uuid.UUID // zero for unauthenticated public endpoints
	Role         string    // role label within the tenant, e.g. ADMIN/STAFF/CLIENT
	IsSuperAdmin bool      // break-glass flag, bypasses permission evaluation
}

// Authenticated reports whether the context carries a resolved user identity.
func (c Context) Authenticated() bool {
	return c.UserID != uuid.Nil
}

// HasTenant reports whether the context is scoped to a tenant.
func (c Context) HasTenant() bool {
	return c.TenantID != uuid.Nil
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithContext binds a tenant context to ctx for the current request's
// call graph.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext retrieves the bound tenant context.
// Returns the zero Context and false when nothing is bound.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(Context)
	return tc, ok
}

// Require retrieves the bound tenant context or fails with ErrNoContext.
// Data-access helpers call this so a missing binding surfaces as an
// authentication failure instead of an unscoped query.
func Require(ctx context.Context) (Context, error) {
	tc, ok := FromContext(ctx)
	if !ok {
		return Context{}, ErrNoContext
	}
	return tc, nil
}

// TenantID returns the bound tenant ID.
// Returns the zero UUID and false when no context is bound or the context
// has no tenant.
func TenantID(ctx context.Context) (uuid.UUID, bool) {
	tc, ok := FromContext(ctx)
	if !ok || !tc.HasTenant() {
		return uuid.UUID{}, false
	}
	return tc.TenantID, true
}

// LoggerExtractor returns a logger ContextExtractor that annotates log
// records with the bound tenant and user IDs.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		tc, ok := FromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		attrs := make([]slog.Attr, 0, 2)
		if tc.HasTenant() {
			attrs = append(attrs, slog.String("tenant_id", tc.TenantID.String()))
		}
		if tc.Authenticated() {
			attrs = append(attrs, slog.String("user_id", tc.UserID.String()))
		}
		if len(attrs) == 0 {
			return slog.Attr{}, false
		}
		return slog.Attr{Key: "identity", Value: slog.GroupValue(attrs...)}, true
	}
}

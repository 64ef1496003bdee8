package tenantctx

import (
	"log/slog"
	"slices"
)

// config holds the binder configuration assembled from options.
// Defaults are the safe ones: authentication and tenant membership are
// both mandatory unless explicitly relaxed.
type config struct {
	requireAuth   bool
	requireTenant bool
	allowedRoles  []string
	log           *slog.Logger
}

func defaultConfig() *config {
	return &config{
		requireAuth:   true,
		requireTenant: true,
	}
}

func (c *config) roleAllowed(role string) bool {
	if len(c.allowedRoles) == 0 {
		return true
	}
	return slices.Contains(c.allowedRoles, role)
}

// Option configures the binder middleware.
type Option func(*config)

// WithOptionalAuth allows unauthenticated requests through the binder.
// The handler runs with no bound identity; data access that calls Require
// still fails closed.
func WithOptionalAuth() Option {
	return func(c *config) { c.requireAuth = false }
}

// WithAllowedRoles restricts the endpoint to the given role labels.
// Super admins bypass the restriction. Empty strings are dropped.
func WithAllowedRoles(roles ...string) Option {
	return func(c *config) {
		for _, r := range roles {
			if r != "" {
				c.allowedRoles = append(c.allowedRoles, r)
			}
		}
	}
}

// WithTenantOptional makes tenant membership optional, for single-tenant
// deployments where the multi-tenancy switch is off.
func WithTenantOptional() Option {
	return func(c *config) { c.requireTenant = false }
}

// WithLogger sets the logger used for error responses.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

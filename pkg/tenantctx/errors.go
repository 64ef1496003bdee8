package tenantctx

import "errors"

var (
	// ErrNoContext is returned when no tenant context is bound to the
	// current request.
	ErrNoContext = errors.New("tenantctx: no tenant context bound")

	// ErrUnauthenticated is returned when identity resolution fails for a
	// request that requires authentication.
	ErrUnauthenticated = errors.New("tenantctx: unauthenticated")

	// ErrTenantRequired is returned when an authenticated identity has no
	// tenant membership and the deployment mandates multi-tenancy.
	ErrTenantRequired = errors.New("tenantctx: tenant membership required")

	// ErrRoleNotAllowed is returned when the resolved role is not in the
	// binder's allowed set.
	ErrRoleNotAllowed = errors.New("tenantctx: role not allowed")

	// ErrInvalidToken is returned when the bearer credential cannot be
	// verified.
	ErrInvalidToken = errors.New("tenantctx: invalid token")

	// ErrMembershipLookup is returned when the membership store fails.
	// It is an internal failure, distinct from "no membership".
	ErrMembershipLookup = errors.New("tenantctx: membership lookup failed")
)

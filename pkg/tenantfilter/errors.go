package tenantfilter

import "errors"

var (
	// ErrNoTenant is returned when the bound context carries no tenant and
	// the deployment requires tenant scoping.
	ErrNoTenant = errors.New("tenantfilter: no tenant in bound context")
)

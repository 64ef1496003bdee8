package rbac

import "errors"

var (
	// ErrUnknownRole is returned when a role is not in the table.
	ErrUnknownRole = errors.New("rbac: unknown role")

	// ErrPermissionDenied is returned when the role lacks the required
	// permission.
	ErrPermissionDenied = errors.New("rbac: permission denied")

	// ErrCircularInheritance is returned for cyclic role inheritance.
	ErrCircularInheritance = errors.New("rbac: circular role inheritance")
)

package provisioning

import "errors"

var (
	// ErrEntityNotFound is returned when no entity matches within the
	// caller's tenant.
	ErrEntityNotFound = errors.New("provisioning: entity not found")

	// ErrInvalidRequest is returned for malformed payloads.
	ErrInvalidRequest = errors.New("provisioning: invalid request")
)

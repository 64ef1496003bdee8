package ratelimit

import "errors"

var (
	// ErrInvalidConfig indicates a non-positive limit or window.
	ErrInvalidConfig = errors.New("ratelimit: invalid configuration")

	// ErrEmptyKey indicates an empty rate limit key.
	ErrEmptyKey = errors.New("ratelimit: empty key")

	// ErrStoreUnavailable indicates the backing store could not be reached.
	// Callers must treat this as a server failure, not as an allow.
	ErrStoreUnavailable = errors.New("ratelimit: store unavailable")
)

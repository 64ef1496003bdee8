package idempotency

import "errors"

var (
	// ErrInFlight is returned when the key's operation is already being
	// executed by another caller. Surfaces as a conflict, never as a
	// silent re-execution.
	ErrInFlight = errors.New("idempotency: operation already in flight")

	// ErrNotFound is returned when no record exists for the key.
	ErrNotFound = errors.New("idempotency: record not found")

	// ErrNotPending is returned when completing or failing a record that
	// is not in the PENDING state. Keeps PROCESSED terminal.
	ErrNotPending = errors.New("idempotency: record is not pending")

	// ErrEmptyKey is returned for an empty idempotency key.
	ErrEmptyKey = errors.New("idempotency: empty key")

	// ErrStoreUnavailable indicates the backing store could not be
	// reached. Never interpreted as "execute anyway".
	ErrStoreUnavailable = errors.New("idempotency: store unavailable")
)

package httperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure into the platform's error taxonomy.
// Inner packages raise typed errors; the request binder is the only
// place that maps a Kind to a transport-level response.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindTenantRequired  Kind = "tenant_required"
	KindForbidden       Kind = "forbidden"
	KindRateLimited     Kind = "rate_limited"
	KindConflict        Kind = "conflict"
	KindValidation      Kind = "validation_failed"
	KindNotFound        Kind = "not_found"
	KindInternal        Kind = "internal"
)

// Error is a classified error carrying a machine-readable kind, a
// human-readable message, and optional response metadata.
type Error struct {
	Kind    Kind
	Message string
	Meta    map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// StatusCode maps the error kind to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindTenantRequired:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error preserving the underlying cause
// for errors.Is/As inspection.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithMeta returns a copy of the error with additional response metadata.
// Metadata is included in the JSON body, letting a Conflict response carry
// the previously recorded outcome so retrying clients can reconcile.
func (e *Error) WithMeta(meta map[string]any) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Meta: meta, cause: e.cause}
}

// KindOf extracts the taxonomy kind from an arbitrary error.
// Unclassified errors are treated as internal failures.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindInternal
}

// As extracts the classified error from an error chain, or wraps an
// unclassified error as internal so plumbing failures are never
// interpreted as permissive outcomes.
func As(err error) *Error {
	var he *Error
	if errors.As(err, &he) {
		return he
	}
	return Wrap(KindInternal, "internal error", err)
}

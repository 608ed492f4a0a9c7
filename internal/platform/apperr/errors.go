// Package apperr is the shared error taxonomy: every domain fault is a
// typed value carrying an error kind, never a bare string or a panic. The
// HTTP layer (internal/platform/httpserver) maps kind to status code.
package apperr

import "fmt"

// Kind classifies an Error for transport mapping and retry decisions.
type Kind string

const (
	KindValidation             Kind = "VALIDATION"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindInsufficientFunds      Kind = "INSUFFICIENT_FUNDS"
	KindLimitExceeded          Kind = "LIMIT_EXCEEDED"
	KindNotFound               Kind = "NOT_FOUND"
	KindDuplicate              Kind = "DUPLICATE"
	KindIdempotencyReplay      Kind = "IDEMPOTENCY_REPLAY"
	KindUnauthenticated        Kind = "UNAUTHENTICATED"
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindRateLimited            Kind = "RATE_LIMITED"
	KindConcurrency            Kind = "CONCURRENCY"
	KindDependency             Kind = "DEPENDENCY"
	KindCompensation           Kind = "COMPENSATION"
)

// Error is the single error type carried across every component boundary;
// Kind drives HTTP status mapping.
type Error struct {
	Kind       Kind
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.EntityType)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind.
func New(kind Kind, entityType, code, title, message string) *Error {
	return &Error{Kind: kind, EntityType: entityType, Code: code, Title: title, Message: message}
}

// Wrap builds an *Error of the given kind around an underlying cause.
func Wrap(kind Kind, entityType string, err error) *Error {
	return &Error{Kind: kind, EntityType: entityType, Err: err}
}

// NotFound is a convenience constructor for the most common lookup failure.
func NotFound(entityType, id string) *Error {
	return &Error{
		Kind:       KindNotFound,
		EntityType: entityType,
		Code:       "ENTITY_NOT_FOUND",
		Title:      "Entity Not Found",
		Message:    fmt.Sprintf("no %s found for id %q", entityType, id),
	}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *apperr.Error; ok is false for plain errors, which callers should treat as
// KindDependency/internal.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if ok := as(err, &e); ok {
		return e.Kind, true
	}

	return "", false
}

func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}

		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}

		err = u.Unwrap()
	}

	return false
}

package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping and retry policy.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindDependencyUnavailable
	KindTransient
)

// Error is the application error type. Kind drives the HTTP status,
// Op names the operation that failed, Detail is safe to show to users.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can use errors.Is with sentinel kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

func newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Validationf builds a validation error (HTTP 422).
func Validationf(op, format string, args ...interface{}) *Error {
	return newf(KindValidation, op, format, args...)
}

// Authf builds an authentication error (HTTP 401).
func Authf(op, format string, args ...interface{}) *Error {
	return newf(KindAuth, op, format, args...)
}

// Forbiddenf builds a cross-user access error (HTTP 403).
func Forbiddenf(op, format string, args ...interface{}) *Error {
	return newf(KindForbidden, op, format, args...)
}

// NotFoundf builds a missing-entity error (HTTP 404).
func NotFoundf(op, format string, args ...interface{}) *Error {
	return newf(KindNotFound, op, format, args...)
}

// Conflictf builds a unique-key violation error (HTTP 409).
func Conflictf(op, format string, args ...interface{}) *Error {
	return newf(KindConflict, op, format, args...)
}

// Dependencyf builds an upstream-unavailable error (HTTP 502).
func Dependencyf(op, format string, args ...interface{}) *Error {
	return newf(KindDependencyUnavailable, op, format, args...)
}

// Transientf builds a retryable error (HTTP 503 + Retry-After).
func Transientf(op, format string, args ...interface{}) *Error {
	return newf(KindTransient, op, format, args...)
}

// Internal wraps a programming or infrastructure error (HTTP 500).
// The wrapped error is never shown to users.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf extracts the Kind from any error chain; unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// UserMessage returns the part of the error safe to surface to clients.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindInternal {
			return "internal error"
		}
		if e.Detail != "" {
			return e.Detail
		}
		return e.Op
	}
	return "internal error"
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependencyUnavailable:
		return http.StatusBadGateway
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

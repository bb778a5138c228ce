// Package apperr defines the failure kinds surfaced by services to the transport layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure independently of the transport.
type Kind int

const (
	// KindInternal covers store failures and anything unclassified.
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	// KindBadRequest is a well-formed request the current state rejects.
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_FAILED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindBadRequest:
		return "BAD_REQUEST"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is a tagged failure. Message is safe to show to clients; Err is the cause, if any.
// Fields carries per-field validation messages.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput reports a validation failure with per-field messages.
func InvalidInput(fields map[string]string) *Error {
	e := newf(KindValidation, "Invalid input, check data.")
	e.Fields = fields
	return e
}

// NotFound reports an identifier that does not resolve to a record.
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

// Conflict reports a membership or uniqueness violation.
func Conflict(format string, args ...any) *Error { return newf(KindConflict, format, args...) }

// Unauthorized reports missing or rejected credentials.
func Unauthorized(format string, args ...any) *Error { return newf(KindUnauthorized, format, args...) }

// Forbidden reports an authenticated caller lacking permission.
func Forbidden(format string, args ...any) *Error { return newf(KindForbidden, format, args...) }

// BadRequest reports a request rejected by a business rule rather than by input validation.
func BadRequest(format string, args ...any) *Error { return newf(KindBadRequest, format, args...) }

// Internal wraps a store or infrastructure failure.
func Internal(err error, format string, args ...any) *Error {
	e := newf(KindInternal, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}

// FieldsOf returns the validation fields of err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

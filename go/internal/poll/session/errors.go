package session

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by a command handler unwraps to one of these.
var (
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrDuplicate    = errors.New("duplicate")
	ErrPermission   = errors.New("permission denied")
	ErrValidation   = errors.New("validation failed")
)

// Error is a command rejection carrying a client-facing message
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a command that collides with the current state
func Conflict(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

// InvalidState reports a command that is illegal in the current state
func InvalidState(format string, args ...interface{}) error {
	return newError(ErrInvalidState, format, args...)
}

// Duplicate reports an idempotent resubmission
func Duplicate(format string, args ...interface{}) error {
	return newError(ErrDuplicate, format, args...)
}

// Permission reports a command issued by a connection without the required role
func Permission(format string, args ...interface{}) error {
	return newError(ErrPermission, format, args...)
}

// Validation reports a missing or malformed field
func Validation(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

// Code returns the wire code for an error's kind
func Code(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrPermission):
		return "permission"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

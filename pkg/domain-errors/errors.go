// Package dErrors defines the coded error type shared by services and
// transport. Stores return sentinel errors (pkg/platform/sentinel); services
// translate them into coded errors here; the HTTP layer maps codes to status
// responses (pkg/platform/httputil).
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for boundary mapping.
type Code string

const (
	// CodeValidation marks caller-correctable input problems.
	CodeValidation Code = "validation_failed"
	// CodeBadRequest marks malformed requests (unparsable body, bad identifier).
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks absent or invalid authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks authenticated callers acting outside their rights,
	// e.g. mutating a listing they do not own.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks lookups that resolved to nothing. A normal outcome,
	// not a failure.
	CodeNotFound Code = "not_found"
	// CodeConflict marks uniqueness or state conflicts.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks dependencies that could not be reached.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks store or infrastructure failures. Descriptions for
	// this code are never surfaced to callers.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Description is safe for callers except when
// the code is CodeInternal.
type Error struct {
	Code        Code
	Description string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Wrap attaches a code and description to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, description string) *Error {
	return &Error{Code: code, Description: description, cause: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so unknown failures never leak detail.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

package apperr

import (
	"errors"
	"fmt"
)

// Stable machine-readable codes for the error taxonomy. The HTTP layer maps
// each code to a status; callers branch on codes, never on message text.
const (
	CodeInvalidTransition  = "invalid_transition"
	CodeGateFailure        = "gate_failure"
	CodeConflict           = "conflict_error"
	CodeNotFound           = "not_found"
	CodeStaleWriteConflict = "stale_write_conflict"
	CodeInvalidArgument    = "invalid_argument"
	CodeUnauthorized       = "unauthorized"
)

var (
	// ErrNotFound covers missing records and cross-tenant lookups alike, so
	// a caller cannot distinguish "not yours" from "does not exist".
	ErrNotFound = errors.New("not found")
	// ErrStaleWriteConflict signals a lost optimistic-concurrency race; the
	// caller must re-read and retry.
	ErrStaleWriteConflict = errors.New("stale write conflict")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// CodeOf resolves the taxonomy code for err, unwrapping as needed.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrStaleWriteConflict):
		return CodeStaleWriteConflict
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	}
	return ""
}

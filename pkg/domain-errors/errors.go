// Package domainerrors defines the coded error type used across heirloom.
//
// Services return these so transports can map business failures to specific
// responses without string matching. Stores should return
// pkg/platform/sentinel errors instead and let services translate.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a category of domain failure.
type Code string

const (
	// CodeValidation marks malformed or inconsistent input.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks a single field that failed parsing at a trust boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotEligible marks a role, ownership, or deceased precondition failure.
	CodeNotEligible Code = "not_eligible"
	// CodeAlreadyPending marks an attempt to open a flow that is already open.
	CodeAlreadyPending Code = "already_pending"
	// CodeAlreadyResolved marks an attempt to act on a terminal state.
	CodeAlreadyResolved Code = "already_resolved"
	// CodeCooldownActive marks a rate-limited repeat attempt.
	CodeCooldownActive Code = "cooldown_active"
	// CodeDecryptionFailed marks an unreadable encrypted payload.
	CodeDecryptionFailed Code = "decryption_failed"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or concurrent-update collision.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation marks a broken domain invariant; a bug, not user error.
	CodeInvariantViolation Code = "invariant_violation"

	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// Error is a coded domain error. Message is safe to surface to callers.
type Error struct {
	ErrCode Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.ErrCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with a caller-facing message.
func New(code Code, message string) error {
	return &Error{ErrCode: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{ErrCode: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while preserving the chain.
// Returns nil when err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{ErrCode: code, Message: message, Err: err}
}

// HasCode reports whether the outermost coded error carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrCode == code
	}
	return false
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal
// for anything that is not a coded error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrCode
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message, falling back to a generic
// string so internal details never leak by accident.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Package domainerrors provides coded errors shared across services and
// transports. Services attach a Code when an error crosses a boundary;
// handlers translate codes to HTTP statuses without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and branching.
type Code string

const (
	// CodeValidation marks malformed caller input (empty search value,
	// wrong-length identifier). Surfaced before any source is queried.
	CodeValidation Code = "validation_error"

	// CodeBadRequest marks a structurally invalid request body or parameter.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks a missing identity or visit record.
	CodeNotFound Code = "not_found"

	// CodeNoCandidate is the terminal outcome of a matching attempt: neither
	// direct search nor alias fallback produced a candidate in any target
	// source. Distinct from CodeNotFound and from an empty search result.
	CodeNoCandidate Code = "no_candidate"

	// CodeSourceUnavailable marks a single hospital source failing to answer.
	// Recovered locally by skipping the source; escalates to CodeNoCandidate
	// only when every target source fails.
	CodeSourceUnavailable Code = "source_unavailable"

	// CodeNormalization marks a raw record that is structurally unusable.
	CodeNormalization Code = "normalization_error"

	// CodeTimeout marks a deadline exceeded while querying sources.
	CodeTimeout Code = "timeout"

	// CodeInternal is the catch-all for unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Construct via New or Wrap.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is / errors.As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	for errors.As(err, &domainErr) {
		if domainErr.Code == code {
			return true
		}
		err = domainErr.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is is shorthand for HasCode, matching how call sites read.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// Load extracts the message of the outermost coded error, falling back to
// err.Error() for uncoded errors.
func Load(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

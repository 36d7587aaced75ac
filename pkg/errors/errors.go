// Package errors provides structured error types for dev-versioner.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and batch results
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The resolution pipeline distinguishes a small, closed set of failure kinds:
//
//   - UNSUPPORTED_ECOSYSTEM: unknown ecosystem key, rejected before any network call
//   - UNSUPPORTED_VCS_HOST: fallback reference points at a host we cannot inspect
//   - NOT_FOUND: the registry explicitly reported absence (triggers VCS fallback)
//   - NETWORK_ERROR / TIMEOUT: transport failures, never treated as NOT_FOUND
//   - PARSE_ERROR: a response arrived but did not have the expected shape
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedEcosystem, "unknown ecosystem %q", eco)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // fall back to the VCS host
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Resolution errors
	ErrCodeUnsupportedEcosystem Code = "UNSUPPORTED_ECOSYSTEM"
	ErrCodeUnsupportedVCSHost   Code = "UNSUPPORTED_VCS_HOST"
	ErrCodeNotFound             Code = "NOT_FOUND"
	ErrCodeParse                Code = "PARSE_ERROR"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// The outermost *Error wins, so re-wrapping with a new code changes the kind.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsTransport reports whether err is a network or timeout failure.
// Callers use it to decide whether retrying later makes sense.
func IsTransport(err error) bool {
	code := GetCode(err)
	return code == ErrCodeNetwork || code == ErrCodeTimeout
}

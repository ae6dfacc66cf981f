// Package errors provides structured error types for the ekgstore application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the extraction engine
//   - Machine-readable error codes for batch reporting
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Every fatal extraction failure carries one of a small set of codes. A code
// is fatal to the current document only; the batch driver records it and
// moves on to the next file.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedPath, "path %q does not start with a relative move", d)
//	if errors.Is(err, errors.ErrCodeMalformedPath) {
//	    // Handle the malformed path
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeConversion, origErr, "convert %s", src)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different failure categories.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// ErrCodeConversion covers every failure mode of the external PDF→SVG
	// conversion step: binary missing, non-zero exit, and timeout.
	ErrCodeConversion Code = "CONVERSION_FAILED"

	// ErrCodeMalformedPath marks a path expression that violates the
	// relative-move contract or fails numeric parsing.
	ErrCodeMalformedPath Code = "MALFORMED_PATH"

	// ErrCodeCalibration marks absent or degenerate calibration markers that
	// leave the unit scale undefined.
	ErrCodeCalibration Code = "CALIBRATION_FAILED"

	// ErrCodeMetadataIntegrity marks required metadata fields that are
	// missing or fail the expected-unit checks. This gate prevents
	// mis-scaled clinical data from being emitted.
	ErrCodeMetadataIntegrity Code = "METADATA_INTEGRITY"

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

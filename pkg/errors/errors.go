// Package errors provides structured error types for layerstack.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so the CLI, the HTTP server, and the interactive editor can react to
// the category of a failure without parsing messages.
//
// # Error Codes
//
//   - MALFORMED_MODEL: a raw sample violates the layer schema (missing
//     thickness/interface/material, bounds outside limits, ...)
//   - OUT_OF_RANGE: a reorder target position is invalid
//   - LOAD_TRANSPORT: fetching or decoding a raw sample failed
//   - LAYER_NOT_FOUND: no layer with the given identifier
//   - NOT_LOADED: an edit was issued before any stack was loaded
//
// # Usage
//
//	err := errors.New(errors.ErrCodeOutOfRange, "position %d outside [0, %d]", pos, n)
//	if errors.Is(err, errors.ErrCodeOutOfRange) {
//	    // Handle invalid position
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLoadTransport, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Model errors
	ErrCodeMalformedModel Code = "MALFORMED_MODEL"
	ErrCodeOutOfRange     Code = "OUT_OF_RANGE"
	ErrCodeLayerNotFound  Code = "LAYER_NOT_FOUND"
	ErrCodeNotLoaded      Code = "NOT_LOADED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidName   Code = "INVALID_NAME"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Transport errors
	ErrCodeLoadTransport Code = "LOAD_TRANSPORT"

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
// It walks the whole error chain, so an outer LOAD_TRANSPORT wrapping an
// inner MALFORMED_MODEL matches both codes.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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

// Malformed reports a schema violation in a raw sample.
func Malformed(format string, args ...any) *Error {
	return New(ErrCodeMalformedModel, format, args...)
}

// Transport wraps a failure of the external fetch (network, file, or decode).
func Transport(cause error, format string, args ...any) *Error {
	return Wrap(ErrCodeLoadTransport, cause, format, args...)
}

// Package errors provides structured error types for drawbridge.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the reconcilers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input or configuration validation failures
//   - *_NOT_FOUND: Resource not found
//   - INSTANCE_*: Instance lifecycle violations
//   - *_API, NETWORK, TIMEOUT: Remote failures
//   - INTERNAL: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidProtocol, "not a protocol: %s", s)
//	if errors.Is(err, errors.ErrCodeInvalidProtocol) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCloudAPI, origErr, "failed to describe security group: %s", id)
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
	ErrCodeInvalidInput        Code = "INVALID_INPUT"
	ErrCodeInvalidProtocol     Code = "INVALID_PROTOCOL"
	ErrCodeInvalidSource       Code = "INVALID_SOURCE"
	ErrCodeInvalidInstanceType Code = "INVALID_INSTANCE_TYPE"
	ErrCodeInvalidName         Code = "INVALID_NAME"
	ErrCodeInvalidConfig       Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeZoneNotFound     Code = "ZONE_NOT_FOUND"
	ErrCodeInstanceNotFound Code = "INSTANCE_NOT_FOUND"
	ErrCodeFirewallNotFound Code = "FIREWALL_NOT_FOUND"

	// Instance lifecycle errors
	ErrCodeInstanceState Code = "INSTANCE_STATE"
	ErrCodeInstanceGone  Code = "INSTANCE_GONE"

	// Remote errors
	ErrCodeCloudAPI Code = "CLOUD_API"
	ErrCodeDNSAPI   Code = "DNS_API"
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeTimeout  Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

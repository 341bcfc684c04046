// Package errors provides standardized domain errors with codes for the
// Memoria server.
//
// Usage:
//
//	// In services - return typed errors
//	if records == nil {
//	    return errors.SessionExpired("session has expired, start a new search")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrSessionExpired) {
//	    // render the "start over" message
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
//
// SessionExpired, ItemMissing, Unauthorized, and Validation are expected
// interaction outcomes: user-facing, logged at warning level at most.
// Internal covers backing-store failures and is the only code treated as
// a system error; DeliveryFailed marks a rejected send after fallback.
const (
	CodeSessionExpired Code = "SESSION_EXPIRED"
	CodeItemMissing    Code = "ITEM_MISSING"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeValidation     Code = "VALIDATION"
	CodeNotFound       Code = "NOT_FOUND"
	CodeDeliveryFailed Code = "DELIVERY_FAILED"
	CodeInternal       Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeSessionExpired:
		return http.StatusGone
	case CodeItemMissing:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDeliveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Expected reports whether the code is a normal interaction outcome
// rather than a system fault.
func (c Code) Expected() bool {
	switch c {
	case CodeSessionExpired, CodeItemMissing, CodeUnauthorized, CodeValidation, CodeNotFound:
		return true
	}
	return false
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrSessionExpired = &Error{Code: CodeSessionExpired, Message: "session expired"}
	ErrItemMissing    = &Error{Code: CodeItemMissing, Message: "item no longer in session"}
	ErrUnauthorized   = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrDeliveryFailed = &Error{Code: CodeDeliveryFailed, Message: "delivery failed"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// SessionExpired creates a session expired error.
func SessionExpired(msg string) *Error {
	return &Error{Code: CodeSessionExpired, Message: msg}
}

// ItemMissing creates an item missing error.
func ItemMissing(msg string) *Error {
	return &Error{Code: CodeItemMissing, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// DeliveryFailed creates a delivery failed error.
func DeliveryFailed(msg string) *Error {
	return &Error{Code: CodeDeliveryFailed, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

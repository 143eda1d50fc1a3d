// Package errors provides the application error type used at the HTTP
// boundary. An AppError carries a machine-readable code, a client-safe
// message and the HTTP status it maps to; the underlying cause stays
// server-side and is never serialized.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode is a machine-readable error class.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the request lacks valid authentication.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidInput indicates the request payload failed validation.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeForbidden indicates the authenticated caller lacks the required role.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrCodeConflict indicates a uniqueness conflict with existing state.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeUpstreamFailure indicates an outbound dependency returned an error.
	ErrCodeUpstreamFailure ErrorCode = "UPSTREAM_FAILURE"
	// ErrCodeUpstreamTimeout indicates an outbound dependency timed out.
	ErrCodeUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
	// ErrCodeInternal indicates an unexpected server-side failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AppError is the unified application error type.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// New creates an AppError.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// UpstreamFailure creates a 502 error wrapping a dependency failure.
func UpstreamFailure(message string, cause error) *AppError {
	return New(ErrCodeUpstreamFailure, message, http.StatusBadGateway).WithCause(cause)
}

// UpstreamTimeout creates a 504 error wrapping a dependency timeout.
func UpstreamTimeout(message string, cause error) *AppError {
	return New(ErrCodeUpstreamTimeout, message, http.StatusGatewayTimeout).WithCause(cause)
}

// Internal creates a 500 error wrapping an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "Internal server error", http.StatusInternalServerError).WithCause(cause)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

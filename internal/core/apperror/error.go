// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal      = "INTERNAL_ERROR"
	CodeDatabase      = "DATABASE_ERROR"
	CodeTimeout       = "TIMEOUT_ERROR"
	CodeDataIntegrity = "DATA_INTEGRITY_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Unsupported report or format (404/406)
	CodeUnknownReport     = "UNKNOWN_REPORT"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, offending values, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewUnknownReport is returned when a report name has no generator.
func NewUnknownReport(name string) *AppError {
	return &AppError{
		Code:       CodeUnknownReport,
		Message:    fmt.Sprintf("report %q is not available", name),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"report": name},
	}
}

// NewUnsupportedFormat is returned for an output format the API cannot render.
func NewUnsupportedFormat(format string) *AppError {
	return &AppError{
		Code:       CodeUnsupportedFormat,
		Message:    fmt.Sprintf("format %q is not supported", format),
		HTTPStatus: http.StatusNotAcceptable,
		Details:    map[string]any{"format": format},
	}
}

// NewDataIntegrity reports stored data that violates a closed domain
// (e.g. an enum value outside its allowed set). It is a server-side error:
// the request was fine, the data is not.
func NewDataIntegrity(entity, field string, value any) *AppError {
	return &AppError{
		Code:       CodeDataIntegrity,
		Message:    fmt.Sprintf("%s has invalid %s", entity, field),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewDatabase wraps a store failure (connectivity, query error).
func NewDatabase(op string, err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "Database error",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"operation": op},
		Err:        err,
	}
}

// NewTimeout is returned when the caller's deadline expired before the store answered.
func NewTimeout(err error) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    "Request timed out",
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsDataIntegrity checks if error is CodeDataIntegrity
func IsDataIntegrity(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeDataIntegrity
	}
	return false
}

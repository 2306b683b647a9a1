// Package errors provides application-level error types and utilities.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation_error"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeAuth        ErrorType = "auth_error"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypePermission  ErrorType = "permission_denied"
	ErrorTypePersistence ErrorType = "persistence_error"
	ErrorTypeInternal    ErrorType = "internal_error"
	ErrorTypeBadRequest  ErrorType = "bad_request"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func newError(t ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{Type: t, Message: message, Code: code, Details: detail}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message, details)
}

// NewAuthError creates an error for expired or invalid upstream credentials.
func NewAuthError(message string, details ...string) *AppError {
	return newError(ErrorTypeAuth, http.StatusUnauthorized, message, details)
}

// NewRateLimitError creates an error for exhausted upstream rate limits.
func NewRateLimitError(message string, details ...string) *AppError {
	return newError(ErrorTypeRateLimit, http.StatusTooManyRequests, message, details)
}

// NewPermissionError creates an error for upstream permission denials.
func NewPermissionError(message string, details ...string) *AppError {
	return newError(ErrorTypePermission, http.StatusForbidden, message, details)
}

// NewPersistenceError creates an error for durable-write failures.
func NewPersistenceError(message string, details ...string) *AppError {
	return newError(ErrorTypePersistence, http.StatusInternalServerError, message, details)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return newError(ErrorTypeBadRequest, http.StatusBadRequest, message, details)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsAuthError checks if the error is an upstream credential error
func IsAuthError(err error) bool { return isType(err, ErrorTypeAuth) }

// IsRateLimitError checks if the error is a rate limit error
func IsRateLimitError(err error) bool { return isType(err, ErrorTypeRateLimit) }

// IsPermissionError checks if the error is a permission error
func IsPermissionError(err error) bool { return isType(err, ErrorTypePermission) }

// IsPersistenceError checks if the error is a durable-write error
func IsPersistenceError(err error) bool { return isType(err, ErrorTypePersistence) }

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool { return isType(err, ErrorTypeConflict) }

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

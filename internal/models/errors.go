package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents validation errors (4xx)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents resource not found errors (404)
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeRateLimit represents rate limiting errors (429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeProvider represents provider-specific errors (502/503)
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeTimeout represents timeout errors (504)
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeInternal represents internal server errors (500)
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeCircuitBreaker represents circuit breaker errors (503)
	ErrorTypeCircuitBreaker ErrorType = "circuit_breaker"
	// ErrorTypeExhausted is returned when every candidate of a chain failed (502)
	ErrorTypeExhausted ErrorType = "exhausted"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Code       string    `json:"code,omitzero"`
	StatusCode int       `json:"-"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// GetStatusCode returns the HTTP status code for the error
func (e *AppError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeProvider, ErrorTypeCircuitBreaker, ErrorTypeExhausted:
		return http.StatusBadGateway
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Retryable:  false,
		Cause:      cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(operation string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    fmt.Sprintf("operation %s timed out", operation),
		Code:       "timeout",
		StatusCode: http.StatusGatewayTimeout,
		Retryable:  true,
		Cause:      cause,
	}
}

// NewCircuitBreakerError creates a circuit breaker error
func NewCircuitBreakerError(service string) *AppError {
	return &AppError{
		Type:       ErrorTypeCircuitBreaker,
		Message:    fmt.Sprintf("service %s is currently unavailable (circuit breaker open)", service),
		Code:       "CIRCUIT_BREAKER_OPEN",
		StatusCode: http.StatusServiceUnavailable,
		Retryable:  true,
	}
}

// NewExhaustedError is returned when no candidate of a chain produced an answer
func NewExhaustedError(attempts int, reason string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExhausted,
		Message:    fmt.Sprintf("all %d candidates failed, last reason: %s", attempts, reason),
		Code:       "CANDIDATES_EXHAUSTED",
		StatusCode: http.StatusBadGateway,
		Retryable:  false,
		Cause:      cause,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Retryable:  false,
		Cause:      cause,
	}
}

// SanitizeError sanitizes an error for external consumption
func SanitizeError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:       appErr.Type,
			Message:    appErr.Message,
			Code:       appErr.Code,
			StatusCode: appErr.GetStatusCode(),
			Retryable:  appErr.Retryable,
		}
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return &AppError{
			Type:       ErrorTypeProvider,
			Message:    fmt.Sprintf("provider %s error", provErr.Provider),
			Code:       string(provErr.Kind),
			StatusCode: http.StatusBadGateway,
			Retryable:  false,
		}
	}

	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    "internal server error",
		StatusCode: http.StatusInternalServerError,
	}
}

// FailureKind is the closed set of provider failure variants
type FailureKind string

const (
	FailureRateLimited    FailureKind = "rate_limited"
	FailureQuotaExceeded  FailureKind = "quota_exceeded"
	FailureServerError    FailureKind = "server_error"
	FailureTimeout        FailureKind = "timeout"
	FailureModelNotFound  FailureKind = "model_not_found"
	FailureInvalidRequest FailureKind = "invalid_request"
	FailureUnavailable    FailureKind = "unavailable"
	FailureRejected       FailureKind = "rejected"
	FailureUnknown        FailureKind = "unknown"
)

// ProviderError is the tagged failure every Gateway returns
type ProviderError struct {
	Provider   string
	Kind       FailureKind
	Code       string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Code != "":
		return fmt.Sprintf("provider %s: %s (status %d, code %s)", e.Provider, e.Message, e.StatusCode, e.Code)
	case e.StatusCode > 0:
		return fmt.Sprintf("provider %s: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	case e.Code != "":
		return fmt.Sprintf("provider %s: %s (code %s)", e.Provider, e.Message, e.Code)
	default:
		return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ClassifiedFailure is the classifier verdict for one failure
type ClassifiedFailure struct {
	Err       error
	Kind      FailureKind
	Retryable bool
	Reason    string
}

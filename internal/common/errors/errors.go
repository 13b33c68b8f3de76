// Package errors provides standardized error handling for the assistant API.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"

	ErrCodeIntakeNoActiveSession ErrorCode = "INTAKE_NO_ACTIVE_SESSION"
	ErrCodeIntakeProfileComplete ErrorCode = "INTAKE_PROFILE_COMPLETE"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	ErrCodeLookupTimeout ErrorCode = "LOOKUP_TIMEOUT"
	ErrCodeLookupFailed  ErrorCode = "LOOKUP_FAILED"

	ErrCodeGenerationAuthFailed  ErrorCode = "GENERATION_AUTH_FAILED"
	ErrCodeGenerationRateLimited ErrorCode = "GENERATION_RATE_LIMITED"
	ErrCodeGenerationTimeout     ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeGenerationFailed      ErrorCode = "GENERATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause so errors.Is keeps working on sentinels.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

func newStandard(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return newStandard(ErrCodeInvalidRequest, "Request validation failed", details, false, nil)
}

// NewRateLimitedError is returned when the caller exceeds the API quota.
func NewRateLimitedError(details string) *StandardError {
	return newStandard(ErrCodeRateLimited, "Too many requests", details, true, nil)
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return newStandard(ErrCodeInternal, "Unexpected error", detailsOf(err), false, err)
}

// NewNoActiveSessionError is returned when an intake answer arrives without a session.
func NewNoActiveSessionError(userID string, cause error) *StandardError {
	return newStandard(ErrCodeIntakeNoActiveSession, "No active intake session",
		fmt.Sprintf("userId: %s", userID), false, cause)
}

// NewProfileCompleteError is returned when intake is requested for a finished profile.
func NewProfileCompleteError(userID string, cause error) *StandardError {
	return newStandard(ErrCodeIntakeProfileComplete, "Profile already complete",
		fmt.Sprintf("userId: %s", userID), false, cause)
}

// NewStoreUnavailableError creates a retryable persistence error.
func NewStoreUnavailableError(operation string, err error) *StandardError {
	return newStandard(ErrCodeStoreUnavailable, "Profile store unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, detailsOf(err)), true, err)
}

// NewLookupTimeoutError creates a retryable structured lookup timeout error.
func NewLookupTimeoutError(table string) *StandardError {
	return newStandard(ErrCodeLookupTimeout, "Structured lookup timeout",
		fmt.Sprintf("table: %s", table), true, nil)
}

// NewLookupFailedError creates a retryable structured lookup error.
func NewLookupFailedError(table string, err error) *StandardError {
	return newStandard(ErrCodeLookupFailed, "Structured lookup failed",
		fmt.Sprintf("table: %s, error: %s", table, detailsOf(err)), true, err)
}

// NewGenerationAuthError is non-retryable: the provider rejected our credentials.
func NewGenerationAuthError(err error) *StandardError {
	return newStandard(ErrCodeGenerationAuthFailed, "Language model authentication failed", detailsOf(err), false, err)
}

// NewGenerationRateLimitedError is retryable after the provider's back-off window.
func NewGenerationRateLimitedError(err error) *StandardError {
	return newStandard(ErrCodeGenerationRateLimited, "Language model rate limit reached", detailsOf(err), true, err)
}

// NewGenerationTimeoutError creates a retryable generation timeout error.
func NewGenerationTimeoutError(err error) *StandardError {
	return newStandard(ErrCodeGenerationTimeout, "Language model timeout", detailsOf(err), true, err)
}

// NewGenerationFailedError covers every other provider failure.
func NewGenerationFailedError(err error) *StandardError {
	return newStandard(ErrCodeGenerationFailed, "Language model request failed", detailsOf(err), true, err)
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError extracts a *StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// GetRetryCount returns how many times a client may retry a request failing with code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable,
		ErrCodeLookupFailed,
		ErrCodeGenerationFailed:
		return 2

	case ErrCodeLookupTimeout,
		ErrCodeGenerationTimeout,
		ErrCodeGenerationRateLimited,
		ErrCodeRateLimited:
		return 1

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INTAKE"):
		return "INTAKE"
	case strings.HasPrefix(codeStr, "STORE"):
		return "STORE"
	case strings.HasPrefix(codeStr, "LOOKUP"):
		return "LOOKUP"
	case strings.HasPrefix(codeStr, "GENERATION"):
		return "AI"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "RATE_LIMITED"):
		return "REQUEST"
	default:
		return "OTHER"
	}
}

package models

import (
	"time"
)

// Machine-readable error codes returned alongside every error response.
const (
	CodeAuthRequired    = "AUTH_REQUIRED"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeRateLimited     = "RATE_LIMITED"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeValidationError = "VALIDATION_ERROR"
	CodeUpstreamFailure = "UPSTREAM_FAILURE"
	CodeConflict        = "CONFLICT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// APIResponse is a generic API response wrapper
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Errors    interface{} `json:"errors,omitempty"`
	ResetTime int64       `json:"resetTime,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response with a stable code
func NewErrorResponse(code, message string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   message,
		Code:    code,
	}
}

// NewValidationErrorResponse creates a validation error response
func NewValidationErrorResponse(errors map[string]string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   "Validation failed",
		Code:    CodeValidationError,
		Errors:  errors,
	}
}

// NewRateLimitResponse carries the window reset time so callers can schedule a retry.
func NewRateLimitResponse(resetTime time.Time) APIResponse {
	return APIResponse{
		Success:   false,
		Error:     "Too many requests",
		Code:      CodeRateLimited,
		ResetTime: resetTime.UnixMilli(),
	}
}

// NewInternalErrorResponse hides detail from the caller; the full error is logged server-side.
func NewInternalErrorResponse() APIResponse {
	return APIResponse{
		Success:   false,
		Error:     "Internal server error",
		Code:      CodeInternalError,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

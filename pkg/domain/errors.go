package domain

import (
	"context"
	"errors"
)

// Common domain errors
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrCountOverflow    = errors.New("variation count overflows uint64")
	ErrPolicyEvalFailed = errors.New("policy evaluation failed")
)

// Machine-readable error codes carried by DomainError.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeCountOverflow   = "COUNT_OVERFLOW"
	CodePolicyFailed    = "POLICY_FAILED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeCancelled       = "CANCELLED"
	CodeInternal        = "INTERNAL"
)

// DomainError wraps errors with additional context.
//
//nolint:revive // Name is intentionally verbose to distinguish domain-layer errors
type DomainError struct {
	Err     error
	Code    string
	Message string
	Details map[string]any
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// InvalidArgument builds a DomainError for a rejected input field.
func InvalidArgument(field, reason string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidArgument,
		Code:    CodeInvalidArgument,
		Message: "invalid argument " + field + ": " + reason,
		Details: map[string]any{"field": field},
	}
}

// CodeOf returns the machine-readable code for err, falling back to INTERNAL.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrConfigInvalid):
		return CodeConfigInvalid
	case errors.Is(err, ErrCountOverflow):
		return CodeCountOverflow
	case errors.Is(err, ErrPolicyEvalFailed):
		return CodePolicyFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	default:
		return CodeInternal
	}
}

// ErrorResponse defines the standard JSON error model returned by the HTTP API.
// TraceID should carry the current OpenTelemetry trace identifier when available to aid diagnostics.
type ErrorResponse struct {
	Code      string `json:"code"`                 // Machine-readable error code (e.g., INVALID_ARGUMENT)
	Message   string `json:"message"`              // Human-readable message (safe for logs)
	TraceID   string `json:"trace_id,omitempty"`   // Optional trace/correlation ID
	RequestID string `json:"request_id,omitempty"` // Request correlation ID
}

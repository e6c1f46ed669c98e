package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure into the stable taxonomy surfaced to clients.
type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindComplexityExceeded Kind = "COMPLEXITY_EXCEEDED"
	KindDepthExceeded      Kind = "DEPTH_EXCEEDED"
	KindRateLimitExceeded  Kind = "RATE_LIMIT_EXCEEDED"
	KindNotFound           Kind = "NOT_FOUND"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindServiceError       Kind = "SERVICE_ERROR"
	KindUnknown            Kind = "UNKNOWN"
)

// Machine-readable validation codes. Client code branches on these, so they
// are part of the external contract and must not change.
const (
	CodeRequiredField       = "REQUIRED_FIELD"
	CodeInvalidID           = "INVALID_ID_FORMAT"
	CodeInvalidEmail        = "INVALID_EMAIL_FORMAT"
	CodeInvalidExerciseType = "INVALID_EXERCISE_TYPE"
	CodeInvalidDescription  = "INVALID_DESCRIPTION"
	CodeInvalidDuration     = "INVALID_DURATION_VALUE"
	CodeInvalidDate         = "INVALID_DATE_FORMAT"
	CodeInvalidDateRange    = "INVALID_DATE_RANGE"
	CodeInvalidQuery        = "INVALID_QUERY"
	CodeUnknownOperation    = "UNKNOWN_OPERATION"
)

// FieldError reports a single rejected input field. Immutable once
// constructed; validators return it rather than cleaning unsafe values.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

func NewFieldError(field, code, message string) *FieldError {
	return &FieldError{Field: field, Code: code, Message: message}
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LimitError reports a structural pre-execution rejection (query cost or
// nesting depth over budget). Computed carries the measured value so the
// client sees how far over budget the query was.
type LimitError struct {
	Kind     Kind // KindComplexityExceeded or KindDepthExceeded
	Computed int
	Limit    int
}

func (e *LimitError) Error() string {
	switch e.Kind {
	case KindDepthExceeded:
		return fmt.Sprintf("query depth %d exceeds maximum %d", e.Computed, e.Limit)
	default:
		return fmt.Sprintf("query complexity %d exceeds maximum %d", e.Computed, e.Limit)
	}
}

// Code returns the stable code matching the limit kind.
func (e *LimitError) Code() string { return string(e.Kind) }

// RateError reports a rate-limit rejection with a deterministic retry hint.
type RateError struct {
	RetryAfter time.Duration
	Limit      int
	Remaining  int
}

func (e *RateError) Error() string {
	return fmt.Sprintf("rate limit of %d requests exceeded, retry after %s", e.Limit, e.RetryAfter)
}

// DownstreamError wraps a failed call to a collaborator service. Status is
// zero for transport-level failures (connection refused, DNS, timeout);
// Err carries the underlying transport error in that case. Detail is lifted
// from the response body for logging only and never reaches clients.
type DownstreamError struct {
	Service string
	Status  int
	Detail  string
	Err     error
}

func (e *DownstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s service returned status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s service unreachable: %v", e.Service, e.Err)
}

func (e *DownstreamError) Unwrap() error { return e.Err }

// IsClientError reports whether the failure was caused by the caller.
// Client-caused failures short-circuit immediately and are never retried.
func IsClientError(err error) bool {
	var fe *FieldError
	var le *LimitError
	var re *RateError
	return errors.As(err, &fe) || errors.As(err, &le) || errors.As(err, &re)
}

// NormalizedError is the only error shape ever returned to a caller.
type NormalizedError struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Field     string    `json:"field,omitempty"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

package errors

import (
	"fmt"
	"net/http"
)

// Kind categorizes an analysis failure
type Kind string

const (
	KindConfiguration     Kind = "configuration"
	KindRateLimited       Kind = "rate_limited"
	KindPaymentRequired   Kind = "payment_required"
	KindUpstreamFailure   Kind = "upstream_failure"
	KindEmptyResponse     Kind = "empty_response"
	KindMalformedResponse Kind = "malformed_response"
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// AnalysisError is a structured failure with a stable kind and HTTP status
type AnalysisError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"status_code"`
	Cause      error  `json:"-"`
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError reports a missing or unusable credential/setting.
// Not retryable and not user-actionable.
func NewConfigurationError(message string, cause error) *AnalysisError {
	return &AnalysisError{
		Kind:       KindConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewRateLimitedError reports an upstream 429. The caller may retry later;
// nothing in this service retries automatically.
func NewRateLimitedError(message string) *AnalysisError {
	return &AnalysisError{
		Kind:       KindRateLimited,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewPaymentRequiredError reports an upstream 402. Terminal until billing
// action; must never be retried automatically.
func NewPaymentRequiredError(message string) *AnalysisError {
	return &AnalysisError{
		Kind:       KindPaymentRequired,
		Message:    message,
		StatusCode: http.StatusPaymentRequired,
	}
}

// NewUpstreamError reports an opaque upstream failure with the response body
// carried as detail for logs
func NewUpstreamError(message, detail string) *AnalysisError {
	return &AnalysisError{
		Kind:       KindUpstreamFailure,
		Message:    message,
		Detail:     detail,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewEmptyResponseError reports a 2xx reply carrying no message content
func NewEmptyResponseError(message string) *AnalysisError {
	return &AnalysisError{
		Kind:       KindEmptyResponse,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewMalformedResponseError reports model output that survived transport but
// could not be extracted into a valid record
func NewMalformedResponseError(message string, cause error) *AnalysisError {
	return &AnalysisError{
		Kind:       KindMalformedResponse,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewValidationError reports bad caller input
func NewValidationError(message string, cause error) *AnalysisError {
	return &AnalysisError{
		Kind:       KindValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewNotFoundError reports an unknown session or resource
func NewNotFoundError(message string) *AnalysisError {
	return &AnalysisError{
		Kind:       KindNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError reports a rejected concurrent operation
func NewConflictError(message string) *AnalysisError {
	return &AnalysisError{
		Kind:       KindConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError reports an unexpected local failure
func NewInternalError(message string, cause error) *AnalysisError {
	return &AnalysisError{
		Kind:       KindInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsKind checks if the error carries a specific kind
func IsKind(err error, kind Kind) bool {
	if aerr, ok := err.(*AnalysisError); ok {
		return aerr.Kind == kind
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if aerr, ok := err.(*AnalysisError); ok {
		return aerr.StatusCode
	}
	return http.StatusInternalServerError
}

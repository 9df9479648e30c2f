package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeForbidden        ErrorCode = "forbidden"
	ErrCodeConflict         ErrorCode = "conflict"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeDatabaseError ErrorCode = "database_error"
	ErrCodeUnavailable   ErrorCode = "service_unavailable"

	// Ledger errors
	ErrCodeAlreadyRegistered       ErrorCode = "already_registered"
	ErrCodeNotRegistered           ErrorCode = "not_registered"
	ErrCodeNotAuthorized           ErrorCode = "not_authorized"
	ErrCodeAccessorNotAuthorized   ErrorCode = "accessor_not_authorized"
	ErrCodeAccessDenied            ErrorCode = "access_denied"
	ErrCodeRequestAlreadyPending   ErrorCode = "request_already_pending"
	ErrCodeRequestNotPending       ErrorCode = "request_not_pending"
	ErrCodeInvalidRequestIndex     ErrorCode = "invalid_request_index"
	ErrCodeRecordNotFound          ErrorCode = "record_not_found"

	// Relay errors
	ErrCodeInvalidSignature        ErrorCode = "invalid_signature"
	ErrCodeNonceMismatch           ErrorCode = "nonce_mismatch"
	ErrCodeDeadlineExpired         ErrorCode = "deadline_expired"
	ErrCodeGasLimitExceeded        ErrorCode = "gas_limit_exceeded"
	ErrCodeInsufficientRelayFunds  ErrorCode = "insufficient_relayer_funds"
	ErrCodeRateLimited             ErrorCode = "rate_limited"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewNotFoundError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: strings.Join(details, ", "),
	}
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewForbiddenError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewInternalError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeInternalError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewDatabaseError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeDatabaseError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// Classify maps a domain or relay failure to its stable machine-readable code
// and the HTTP status it should travel with. Unknown errors map to an
// internal error so callers never see raw driver messages.
func Classify(err error) (int, ErrorCode) {
	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return http.StatusConflict, ErrCodeAlreadyRegistered
	case errors.Is(err, domain.ErrNotRegistered):
		return http.StatusNotFound, ErrCodeNotRegistered
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden, ErrCodeNotAuthorized
	case errors.Is(err, domain.ErrAccessorNotAuthorized):
		return http.StatusForbidden, ErrCodeAccessorNotAuthorized
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden, ErrCodeAccessDenied
	case errors.Is(err, domain.ErrRequestAlreadyPending):
		return http.StatusConflict, ErrCodeRequestAlreadyPending
	case errors.Is(err, domain.ErrRequestNotPending):
		return http.StatusConflict, ErrCodeRequestNotPending
	case errors.Is(err, domain.ErrInvalidRequestIndex):
		return http.StatusBadRequest, ErrCodeInvalidRequestIndex
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, ErrCodeRecordNotFound
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized, ErrCodeInvalidSignature
	case errors.Is(err, domain.ErrNonceMismatch):
		return http.StatusConflict, ErrCodeNonceMismatch
	case errors.Is(err, domain.ErrDeadlineExpired):
		return http.StatusBadRequest, ErrCodeDeadlineExpired
	case errors.Is(err, domain.ErrGasLimitExceeded):
		return http.StatusBadRequest, ErrCodeGasLimitExceeded
	case errors.Is(err, domain.ErrInsufficientRelayerFunds):
		return http.StatusServiceUnavailable, ErrCodeInsufficientRelayFunds
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, ErrCodeRateLimited
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

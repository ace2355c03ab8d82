package errors

import (
	"errors"
	"net/http"
)

// Sentinel errors returned by repositories and usecases.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrTokenExpired  = errors.New("token expired")
)

// Machine-readable error codes, one per failure kind. Codes are stable API;
// messages are not.
const (
	CodeValidationError       = "VALIDATION_ERROR"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeMissingIdempotencyKey = "MISSING_IDEMPOTENCY_KEY"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeForbidden             = "FORBIDDEN"
	CodeIntentNotFound        = "INTENT_NOT_FOUND"
	CodeMandateNotFound       = "MANDATE_NOT_FOUND"
	CodePaymentNotFound       = "PAYMENT_NOT_FOUND"
	CodeReceiptNotFound       = "RECEIPT_NOT_FOUND"
	CodePolicyNotFound        = "POLICY_NOT_FOUND"
	CodePaymentDeclined       = "PAYMENT_DECLINED"
	CodeIdempotencyConflict   = "IDEMPOTENCY_CONFLICT"
	CodeInFlightConflict      = "IN_FLIGHT_CONFLICT"
	CodeAgentInactive         = "AGENT_INACTIVE"
	CodeVendorNotAllowed      = "VENDOR_NOT_ALLOWED"
	CodeAmountExceedsCap      = "AMOUNT_EXCEEDS_CAP"
	CodeDailyLimitExceeded    = "DAILY_LIMIT_EXCEEDED"
	CodeMandateExpired        = "MANDATE_EXPIRED"
	CodeMandateRevoked        = "MANDATE_REVOKED"
	CodeMandateExhausted      = "MANDATE_EXHAUSTED"
	CodeInvalidSignature      = "INVALID_SIGNATURE"
	CodePolicyCheckFailed     = "POLICY_CHECK_FAILED"
	CodeProviderError         = "PROVIDER_ERROR"
	CodeTimeoutError          = "TIMEOUT_ERROR"
	CodeReceiptChainBroken    = "RECEIPT_CHAIN_BROKEN"
	CodeDatabaseError         = "DATABASE_ERROR"
	CodeConfigurationError    = "CONFIGURATION_ERROR"
	CodeInternalError         = "INTERNAL_ERROR"
)

// AppError carries an HTTP status, a stable machine code and a safe message.
type AppError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails attaches structured details to the error and returns it.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func BadRequest(code, message string) *AppError {
	return NewAppError(http.StatusBadRequest, code, message, ErrInvalidInput)
}

func Unauthorized(code, message string) *AppError {
	return NewAppError(http.StatusUnauthorized, code, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func NotFound(code, message string) *AppError {
	return NewAppError(http.StatusNotFound, code, message, ErrNotFound)
}

func Conflict(code, message string) *AppError {
	return NewAppError(http.StatusConflict, code, message, ErrAlreadyExists)
}

// PolicyViolation is a 422: the request is well-formed but the active policy
// or lifecycle state forbids it.
func PolicyViolation(code, message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, code, message, nil)
}

func PaymentDeclined(message string) *AppError {
	return NewAppError(http.StatusPaymentRequired, CodePaymentDeclined, message, nil)
}

func ProviderError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeProviderError, "payment provider error", err)
}

func TimeoutError(err error) *AppError {
	return NewAppError(http.StatusGatewayTimeout, CodeTimeoutError, "upstream timeout", err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

func DatabaseError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeDatabaseError, "storage failure", err)
}

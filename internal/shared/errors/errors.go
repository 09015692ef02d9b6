// Package errors provides application-level error types and utilities.
// All failures of the public settlement operations are reported through
// AppError values with a stable type tag; raw panics never cross a
// package boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal_error"
	ErrorTypeBadRequest ErrorType = "bad_request"

	// Settlement-specific error types.
	ErrorTypeInvalidSignature    ErrorType = "invalid_signature"
	ErrorTypeMalformedPayload    ErrorType = "malformed_payload"
	ErrorTypeOrderNotFound       ErrorType = "order_not_found"
	ErrorTypeOrderExpired        ErrorType = "order_expired"
	ErrorTypeAmountMismatch      ErrorType = "amount_mismatch"
	ErrorTypeInvalidTransition   ErrorType = "invalid_transition"
	ErrorTypeSuffixPoolExhausted ErrorType = "suffix_pool_exhausted"
	ErrorTypeInsufficientBalance ErrorType = "insufficient_balance"
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

func newAppError(errType ErrorType, code int, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, details...)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details...)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeBadRequest, http.StatusBadRequest, message, details...)
}

// NewInvalidSignatureError reports a webhook payload whose signature did not
// verify. Callers must not include amount details here: authenticity
// failures are logged without data that could aid probing.
func NewInvalidSignatureError(details ...string) *AppError {
	return newAppError(ErrorTypeInvalidSignature, http.StatusUnauthorized, "invalid callback signature", details...)
}

// NewMalformedPayloadError reports a callback payload that failed shape or
// range validation before any attribution logic ran.
func NewMalformedPayloadError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeMalformedPayload, http.StatusBadRequest, message, details...)
}

// NewOrderNotFoundError reports that no pending order matched.
func NewOrderNotFoundError(details ...string) *AppError {
	return newAppError(ErrorTypeOrderNotFound, http.StatusNotFound, "order not found", details...)
}

// NewOrderExpiredError reports a payment that arrived at or after the
// order's deadline. Late payments are never credited.
func NewOrderExpiredError(details ...string) *AppError {
	return newAppError(ErrorTypeOrderExpired, http.StatusGone, "order expired", details...)
}

// NewAmountMismatchError reports a received amount that does not equal the
// expected total.
func NewAmountMismatchError(details ...string) *AppError {
	return newAppError(ErrorTypeAmountMismatch, http.StatusUnprocessableEntity, "amount mismatch", details...)
}

// NewInvalidTransitionError reports a state transition the order state
// machine does not permit.
func NewInvalidTransitionError(details ...string) *AppError {
	return newAppError(ErrorTypeInvalidTransition, http.StatusConflict, "invalid order status transition", details...)
}

// NewSuffixPoolExhaustedError reports that all disambiguation suffixes are
// currently allocated. This is a transient capacity condition, not a
// permanent validation failure; callers should surface it as "try again
// shortly".
func NewSuffixPoolExhaustedError(details ...string) *AppError {
	return newAppError(ErrorTypeSuffixPoolExhausted, http.StatusServiceUnavailable, "suffix pool exhausted", details...)
}

// NewInsufficientBalanceError reports a debit that would take the balance
// below zero. The balance and ledger are left untouched.
func NewInsufficientBalanceError(details ...string) *AppError {
	return newAppError(ErrorTypeInsufficientBalance, http.StatusPaymentRequired, "insufficient balance", details...)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsErrorType checks whether err is an AppError of the given type.
func IsErrorType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound) || IsErrorType(err, ErrorTypeOrderNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return IsErrorType(err, ErrorTypeValidation)
}

func IsOrderExpiredError(err error) bool {
	return IsErrorType(err, ErrorTypeOrderExpired)
}

func IsAmountMismatchError(err error) bool {
	return IsErrorType(err, ErrorTypeAmountMismatch)
}

func IsInvalidTransitionError(err error) bool {
	return IsErrorType(err, ErrorTypeInvalidTransition)
}

func IsSuffixPoolExhaustedError(err error) bool {
	return IsErrorType(err, ErrorTypeSuffixPoolExhausted)
}

func IsInsufficientBalanceError(err error) bool {
	return IsErrorType(err, ErrorTypeInsufficientBalance)
}

// IsDuplicateError checks if the error is a database duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// MySQL duplicate entry error
	if strings.Contains(errStr, "Duplicate entry") || strings.Contains(errStr, "duplicate key") {
		return true
	}
	// SQLite / PostgreSQL unique violation
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "unique constraint") {
		return true
	}
	return false
}

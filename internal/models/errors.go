package models

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a custom error code for the application
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeStore      ErrorCode = "STORE_ERROR"

	// Registration
	ErrCodeDuplicateEmail        ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeReferralCodeExhausted ErrorCode = "REFERRAL_CODE_EXHAUSTED"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Internal   error                  `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error for error chain support
func (e *AppError) Unwrap() error {
	return e.Internal
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:       ErrCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:       ErrCodeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationError(message string, details string) *AppError {
	return &AppError{
		Code:       ErrCodeValidation,
		Message:    message,
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

// NewDatabaseError reports a failed store call as a 500 carrying message
func NewDatabaseError(message string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeStore,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// NewDuplicateEmailError is returned when the email is already on the waitlist.
// Duplicates are answered with 400 like every other rejected signup.
func NewDuplicateEmailError(email string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeDuplicateEmail,
		Message:    "Email already registered",
		StatusCode: http.StatusBadRequest,
		Internal:   err,
		Metadata: map[string]interface{}{
			"email": email,
		},
	}
}

// NewReferralCodeExhaustedError is returned when every generated referral
// code collided with an existing one.
func NewReferralCodeExhaustedError(attempts int, err error) *AppError {
	return &AppError{
		Code:       ErrCodeReferralCodeExhausted,
		Message:    "Could not allocate a referral code, please retry",
		StatusCode: http.StatusServiceUnavailable,
		Internal:   err,
		Metadata: map[string]interface{}{
			"attempts": attempts,
		},
	}
}

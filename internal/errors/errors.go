package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes.
type ErrorCode string

const (
	// General errors
	ErrInternal      ErrorCode = "INTERNAL_ERROR"
	ErrValidation    ErrorCode = "VALIDATION_ERROR"
	ErrUnprocessable ErrorCode = "UNPROCESSABLE"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrConflict      ErrorCode = "CONFLICT"
	ErrTooLarge      ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// Service-specific errors
	ErrAIService      ErrorCode = "AI_SERVICE_ERROR"
	ErrStorageService ErrorCode = "STORAGE_SERVICE_ERROR"
	ErrConversion     ErrorCode = "CONVERSION_ERROR"
	ErrDatabase       ErrorCode = "DATABASE_ERROR"
)

// AppError represents an application error with code and metadata.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the error.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnprocessable:
		return http.StatusUnprocessableEntity
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrInternal
}

// IsNotFound reports whether err carries ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == ErrNotFound
}

// StatusOf maps any error to an HTTP status.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Common error constructors
func Internal(message string) *AppError {
	return New(ErrInternal, message)
}

func InternalWrap(message string, err error) *AppError {
	return Wrap(ErrInternal, message, err)
}

func Validation(message string) *AppError {
	return New(ErrValidation, message)
}

func Unprocessable(message string) *AppError {
	return New(ErrUnprocessable, message)
}

func NotFound(resource string) *AppError {
	return New(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

func Unauthorized(message string) *AppError {
	return New(ErrUnauthorized, message)
}

func TooLarge(message string) *AppError {
	return New(ErrTooLarge, message)
}

func Configuration(message string) *AppError {
	return New(ErrConfiguration, message)
}

func Storage(message string, err error) *AppError {
	return Wrap(ErrStorageService, message, err)
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"gotercih/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. Domain errors keep their code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of an AppError, or the code matching a domain
// sentinel in the chain, or INTERNAL_ERROR
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case core.IsQueryError(err):
		return CodeInvalidQuery
	case core.IsSchemaError(err):
		return CodeSchemaInvalid
	case core.IsSourceError(err):
		return CodeSourceError
	case stderrors.Is(err, core.ErrNotLoaded):
		return CodeNotLoaded
	default:
		return CodeInternalError
	}
}

// HTTPStatus maps an error to the status code of an API response
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeInvalidQuery, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotLoaded:
		return http.StatusServiceUnavailable
	case CodeSchemaInvalid, CodeSourceError:
		return http.StatusBadGateway
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Predefined error codes
const (
	CodeInvalidQuery  = "INVALID_QUERY"
	CodeSchemaInvalid = "SCHEMA_INVALID"
	CodeSourceError   = "SOURCE_ERROR"
	CodeNotLoaded     = "NOT_LOADED"
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidQuery(message string) *AppError {
	return New(CodeInvalidQuery, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

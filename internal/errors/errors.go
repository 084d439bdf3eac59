package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
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

// Wrap wraps an error with additional context. The code is taken from an
// inner AppError, or derived from the domain error it wraps.
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

// GetCode returns the code of the outermost AppError, otherwise the code of
// the domain error the chain wraps, otherwise "UNKNOWN".
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	switch {
	case stderrors.Is(err, core.ErrNotFound):
		return CodeNotFound
	case stderrors.Is(err, core.ErrInvalidParameter):
		return CodeInvalidParameter
	case stderrors.Is(err, core.ErrInsufficientData):
		return CodeInsufficientData
	case stderrors.Is(err, core.ErrInconsistentSchema):
		return CodeInconsistentSchema
	case stderrors.Is(err, core.ErrUpstreamQuery):
		return CodeUpstreamQuery
	}
	return CodeUnknown
}

// HTTPStatus maps an error to the response status the API reports.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidParameter, CodeInvalidInput, CodeValidationError:
		return http.StatusBadRequest
	case CodeInsufficientData, CodeInconsistentSchema:
		return http.StatusUnprocessableEntity
	case CodeUpstreamQuery, CodeExternalService:
		return http.StatusBadGateway
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeInconsistentSchema = "INCONSISTENT_SCHEMA"
	CodeUpstreamQuery      = "UPSTREAM_QUERY_ERROR"
	CodeUnknown            = "UNKNOWN"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeStructural    ErrorType = "STRUCTURAL_VALIDATION"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeUnprocessable ErrorType = "UNPROCESSABLE"
	ErrorTypeTooLarge      ErrorType = "PAYLOAD_TOO_LARGE"

	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
)

// AppError is the error shape that crosses the application boundary.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a single detail entry
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails merges error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

func newAppError(t ErrorType, status int, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message)
}

// NewStructuralError reports an import payload whose overall shape is unusable.
// The import is aborted as a whole.
func NewStructuralError(message string) *AppError {
	return newAppError(ErrorTypeStructural, http.StatusUnprocessableEntity, message).
		WithCode("STRUCTURAL_VALIDATION")
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource))
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message)
}

// NewPayloadTooLargeError creates an error for oversized request bodies
func NewPayloadTooLargeError(limit int64) *AppError {
	return newAppError(ErrorTypeTooLarge, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("payload exceeds %d bytes", limit))
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message)
}

// NewUnavailableError creates a service unavailable error
func NewUnavailableError(service string) *AppError {
	return newAppError(ErrorTypeUnavailable, http.StatusServiceUnavailable,
		fmt.Sprintf("service '%s' is unavailable", service))
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	if IsType(err, ErrorTypeNotFound) {
		return true
	}
	de := GetDomainError(err)
	return de != nil && de.Type == DomainNotFoundError
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsStructural checks if an error aborted an import for structural reasons
func IsStructural(err error) bool {
	return IsType(err, ErrorTypeStructural)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}
	if GetDomainError(err) != nil {
		return fmt.Errorf("%s: %w", message, err)
	}

	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// ToAppError normalises any error into an AppError for transport.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr
	}
	var verrs *ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs.Error()).
			WithCode("FIELD_VALIDATION_ERROR").
			WithDetail("fields", verrs.ToMap())
	}
	if de := GetDomainError(err); de != nil {
		appErr := &AppError{
			Type:       domainTypeToErrorType(de.Type),
			Message:    de.Message,
			Code:       de.Code,
			Cause:      err,
			HTTPStatus: de.StatusCode,
		}
		if len(de.Details) > 0 {
			appErr.WithDetails(de.Details)
		}
		return appErr
	}
	return NewInternalError("an internal error occurred").WithCause(err)
}

func domainTypeToErrorType(t DomainErrorType) ErrorType {
	switch t {
	case DomainValidationError:
		return ErrorTypeValidation
	case DomainNotFoundError:
		return ErrorTypeNotFound
	case DomainConflictError, DomainConnectionRejected:
		return ErrorTypeConflict
	case DomainBusinessRuleError:
		return ErrorTypeUnprocessable
	default:
		return ErrorTypeInternal
	}
}

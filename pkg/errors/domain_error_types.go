package errors

import (
	"errors"
	"fmt"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates input validation failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a business rule violation
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainConflictError indicates a conflict with existing state
	DomainConflictError DomainErrorType = "CONFLICT"

	// DomainConnectionRejected indicates a proposed edge failed a connection rule
	DomainConnectionRejected DomainErrorType = "CONNECTION_REJECTED"
)

// Connection rule codes, one per rule of the connection validator.
const (
	CodeBooleanNextEdge       = "BOOLEAN_NEXT_EDGE"
	CodeDuplicateBranch       = "DUPLICATE_BRANCH"
	CodeMultipleSuccessors    = "MULTIPLE_SUCCESSORS"
	CodeBranchOnLinearSource  = "BRANCH_ON_LINEAR_SOURCE"
	CodeDuplicateConnection   = "DUPLICATE_CONNECTION"
	CodeUnknownCriterionKind  = "UNKNOWN_CRITERION_KIND"
	CodeCriterionNotAllowed   = "CRITERION_NOT_ALLOWED"
	CodeQuestionNotFound      = "QUESTION_NOT_FOUND"
	CodeQuestionnaireNotFound = "QUESTIONNAIRE_NOT_FOUND"
	CodeEmptyQuestionnaire    = "EMPTY_QUESTIONNAIRE"
	CodeEdgeNotFound          = "EDGE_NOT_FOUND"
)

// DomainError represents a domain-specific error with rich context
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

// Is matches on type and code so sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// GetDomainError extracts a DomainError from an error chain
func GetDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// HasCode reports whether err carries a DomainError or AppError with the
// given code.
func HasCode(err error, code string) bool {
	if de := GetDomainError(err); de != nil && de.Code == code {
		return true
	}
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return 400
	case DomainBusinessRuleError:
		return 422
	case DomainNotFoundError:
		return 404
	case DomainConflictError, DomainConnectionRejected:
		return 409
	default:
		return 500
	}
}

// Sentinels for errors.Is comparisons. Never mutate them; use the
// constructors below to get an instance with details attached.
var (
	ErrQuestionNotFound = NewDomainError(
		DomainNotFoundError,
		CodeQuestionNotFound,
		"The requested question does not exist",
	)

	ErrQuestionnaireNotFound = NewDomainError(
		DomainNotFoundError,
		CodeQuestionnaireNotFound,
		"The requested questionnaire does not exist",
	)

	ErrEmptyQuestionnaire = NewDomainError(
		DomainBusinessRuleError,
		CodeEmptyQuestionnaire,
		"A questionnaire needs at least one question to be exported",
	)

	ErrUnknownCriterionKind = NewDomainError(
		DomainValidationError,
		CodeUnknownCriterionKind,
		"Unknown criterion kind",
	)
)

// QuestionNotFound returns a not-found error for the given question id.
func QuestionNotFound(id string) *DomainError {
	return NewDomainError(DomainNotFoundError, CodeQuestionNotFound,
		fmt.Sprintf("question %q does not exist", id)).WithDetail("question_id", id)
}

// QuestionnaireNotFound returns a not-found error for the given session id.
func QuestionnaireNotFound(id string) *DomainError {
	return NewDomainError(DomainNotFoundError, CodeQuestionnaireNotFound,
		fmt.Sprintf("questionnaire %q does not exist", id)).WithDetail("questionnaire_id", id)
}

// UnknownCriterionKind returns an error for a kind absent from the catalog.
func UnknownCriterionKind(kind string) *DomainError {
	return NewDomainError(DomainValidationError, CodeUnknownCriterionKind,
		fmt.Sprintf("unknown criterion kind %q", kind)).WithDetail("kind", kind)
}

// ConnectionRejected builds the error returned when a connection rule fails.
func ConnectionRejected(code, message string) *DomainError {
	return NewDomainError(DomainConnectionRejected, code, message)
}

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field string, message string) {
	err := NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).
		WithDetail("field", field)
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// ErrOrNil returns v as an error only when it holds something.
func (v *ValidationErrors) ErrOrNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

// ToMap converts validation errors to a field keyed map
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}

// Package errors provides structured error handling for the planner.
// Every rejected operation carries one of the codes below so callers can map
// it onto a transport status without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Client errors
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidState     ErrorCode = "INVALID_STATE"
	CodeInvalidPlan      ErrorCode = "INVALID_PLAN"

	// Planning errors
	CodeNoEligibleRecipe            ErrorCode = "NO_ELIGIBLE_RECIPE"
	CodeSubscriptionWindowViolation ErrorCode = "SUBSCRIPTION_WINDOW_VIOLATION"

	// Server errors
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status an API layer should answer with
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeValidationFailed:
		return http.StatusBadRequest
	case CodeForbidden, CodeSubscriptionWindowViolation:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState:
		return http.StatusConflict
	case CodeInvalidPlan, CodeNoEligibleRecipe:
		return http.StatusUnprocessableEntity
	case CodeExternalServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewNotFoundError reports a missing meal, preparation, day or list item
func NewNotFoundError(resource, id string) *AppError {
	return NewAppError(
		CodeNotFound,
		fmt.Sprintf("%s not found", resource),
		fmt.Sprintf("%s with ID %s does not exist", resource, id),
	).WithMetadata("resource", resource).WithMetadata("id", id)
}

// NewForbiddenError reports an entity that belongs to another user
func NewForbiddenError(resource, id string) *AppError {
	return NewAppError(
		CodeForbidden,
		"Access forbidden",
		fmt.Sprintf("%s %s does not belong to the requesting user", resource, id),
	).WithMetadata("resource", resource).WithMetadata("id", id)
}

// NewInvalidStateError reports a mutation the current state does not allow
func NewInvalidStateError(details string) *AppError {
	return NewAppError(CodeInvalidState, "Operation not allowed in current state", details)
}

// NewInvalidPlanError reports a prep plan that fails validation
func NewInvalidPlanError(cause error) *AppError {
	return NewAppError(CodeInvalidPlan, "Invalid prep plan", cause.Error()).WithCause(cause)
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewNoEligibleRecipeError reports that no catalog recipe satisfied the constraints
func NewNoEligibleRecipeError(mealType string) *AppError {
	return NewAppError(
		CodeNoEligibleRecipe,
		"No eligible recipe",
		fmt.Sprintf("no recipe matches the constraints for %s", mealType),
	).WithMetadata("meal_type", mealType)
}

// NewSubscriptionWindowError reports a date outside the user's planning horizon
func NewSubscriptionWindowError(date string, cause error) *AppError {
	return NewAppError(
		CodeSubscriptionWindowViolation,
		"Date outside subscription window",
		fmt.Sprintf("%s is not within the allowed planning horizon", date),
	).WithMetadata("date", date).WithCause(cause)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error carries a specific error code anywhere in its chain
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// FieldError describes one rejected command field
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// FieldErrors represents every rejected field of a command
type FieldErrors []FieldError

// Error implements the error interface
func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(f))
	for _, e := range f {
		messages = append(messages, e.Message)
	}
	return strings.Join(messages, "; ")
}

// NewFieldValidationError creates a validation error listing the rejected fields
func NewFieldValidationError(fields []FieldError) *AppError {
	fe := FieldErrors(fields)
	return NewAppError(CodeValidationFailed, "Validation failed", fe.Error()).
		WithMetadata("validation_errors", fe)
}

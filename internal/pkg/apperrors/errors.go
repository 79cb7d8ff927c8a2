package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrUnauthorized = errors.New("authentication required")

	// ErrAuthorization is returned when the store's access policy refused a read or write.
	// The platform gives no structural detail, so callers must not retry.
	ErrAuthorization = errors.New("not permitted")

	// ErrTransient marks connectivity failures that are safe to retry with backoff.
	ErrTransient = errors.New("transient network error")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Profile errors
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrAccountPending  = errors.New("account is pending approval")
	ErrAccountDisabled = errors.New("account is suspended")
)

// Message errors
var (
	ErrMessageNotFound = errors.New("message not found")
)

// Operations errors
var (
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrRouteNotFound      = errors.New("route not found")
	ErrMaterialNotFound   = errors.New("material not found")
)

// ValidationError is raised locally before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements error interface
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidationFailed
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PartialFailure reports the items of a batch that failed while the rest succeeded.
type PartialFailure struct {
	Failed []uuid.UUID
	Causes map[uuid.UUID]error
}

// Add records a failed item
func (p *PartialFailure) Add(id uuid.UUID, err error) {
	if p.Causes == nil {
		p.Causes = make(map[uuid.UUID]error)
	}
	p.Failed = append(p.Failed, id)
	p.Causes[id] = err
}

// HasFailures reports whether any item failed
func (p *PartialFailure) HasFailures() bool {
	return p != nil && len(p.Failed) > 0
}

// Error implements error interface
func (p *PartialFailure) Error() string {
	ids := make([]string, 0, len(p.Failed))
	for _, id := range p.Failed {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("%d item(s) failed: %s", len(p.Failed), strings.Join(ids, ", "))
}

// Unwrap exposes the individual causes to errors.Is / errors.As
func (p *PartialFailure) Unwrap() []error {
	errs := make([]error, 0, len(p.Failed))
	for _, id := range p.Failed {
		errs = append(errs, p.Causes[id])
	}
	return errs
}

// Retryable reports whether a failed operation may be attempted again.
// Validation and authorization failures are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrAuthorization) {
		return false
	}
	return errors.Is(err, ErrTransient)
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrAuthorization,
		Message: message,
	}
}

// NewConflictError reports a write refused because of the resource's current state
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

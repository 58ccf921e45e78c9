package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code and message, so wrapped
// sentinels still match with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeUpstream         = "UPSTREAM_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidStrategy  = NewDomainError(ErrCodeValidation, "invalid result strategy")
	ErrInvalidFetchMode = NewDomainError(ErrCodeValidation, "invalid fetch mode")
	ErrInvalidCategory  = NewDomainError(ErrCodeValidation, "invalid result category")
	ErrEmptyStructure   = NewDomainError(ErrCodeValidation, "structure encoding is empty")
	ErrInvalidMolfile   = NewDomainError(ErrCodeValidation, "invalid molfile")
	ErrEditorRequired   = NewDomainError(ErrCodeValidation, "editor is required")
	ErrNoSubmission     = NewDomainError(ErrCodeValidation, "no structure submitted by the editor")
)

// Not found errors
var (
	ErrPanelNotFound = NewDomainError(ErrCodeNotFound, "panel not found")
)

// Conflict errors
var (
	ErrEditorAlreadyReady  = NewDomainError(ErrCodeConflict, "editor already initialized")
	ErrRetrievalInProgress = NewDomainError(ErrCodeConflict, "retrieval already in progress")
)

// Operation errors
var (
	ErrPanelClosed = NewDomainError(ErrCodeInvalidOperation, "panel is closed")
)

// Upstream errors
var (
	ErrSearchFailed = NewDomainError(ErrCodeUpstream, "structure search failed")
)

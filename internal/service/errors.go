// Package service provides application-level services for managing journals,
// analyses, analysis jobs, and users.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers check with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrJournalNotFound indicates the journal does not exist or is not
	// visible to the requesting user. API layer maps this to 404.
	ErrJournalNotFound = errors.New("journal not found")

	// ErrAnalysisNotFound indicates the analysis does not exist or is not
	// owned by the requesting user. API layer maps this to 404.
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrJobNotFound indicates the analysis job does not exist.
	ErrJobNotFound = errors.New("analysis job not found")

	// ErrJobNotResettable indicates a reset was requested for a job that is
	// neither failed nor stuck in processing. API layer maps this to 409.
	ErrJobNotResettable = errors.New("job cannot be reset in its current state")

	// ErrReframeIndexOutOfRange indicates an accept-reframe request with an
	// index outside the analysis's reframe list. API layer maps this to 400.
	ErrReframeIndexOutOfRange = errors.New("reframe index out of range")
)

// ServiceError wraps unexpected errors from a service with operation context.
type ServiceError struct {
	// Operation is the operation that failed (e.g. "create_journal")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError. Known sentinel errors pass
// through unwrapped so callers can match them directly.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrJournalNotFound,
		ErrAnalysisNotFound,
		ErrJobNotFound,
		ErrJobNotResettable,
		ErrReframeIndexOutOfRange,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

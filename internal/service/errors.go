package service

import (
	"fmt"

	"github.com/phrazzld/taskr-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is(); the API layer maps them to status codes.
var (
	// ErrTaskNotFound indicates the requested task does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = store.ErrTaskNotFound

	// ErrInvalidPagination indicates an unusable page or limit.
	// Errors carrying it also match domain.ErrValidation.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidPagination = store.ErrInvalidPagination
)

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
)

// TaskFilter selects a page of tasks. Nil Status or Priority means the filter
// is not applied. Page is 1-indexed.
type TaskFilter struct {
	Status   *domain.TaskStatus   `json:"status,omitempty"`
	Priority *domain.TaskPriority `json:"priority,omitempty"`
	Page     int                  `json:"page"`
	Limit    int                  `json:"limit"`
}

// Offset returns the number of rows skipped before the requested page.
func (f TaskFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Validate checks that the page and limit are usable.
func (f TaskFilter) Validate() error {
	if f.Page < 1 || f.Limit < 1 {
		return ErrInvalidPagination
	}
	return nil
}

// TaskStore defines the interface for task data persistence.
//
// Tasks returned by any read carry their assignee and creator resolved to
// the restricted UserRef projection (id, first and last name).
type TaskStore interface {
	// FindByStatusAndPriority returns every task matching the given filters.
	// A nil filter is omitted; both nil returns all tasks. No pagination.
	FindByStatusAndPriority(
		ctx context.Context,
		status *domain.TaskStatus,
		priority *domain.TaskPriority,
	) ([]*domain.Task, error)

	// FindPaginated returns one page of tasks matching filter, newest first,
	// together with the total number of matching tasks.
	// Returns ErrInvalidPagination if Page or Limit is below 1.
	FindPaginated(ctx context.Context, filter TaskFilter) ([]*domain.Task, int, error)

	// FindByUser returns every task assigned to userID.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// FindAll returns every task, newest first.
	FindAll(ctx context.Context) ([]*domain.Task, error)

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetForUpdate retrieves a task and locks it until the surrounding
	// transaction ends. Outside a transaction it behaves like GetByID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Create saves a new task. CreatedAt and UpdatedAt are set by the store
	// and written back to task.
	// Returns ErrInvalidEntity if a referenced user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// Update overwrites a task's mutable fields. UpdatedAt is set by the
	// store and written back to task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

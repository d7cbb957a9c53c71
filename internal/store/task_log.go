package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
)

// TaskLogStore defines the interface for the task audit log.
// Entries are append-only.
type TaskLogStore interface {
	// Append inserts a new log entry.
	Append(ctx context.Context, log *domain.TaskLog) error

	// ListByTask returns the entries recorded for taskID, newest first.
	// Entries of deleted tasks are still returned.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskLog, error)
}

package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskAction names the mutation a TaskLog documents
type TaskAction string

// Actions recorded in the task audit log
const (
	TaskActionCreated TaskAction = "CREATED"
	TaskActionUpdated TaskAction = "UPDATED"
	TaskActionDeleted TaskAction = "DELETED"
)

// Validation errors for TaskLog
var (
	ErrEmptyTaskLogTaskID = errors.New("task log task ID cannot be empty")
	ErrEmptyTaskAction    = errors.New("task log action cannot be empty")
)

// TaskLog is an immutable audit entry documenting one mutation of a task.
// It is written in the same transaction as the mutation it describes.
type TaskLog struct {
	ID        uuid.UUID  `json:"id"`
	TaskID    uuid.UUID  `json:"taskId"`
	Action    TaskAction `json:"action"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewTaskLog creates a log entry for the given task and action.
func NewTaskLog(taskID uuid.UUID, action TaskAction) (*TaskLog, error) {
	log := &TaskLog{
		ID:        uuid.New(),
		TaskID:    taskID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}

	if err := log.Validate(); err != nil {
		return nil, err
	}

	return log, nil
}

// Validate checks if the TaskLog has valid data.
func (l *TaskLog) Validate() error {
	if l.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if l.TaskID == uuid.Nil {
		return NewValidationError("taskId", "is required", ErrEmptyTaskLogTaskID)
	}
	if l.Action == "" {
		return NewValidationError("action", "is required", ErrEmptyTaskAction)
	}
	return nil
}

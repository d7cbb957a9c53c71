package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus represents the progress state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// TaskPriority represents how urgent a task is
type TaskPriority string

// Possible task priority values
const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// MaxTaskTitleLength is the maximum number of characters in a task title.
const MaxTaskTitleLength = 255

// Validation errors for Task
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle       = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong     = errors.New("task title exceeds 255 characters")
	ErrEmptyTaskDescription = errors.New("task description cannot be empty")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrInvalidTaskPriority  = errors.New("invalid task priority")
	ErrMissingTaskReference = errors.New("task user reference cannot be empty")
)

// Task is a unit of work tracked by the system. It carries its ownership
// (assignee and creator), progress state and scheduling information.
//
// CompletedAt is set once, the first time the task reaches COMPLETED, and is
// never cleared or moved afterwards.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	AssignedTo  *UserRef     `json:"assignedTo"`
	CreatedBy   *UserRef     `json:"createdBy"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewTaskParams holds the caller-supplied fields of a new task.
// Status and Priority are optional and fall back to TODO and MEDIUM.
type NewTaskParams struct {
	Title       string
	Description string
	AssignedTo  uuid.UUID
	CreatedBy   uuid.UUID
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *time.Time
}

// NewTask builds an in-memory Task from params. The task is not persisted;
// its assignee and creator are reference-only stubs that the store resolves.
// CreatedAt and UpdatedAt are left for the store to fill in.
func NewTask(params NewTaskParams) (*Task, error) {
	assignedTo, err := NewUserRef("assignedTo", params.AssignedTo)
	if err != nil {
		return nil, err
	}
	createdBy, err := NewUserRef("createdBy", params.CreatedBy)
	if err != nil {
		return nil, err
	}

	task := &Task{
		ID:          uuid.New(),
		Title:       params.Title,
		Description: params.Description,
		AssignedTo:  assignedTo,
		CreatedBy:   createdBy,
		Status:      TaskStatusTodo,
		Priority:    TaskPriorityMedium,
		DueDate:     params.DueDate,
	}
	if params.Status != nil {
		task.Status = *params.Status
	}
	if params.Priority != nil {
		task.Priority = *params.Priority
	}

	// A task created directly as COMPLETED gets its completion stamp now.
	if task.Status == TaskStatusCompleted {
		now := time.Now().UTC()
		task.CompletedAt = &now
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Clone returns a copy of t that shares no pointers with it.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.AssignedTo != nil {
		user := *t.AssignedTo
		c.AssignedTo = &user
	}
	if t.CreatedBy != nil {
		user := *t.CreatedBy
		c.CreatedBy = &user
	}
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		c.CompletedAt = &completed
	}
	return &c
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrEmptyTaskID)
	}
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return NewValidationError("description", "is required", ErrEmptyTaskDescription)
	}
	if t.AssignedTo == nil || t.AssignedTo.ID == uuid.Nil {
		return NewValidationError("assignedTo", "is required", ErrMissingTaskReference)
	}
	if t.CreatedBy == nil || t.CreatedBy.ID == uuid.Nil {
		return NewValidationError("createdBy", "is required", ErrMissingTaskReference)
	}
	if !t.Status.IsValid() {
		return NewValidationError("status", "has invalid value", ErrInvalidTaskStatus)
	}
	if !t.Priority.IsValid() {
		return NewValidationError("priority", "has invalid value", ErrInvalidTaskPriority)
	}
	return nil
}

// TaskUpdate is a partial update. A nil field means "leave unchanged"; there
// is no way to null out a field by omission.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *time.Time
	AssignedTo  *uuid.UUID
	CreatedBy   *uuid.UUID
}

// IsEmpty reports whether the update carries no fields.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.DueDate == nil && u.AssignedTo == nil && u.CreatedBy == nil
}

// ApplyUpdate overwrites only the fields present in u. Reference fields are
// replaced with reference-only stubs; absent references keep their resolved
// value. When u moves the task to COMPLETED and CompletedAt is unset, it is
// stamped with now. CompletedAt is never cleared here.
//
// The task is left untouched when u fails validation.
func (t *Task) ApplyUpdate(u TaskUpdate, now time.Time) error {
	next := *t

	if u.Title != nil {
		next.Title = *u.Title
	}
	if u.Description != nil {
		next.Description = *u.Description
	}
	if u.Status != nil {
		next.Status = *u.Status
	}
	if u.Priority != nil {
		next.Priority = *u.Priority
	}
	if u.DueDate != nil {
		due := *u.DueDate
		next.DueDate = &due
	}
	if u.AssignedTo != nil {
		ref, err := NewUserRef("assignedTo", *u.AssignedTo)
		if err != nil {
			return err
		}
		next.AssignedTo = ref
	}
	if u.CreatedBy != nil {
		ref, err := NewUserRef("createdBy", *u.CreatedBy)
		if err != nil {
			return err
		}
		next.CreatedBy = ref
	}

	if u.Status != nil && *u.Status == TaskStatusCompleted && next.CompletedAt == nil {
		completedAt := now.UTC()
		next.CompletedAt = &completedAt
	}

	if err := next.Validate(); err != nil {
		return err
	}

	*t = next
	return nil
}

// IsValid reports whether s is a known task status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// IsValid reports whether p is a known task priority.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// ParseTaskStatus converts raw input into a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	status := TaskStatus(raw)
	if !status.IsValid() {
		return "", NewValidationError("status", "has invalid value", ErrInvalidTaskStatus)
	}
	return status, nil
}

// ParseTaskPriority converts raw input into a TaskPriority.
func ParseTaskPriority(raw string) (TaskPriority, error) {
	priority := TaskPriority(raw)
	if !priority.IsValid() {
		return "", NewValidationError("priority", "has invalid value", ErrInvalidTaskPriority)
	}
	return priority, nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewValidationError("title", "is required", ErrEmptyTaskTitle)
	}
	if utf8.RuneCountInString(title) > MaxTaskTitleLength {
		return NewValidationError("title", "is too long", ErrTaskTitleTooLong)
	}
	return nil
}

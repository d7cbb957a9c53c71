package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
)

// CreateTaskRequest defines the payload for the task creation endpoint.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=255"`
	Description string     `json:"description" validate:"required"`
	AssignedTo  string     `json:"assignedTo"  validate:"required,uuid"`
	CreatedBy   string     `json:"createdBy"   validate:"required,uuid"`
	Status      *string    `json:"status"      validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
	Priority    *string    `json:"priority"    validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate     *time.Time `json:"dueDate"`
}

// ToParams converts a validated request into domain parameters.
func (r CreateTaskRequest) ToParams() (domain.NewTaskParams, error) {
	assignedTo, err := parseUserField("assignedTo", r.AssignedTo)
	if err != nil {
		return domain.NewTaskParams{}, err
	}
	createdBy, err := parseUserField("createdBy", r.CreatedBy)
	if err != nil {
		return domain.NewTaskParams{}, err
	}

	params := domain.NewTaskParams{
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  assignedTo,
		CreatedBy:   createdBy,
		DueDate:     r.DueDate,
	}
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		params.Status = &status
	}
	if r.Priority != nil {
		priority := domain.TaskPriority(*r.Priority)
		params.Priority = &priority
	}
	return params, nil
}

// UpdateTaskRequest defines the payload for the partial task update endpoint.
// Absent fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"       validate:"omitempty,max=255"`
	Description *string    `json:"description"`
	AssignedTo  *string    `json:"assignedTo"  validate:"omitempty,uuid"`
	CreatedBy   *string    `json:"createdBy"   validate:"omitempty,uuid"`
	Status      *string    `json:"status"      validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
	Priority    *string    `json:"priority"    validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate     *time.Time `json:"dueDate"`
}

// ToUpdate converts a validated request into a domain update.
func (r UpdateTaskRequest) ToUpdate() (domain.TaskUpdate, error) {
	update := domain.TaskUpdate{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
	}
	if r.AssignedTo != nil {
		id, err := parseUserField("assignedTo", *r.AssignedTo)
		if err != nil {
			return domain.TaskUpdate{}, err
		}
		update.AssignedTo = &id
	}
	if r.CreatedBy != nil {
		id, err := parseUserField("createdBy", *r.CreatedBy)
		if err != nil {
			return domain.TaskUpdate{}, err
		}
		update.CreatedBy = &id
	}
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		update.Status = &status
	}
	if r.Priority != nil {
		priority := domain.TaskPriority(*r.Priority)
		update.Priority = &priority
	}
	return update, nil
}

func parseUserField(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, "must be a UUID", domain.ErrInvalidID)
	}
	return id, nil
}

// HealthResponse is the body of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

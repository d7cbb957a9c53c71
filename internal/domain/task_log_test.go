package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewTaskLog(t *testing.T) {
	t.Parallel()
	taskID := uuid.New()

	log, err := NewTaskLog(taskID, TaskActionUpdated)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if log.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if log.TaskID != taskID {
		t.Errorf("Expected task ID %s, got %s", taskID, log.TaskID)
	}

	if log.Action != TaskActionUpdated {
		t.Errorf("Expected action %s, got %s", TaskActionUpdated, log.Action)
	}

	if log.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	_, err = NewTaskLog(uuid.Nil, TaskActionCreated)
	if !errors.Is(err, ErrEmptyTaskLogTaskID) {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskLogTaskID, err)
	}

	_, err = NewTaskLog(taskID, "")
	if !errors.Is(err, ErrEmptyTaskAction) {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskAction, err)
	}
}

func TestNewUserRef(t *testing.T) {
	t.Parallel()
	id := uuid.New()

	ref, err := NewUserRef("assignedTo", id)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ref.ID != id || ref.FirstName != "" || ref.LastName != "" {
		t.Errorf("Expected reference-only stub for %s, got %+v", id, ref)
	}

	_, err = NewUserRef("assignedTo", uuid.Nil)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if validationErr.Field != "assignedTo" {
		t.Errorf("Expected field assignedTo, got %s", validationErr.Field)
	}
}

func TestIsValidUserRole(t *testing.T) {
	t.Parallel()
	if !IsValidUserRole(UserRoleAdmin) || !IsValidUserRole(UserRoleUser) {
		t.Error("Expected known roles to be valid")
	}
	if IsValidUserRole("ROOT") {
		t.Error("Expected unknown role to be invalid")
	}
}

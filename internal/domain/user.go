package domain

import (
	"github.com/google/uuid"
)

// UserRole is the authorization role carried by a user.
type UserRole string

// Possible user roles
const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// UserRef is the restricted projection of a user that travels with a task.
// Only identity and display names are ever exposed; credentials never leave
// the user store.
//
// A reference-only stub (ID set, names empty) is what the task service hands
// to the store when assigning a task; the store resolves names on read.
type UserRef struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
}

// NewUserRef returns a reference-only stub pointing at the given user.
// A nil UUID is rejected instead of silently producing a dangling reference.
func NewUserRef(field string, id uuid.UUID) (*UserRef, error) {
	if id == uuid.Nil {
		return nil, NewValidationError(field, "must reference a user", ErrInvalidID)
	}
	return &UserRef{ID: id}, nil
}

// IsValidUserRole reports whether role is one of the known roles.
func IsValidUserRole(role UserRole) bool {
	switch role {
	case UserRoleUser, UserRoleAdmin:
		return true
	default:
		return false
	}
}

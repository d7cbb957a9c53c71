//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// fixturePassword is hashed into every fixture user.
const fixturePassword = "password123456"

// InsertUser creates a user row through db (a *sql.DB or *sql.Tx) and returns
// its projection.
func InsertUser(t *testing.T, db store.DBTX, firstName, lastName string, role domain.UserRole) *domain.UserRef {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(fixturePassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash fixture password: %v", err)
	}

	id := uuid.New()
	email := fmt.Sprintf("%s@example.com", id.String())

	_, err = db.ExecContext(context.Background(), `
		INSERT INTO users (id, email, hashed_password, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, email, string(hash), firstName, lastName, string(role))
	if err != nil {
		t.Fatalf("Failed to insert fixture user: %v", err)
	}

	return &domain.UserRef{ID: id, FirstName: firstName, LastName: lastName}
}

// CleanupTasks registers a cleanup that removes the given users together
// with their tasks and the logs of those tasks. Use it in tests that commit.
func CleanupTasks(t *testing.T, db *sql.DB, userIDs ...uuid.UUID) {
	t.Helper()

	t.Cleanup(func() {
		ctx := context.Background()
		for _, id := range userIDs {
			statements := []string{
				`DELETE FROM task_logs WHERE task_id IN (
					SELECT id FROM tasks WHERE assigned_to = $1 OR created_by = $1)`,
				`DELETE FROM tasks WHERE assigned_to = $1 OR created_by = $1`,
				`DELETE FROM users WHERE id = $1`,
			}
			for _, stmt := range statements {
				if _, err := db.ExecContext(ctx, stmt, id); err != nil {
					t.Logf("Warning: cleanup failed: %v", err)
				}
			}
		}
	})
}

// CleanupTaskLogs removes log rows for task IDs, covering logs whose task is
// already deleted.
func CleanupTaskLogs(t *testing.T, db *sql.DB, taskIDs ...uuid.UUID) {
	t.Helper()

	t.Cleanup(func() {
		for _, id := range taskIDs {
			if _, err := db.ExecContext(context.Background(),
				`DELETE FROM task_logs WHERE task_id = $1`, id); err != nil {
				t.Logf("Warning: cleanup failed: %v", err)
			}
		}
	})
}

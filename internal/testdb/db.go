//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskr-api/internal/platform/postgres"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 10 * time.Second

var migrateOnce sync.Once
var migrateErr error

// GetTestDatabaseURL returns the database URL for tests, or "" when none is configured.
func GetTestDatabaseURL() string {
	for _, name := range []string{"TASKR_TEST_DB_URL", "DATABASE_URL"} {
		if url := os.Getenv(name); url != "" {
			return url
		}
	}
	return ""
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDB opens a connection to the test database and makes sure the
// schema is migrated. The test is skipped when no database is configured.
// The connection is closed when the test finishes.
func GetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping database test")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database connection: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Database connection failed: %v", err)
	}

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, "up", nil)
	})
	if migrateErr != nil {
		t.Fatalf("Failed to apply migrations: %v", migrateErr)
	}

	return db
}

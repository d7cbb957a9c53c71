package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/taskr-api/internal/config"
	"github.com/phrazzld/taskr-api/internal/platform/memory"
	"github.com/phrazzld/taskr-api/internal/platform/postgres"
	"github.com/phrazzld/taskr-api/internal/store"
)

// persistence bundles the stores of one backend.
type persistence struct {
	transactor store.Transactor
	tasks      store.TaskStore
	logs       store.TaskLogStore

	// db is nil for the memory backend.
	db *sql.DB
}

// setupPersistence opens the configured persistence backend.
func setupPersistence(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*persistence, error) {
	switch cfg.Database.Driver {
	case config.DatabaseDriverPostgres:
		db, err := setupAppDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &persistence{
			transactor: postgres.NewPostgresTransactor(db, logger),
			tasks:      postgres.NewPostgresTaskStore(db, logger),
			logs:       postgres.NewPostgresTaskLogStore(db, logger),
			db:         db,
		}, nil

	case config.DatabaseDriverMemory:
		backend := memory.NewBackend(logger)
		if err := seedUsers(backend, cfg.Database.SeedUsers, logger); err != nil {
			return nil, err
		}
		logger.Warn("using in-memory persistence; data is lost on shutdown")
		return &persistence{
			transactor: backend,
			tasks:      backend.Tasks(),
			logs:       backend.Logs(),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// setupAppDatabase establishes a connection to the database and configures connection pools.
// Returns the database connection if successful, or an error if the connection fails.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	logger.Info("Database connection established",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns)
	return db, nil
}

// seedUsers registers the configured "First Last" users with the memory
// backend and logs their generated IDs.
func seedUsers(backend *memory.Backend, names []string, logger *slog.Logger) error {
	for _, name := range names {
		first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
		if first == "" {
			return fmt.Errorf("invalid seed user %q", name)
		}
		user := backend.AddUser(first, strings.TrimSpace(last))
		logger.Info("seeded user",
			"user_id", user.ID,
			"first_name", user.FirstName,
			"last_name", user.LastName)
	}
	return nil
}

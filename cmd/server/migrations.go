package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskr-api/internal/config"
	"github.com/phrazzld/taskr-api/internal/platform/postgres"
)

// handleMigrations executes a goose migration command against the configured
// PostgreSQL database. It's called from run() when the -migrate flag is set.
func handleMigrations(ctx context.Context, cfg *config.Config, migrateCmd string, logger *slog.Logger) error {
	if cfg.Database.Driver != config.DatabaseDriverPostgres {
		return fmt.Errorf("migrations require the %s database driver, got %s",
			config.DatabaseDriverPostgres, cfg.Database.Driver)
	}

	logger.Info("Executing migrations", "command", migrateCmd)

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Error closing database connection", "error", closeErr)
		}
	}()

	if err := postgres.Migrate(ctx, db, migrateCmd, logger); err != nil {
		return fmt.Errorf("migration %s failed: %w", migrateCmd, err)
	}

	logger.Info("Migrations completed", "command", migrateCmd)
	return nil
}

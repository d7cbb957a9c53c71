package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/taskr-api/internal/cache"
	"github.com/phrazzld/taskr-api/internal/config"
	"github.com/phrazzld/taskr-api/internal/service"
	"github.com/phrazzld/taskr-api/internal/service/auth"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	persistence *persistence
	cache       cache.Cache
	cacheCloser io.Closer

	jwtService  auth.JWTService
	taskService service.TaskService
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.persistence, err = setupPersistence(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up persistence: %w", err)
	}

	app.cache, app.cacheCloser, err = setupCache(ctx, cfg.Cache, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to set up cache: %w", err)
	}

	app.taskService, err = service.NewTaskService(
		app.persistence.transactor,
		app.persistence.tasks,
		app.persistence.logs,
		app.cache,
		service.TaskServiceConfig{
			ListTTL:  cfg.Cache.ListTTL(),
			AdminTTL: cfg.Cache.AdminTTL(),
		},
		logger,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.cacheCloser != nil {
		if err := app.cacheCloser.Close(); err != nil {
			app.logger.Error("Error closing cache connection", "error", err)
		}
	}

	if app.persistence != nil && app.persistence.db != nil {
		if err := app.persistence.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

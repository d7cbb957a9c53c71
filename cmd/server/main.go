// Package main implements the entry point for the taskr API server, which
// manages tasks and their audit trail over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/config"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/service/auth"
)

// main is the entry point for the taskr-api server.
// It loads configuration, sets up logging, opens the persistence and cache
// backends, and serves HTTP until SIGINT or SIGTERM arrives. With -migrate it
// runs the requested migration command and exits instead.
func main() {
	migrateCmd := flag.String("migrate", "", "run a database migration command (up, down, reset, status, version) and exit")
	tokenFor := flag.String("token-for", "", "print an access token for the given user ID and exit")
	tokenRole := flag.String("token-role", string(domain.UserRoleUser), "role carried by the token printed with -token-for")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrateCmd, *tokenFor, *tokenRole); err != nil {
		log.Fatalf("taskr-api: %v", err)
	}
}

// run wires the application together and executes the requested mode.
func run(ctx context.Context, migrateCmd, tokenFor, tokenRole string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	if tokenFor != "" {
		return printToken(ctx, cfg.Auth, tokenFor, tokenRole)
	}

	if migrateCmd != "" {
		return handleMigrations(ctx, cfg, migrateCmd, logger)
	}

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// printToken issues a signed access token for local testing of the API.
func printToken(ctx context.Context, cfg config.AuthConfig, rawUserID, rawRole string) error {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", rawUserID, err)
	}

	jwtService, err := auth.NewJWTService(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	token, err := jwtService.GenerateToken(ctx, userID, domain.UserRole(rawRole))
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	slog.Debug("issued access token", "user_id", userID, "role", rawRole)
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}

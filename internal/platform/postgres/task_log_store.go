package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/platform/logger"
	"github.com/phrazzld/taskr-api/internal/store"
)

// PostgresTaskLogStore implements the store.TaskLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskLogStore creates a new PostgreSQL implementation of the TaskLogStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskLogStore(db store.DBTX, logger *slog.Logger) *PostgresTaskLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_log_store")),
	}
}

// Ensure PostgresTaskLogStore implements store.TaskLogStore interface
var _ store.TaskLogStore = (*PostgresTaskLogStore)(nil)

// Append implements store.TaskLogStore.Append
func (s *PostgresTaskLogStore) Append(ctx context.Context, entry *domain.TaskLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("task log validation failed",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID.String()))
		return err
	}

	query := `
		INSERT INTO task_logs (id, task_id, action, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, entry.ID, entry.TaskID, string(entry.Action), entry.CreatedAt)
	if err != nil {
		log.Error("failed to append task log",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID.String()),
			slog.String("action", string(entry.Action)))
		return store.NewStoreError("task_log", "append", "failed to insert task log", MapError(err))
	}

	log.Debug("task log appended",
		slog.String("task_id", entry.TaskID.String()),
		slog.String("action", string(entry.Action)))
	return nil
}

// ListByTask implements store.TaskLogStore.ListByTask
func (s *PostgresTaskLogStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_id, action, created_at
		FROM task_logs
		WHERE task_id = $1
		ORDER BY created_at DESC, seq DESC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to query task logs",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("failed to query task logs: %w", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	logs := make([]*domain.TaskLog, 0)
	for rows.Next() {
		var entry domain.TaskLog
		var action string
		if err := rows.Scan(&entry.ID, &entry.TaskID, &action, &entry.CreatedAt); err != nil {
			log.Error("failed to scan task log row",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
			return nil, fmt.Errorf("failed to scan task log row: %w", err)
		}
		entry.Action = domain.TaskAction(action)
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task log rows",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("error iterating task log rows: %w", err)
	}

	return logs, nil
}

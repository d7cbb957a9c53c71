package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/taskr-api/internal/store"
)

// PostgresTransactor implements store.Transactor on top of a *sql.DB.
// Each unit of work gets task and task log stores bound to a fresh transaction.
type PostgresTransactor struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTransactor creates a transactor for db.
// If logger is nil, a default logger will be used.
func NewPostgresTransactor(db *sql.DB, logger *slog.Logger) *PostgresTransactor {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTransactor{
		db:     db,
		logger: logger,
	}
}

// Ensure PostgresTransactor implements store.Transactor interface
var _ store.Transactor = (*PostgresTransactor)(nil)

// WithinTransaction implements store.Transactor.WithinTransaction
func (t *PostgresTransactor) WithinTransaction(ctx context.Context, fn store.UnitOfWorkFn) error {
	return store.RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, store.UnitOfWork{
			Tasks: NewPostgresTaskStore(tx, t.logger),
			Logs:  NewPostgresTaskLogStore(tx, t.logger),
		})
	})
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/platform/logger"
	"github.com/phrazzld/taskr-api/internal/store"
)

// taskColumns is the projection shared by every task read. Users are joined
// and restricted to id, first name and last name.
const taskColumns = `
	t.id, t.title, t.description, t.status, t.priority,
	t.due_date, t.completed_at, t.created_at, t.updated_at,
	a.id, a.first_name, a.last_name,
	c.id, c.first_name, c.last_name`

const taskFrom = `
	FROM tasks t
	JOIN users a ON a.id = t.assigned_to
	JOIN users c ON c.id = t.created_by`

const taskOrder = ` ORDER BY t.created_at DESC, t.seq DESC`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// taskQuery accumulates WHERE conditions and their positional arguments.
type taskQuery struct {
	conditions []string
	args       []any
}

func (q *taskQuery) where(column string, value any) {
	q.args = append(q.args, value)
	q.conditions = append(q.conditions, fmt.Sprintf("%s = $%d", column, len(q.args)))
}

// whereClause renders the conditions joined with AND, or "" when there are none.
func (q *taskQuery) whereClause() string {
	if len(q.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conditions, " AND ")
}

// nextPlaceholder appends value and returns its placeholder.
func (q *taskQuery) nextPlaceholder(value any) string {
	q.args = append(q.args, value)
	return fmt.Sprintf("$%d", len(q.args))
}

func filterQuery(status *domain.TaskStatus, priority *domain.TaskPriority) *taskQuery {
	q := &taskQuery{}
	if status != nil {
		q.where("t.status", string(*status))
	}
	if priority != nil {
		q.where("t.priority", string(*priority))
	}
	return q
}

// FindByStatusAndPriority implements store.TaskStore.FindByStatusAndPriority
func (s *PostgresTaskStore) FindByStatusAndPriority(
	ctx context.Context,
	status *domain.TaskStatus,
	priority *domain.TaskPriority,
) ([]*domain.Task, error) {
	q := filterQuery(status, priority)
	query := "SELECT" + taskColumns + taskFrom + q.whereClause() + taskOrder
	return s.queryTasks(ctx, "find_by_status_and_priority", query, q.args...)
}

// pageTxOptions gives the count and the page of one FindPaginated call the
// same snapshot.
var pageTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// FindPaginated implements store.TaskStore.FindPaginated
// It returns one page ordered newest first and the total count for the filter.
// Both come from one snapshot: on a pool they run in a read-only transaction,
// inside a unit of work they share the caller's transaction.
func (s *PostgresTaskStore) FindPaginated(
	ctx context.Context,
	filter store.TaskFilter,
) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := filter.Validate(); err != nil {
		log.Debug("rejected pagination parameters",
			slog.Int("page", filter.Page),
			slog.Int("limit", filter.Limit))
		return nil, 0, err
	}

	db, ok := s.db.(*sql.DB)
	if !ok {
		return s.findPage(ctx, filter)
	}

	var (
		tasks []*domain.Task
		total int
	)
	err := store.RunInTransactionWithOptions(ctx, db, pageTxOptions, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		tasks, total, err = s.withDB(tx).findPage(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (s *PostgresTaskStore) findPage(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	q := filterQuery(filter.Status, filter.Priority)
	where := q.whereClause()

	var total int
	countQuery := "SELECT count(*) FROM tasks t" + where
	if err := s.db.QueryRowContext(ctx, countQuery, q.args...).Scan(&total); err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count tasks: %w", MapError(err))
	}

	limit := q.nextPlaceholder(filter.Limit)
	offset := q.nextPlaceholder(filter.Offset())
	query := "SELECT" + taskColumns + taskFrom + where + taskOrder +
		" LIMIT " + limit + " OFFSET " + offset

	tasks, err := s.queryTasks(ctx, "find_paginated", query, q.args...)
	if err != nil {
		return nil, 0, err
	}

	log.Debug("retrieved task page",
		slog.Int("page", filter.Page),
		slog.Int("limit", filter.Limit),
		slog.Int("count", len(tasks)),
		slog.Int("total", total))
	return tasks, total, nil
}

// withDB returns a copy of the store that runs its statements on db.
func (s *PostgresTaskStore) withDB(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db, logger: s.logger}
}

// FindByUser implements store.TaskStore.FindByUser
func (s *PostgresTaskStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	query := "SELECT" + taskColumns + taskFrom + " WHERE t.assigned_to = $1" + taskOrder
	return s.queryTasks(ctx, "find_by_user", query, userID)
}

// FindAll implements store.TaskStore.FindAll
func (s *PostgresTaskStore) FindAll(ctx context.Context) ([]*domain.Task, error) {
	query := "SELECT" + taskColumns + taskFrom + taskOrder
	return s.queryTasks(ctx, "find_all", query)
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := "SELECT" + taskColumns + taskFrom + " WHERE t.id = $1"
	return s.getOne(ctx, query, id)
}

// GetForUpdate implements store.TaskStore.GetForUpdate
// The task row is locked until the surrounding transaction ends; the joined
// user rows are not.
func (s *PostgresTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := "SELECT" + taskColumns + taskFrom + " WHERE t.id = $1 FOR UPDATE OF t"
	return s.getOne(ctx, query, id)
}

func (s *PostgresTaskStore) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}

	return task, nil
}

// Create implements store.TaskStore.Create
// Returns store.ErrInvalidEntity if a referenced user does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (
			id, title, description, assigned_to, created_by,
			status, priority, due_date, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.AssignedTo.ID,
		task.CreatedBy.ID,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.CompletedAt,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		switch {
		case IsForeignKeyViolation(err):
			log.Warn("task references an unknown user",
				slog.String("task_id", task.ID.String()),
				slog.String("assigned_to", task.AssignedTo.ID.String()),
				slog.String("created_by", task.CreatedBy.ID.String()))
		case IsCheckConstraintViolation(err), IsNotNullViolation(err):
			log.Warn("task rejected by database constraint",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
		case IsUniqueViolation(err):
			log.Warn("task already exists", slog.String("task_id", task.ID.String()))
		default:
			log.Error("failed to create task",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
		}
		return store.NewStoreError("task", "create", "failed to insert task", MapError(err))
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Update implements store.TaskStore.Update
// completed_at is only ever filled, never cleared or moved, even if the
// caller passes a different value.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $2,
			description = $3,
			assigned_to = $4,
			created_by = $5,
			status = $6,
			priority = $7,
			due_date = $8,
			completed_at = COALESCE(tasks.completed_at, $9),
			updated_at = NOW()
		WHERE id = $1
		RETURNING completed_at, updated_at
	`
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.AssignedTo.ID,
		task.CreatedBy.ID,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.CompletedAt,
	).Scan(&completedAt, &task.UpdatedAt)
	if err != nil {
		if IsNotFoundError(err) {
			log.Debug("task not found for update", slog.String("task_id", task.ID.String()))
			return store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "update", "failed to update task", MapError(err))
	}
	task.CompletedAt = nullTimePtr(completedAt)

	log.Debug("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Delete implements store.TaskStore.Delete
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return store.NewStoreError("task", "delete", "failed to delete task", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		log.Debug("task not found for delete", slog.String("task_id", id.String()))
		return err
	}

	log.Debug("task deleted", slog.String("task_id", id.String()))
	return nil
}

func (s *PostgresTaskStore) queryTasks(
	ctx context.Context,
	operation string,
	query string,
	args ...any,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("operation", operation),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		status      string
		priority    string
		dueDate     sql.NullTime
		completedAt sql.NullTime
		assignedTo  domain.UserRef
		createdBy   domain.UserRef
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&dueDate,
		&completedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
		&assignedTo.ID,
		&assignedTo.FirstName,
		&assignedTo.LastName,
		&createdBy.ID,
		&createdBy.FirstName,
		&createdBy.LastName,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	task.DueDate = nullTimePtr(dueDate)
	task.CompletedAt = nullTimePtr(completedAt)
	task.AssignedTo = &assignedTo
	task.CreatedBy = &createdBy

	return &task, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

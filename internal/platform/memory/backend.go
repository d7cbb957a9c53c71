// Package memory provides an in-process implementation of the persistence
// port. It backs local development and the service tests, and mirrors the
// PostgreSQL behavior that callers depend on: referential checks on user
// references, stable newest-first ordering, write-once completion times and
// all-or-nothing transactions.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/store"
)

// taskRecord is the stored form of a task. User references are kept as IDs
// and resolved against the user table on every read.
type taskRecord struct {
	task       domain.Task
	assignedTo uuid.UUID
	createdBy  uuid.UUID
	seq        int64
}

type logRecord struct {
	log domain.TaskLog
	seq int64
}

// state is one consistent version of the task and log tables.
type state struct {
	tasks map[uuid.UUID]taskRecord
	logs  []logRecord
	seq   int64
}

func (s *state) clone() *state {
	tasks := make(map[uuid.UUID]taskRecord, len(s.tasks))
	for id, rec := range s.tasks {
		tasks[id] = rec
	}
	logs := make([]logRecord, len(s.logs))
	copy(logs, s.logs)
	return &state{tasks: tasks, logs: logs, seq: s.seq}
}

func (s *state) nextSeq() int64 {
	s.seq++
	return s.seq
}

// Backend is an in-memory database holding users, tasks and task logs.
//
// Write transactions are serialized and run against a private copy of the
// committed state, which replaces the committed state only on success. Readers
// never observe uncommitted writes.
type Backend struct {
	mu    sync.RWMutex // guards committed and users
	txMu  sync.Mutex   // serializes write transactions
	now   func() time.Time
	users map[uuid.UUID]domain.UserRef

	committed *state
	logger    *slog.Logger
}

// Ensure Backend implements store.Transactor interface
var _ store.Transactor = (*Backend)(nil)

// NewBackend creates an empty backend.
// If logger is nil, a default logger will be used.
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}

	return &Backend{
		now:       func() time.Time { return time.Now().UTC() },
		users:     make(map[uuid.UUID]domain.UserRef),
		committed: &state{tasks: make(map[uuid.UUID]taskRecord)},
		logger:    logger.With(slog.String("component", "memory_store")),
	}
}

// SeedUser registers a user that tasks may reference.
func (b *Backend) SeedUser(user domain.UserRef) error {
	if user.ID == uuid.Nil {
		return domain.NewValidationError("id", "is required", domain.ErrInvalidID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[user.ID]; exists {
		return fmt.Errorf("%w: user %s", store.ErrDuplicate, user.ID)
	}
	b.users[user.ID] = user
	return nil
}

// AddUser creates and registers a user with a fresh ID.
func (b *Backend) AddUser(firstName, lastName string) domain.UserRef {
	user := domain.UserRef{ID: uuid.New(), FirstName: firstName, LastName: lastName}

	b.mu.Lock()
	b.users[user.ID] = user
	b.mu.Unlock()

	return user
}

// Tasks returns a task store whose writes each commit on their own.
func (b *Backend) Tasks() store.TaskStore {
	return &autoCommitTaskStore{backend: b}
}

// Logs returns a task log store whose writes each commit on their own.
func (b *Backend) Logs() store.TaskLogStore {
	return &autoCommitTaskLogStore{backend: b}
}

// WithinTransaction implements store.Transactor.WithinTransaction
func (b *Backend) WithinTransaction(ctx context.Context, fn store.UnitOfWorkFn) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrTransactionFailed, err)
	}

	b.txMu.Lock()
	defer b.txMu.Unlock()

	b.mu.RLock()
	working := b.committed.clone()
	b.mu.RUnlock()

	committed := false
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("rolled back transaction after panic", slog.Any("panic", p))
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
		if !committed {
			b.logger.Debug("rolled back transaction")
		}
	}()

	uow := store.UnitOfWork{
		Tasks: &taskView{backend: b, st: working},
		Logs:  &taskLogView{st: working},
	}
	if err := fn(ctx, uow); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", store.ErrTransactionFailed, err)
	}

	b.mu.Lock()
	b.committed = working
	b.mu.Unlock()
	committed = true

	b.logger.Debug("transaction committed successfully")
	return nil
}

// read runs fn against the committed state. A committed state is never
// modified again, so fn runs without holding the lock.
func (b *Backend) read(fn func(st *state)) {
	b.mu.RLock()
	st := b.committed
	b.mu.RUnlock()
	fn(st)
}

// resolve builds the caller-facing copy of a stored task.
func (b *Backend) resolve(rec taskRecord) *domain.Task {
	b.mu.RLock()
	assignedTo, ok := b.users[rec.assignedTo]
	if !ok {
		assignedTo = domain.UserRef{ID: rec.assignedTo}
	}
	createdBy, ok := b.users[rec.createdBy]
	if !ok {
		createdBy = domain.UserRef{ID: rec.createdBy}
	}
	b.mu.RUnlock()

	task := rec.task
	task.AssignedTo = &assignedTo
	task.CreatedBy = &createdBy
	task.DueDate = copyTime(rec.task.DueDate)
	task.CompletedAt = copyTime(rec.task.CompletedAt)
	return &task
}

func (b *Backend) userExists(id uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.users[id]
	return ok
}

// sortNewestFirst orders records by creation time, newest first, with
// insertion order breaking ties.
func sortNewestFirst(records []taskRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].task.CreatedAt.Equal(records[j].task.CreatedAt) {
			return records[i].task.CreatedAt.After(records[j].task.CreatedAt)
		}
		return records[i].seq > records[j].seq
	})
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

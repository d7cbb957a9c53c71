package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/cache"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/platform/logger"
	"github.com/phrazzld/taskr-api/internal/store"
	"golang.org/x/sync/singleflight"
)

// Cache namespaces owned by the task service.
const (
	TaskListNamespace  = "tasks:list"
	TaskAdminNamespace = "tasks:admin"

	// TaskAdminKey holds the unpaginated admin listing.
	TaskAdminKey = TaskAdminNamespace + cache.NamespaceSeparator + "all"
)

// Default cache lifetimes.
const (
	DefaultListTTL  = 60 * time.Second
	DefaultAdminTTL = 60 * time.Second
)

// TaskService provides task management operations
type TaskService interface {
	// Create validates and stores a new task and records a CREATED log entry
	// in the same transaction.
	Create(ctx context.Context, params domain.NewTaskParams) (*domain.Task, error)

	// FindAll returns one filtered page of tasks, served from the cache when
	// possible.
	FindAll(ctx context.Context, query TaskQuery) (*TaskPage, error)

	// FindOne retrieves a task by its ID.
	FindOne(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update applies a partial update and records an UPDATED log entry in the
	// same transaction.
	Update(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// Remove deletes a task and records a DELETED log entry in the same
	// transaction.
	Remove(ctx context.Context, id uuid.UUID) error

	// FindTasksByUser returns every task assigned to userID.
	FindTasksByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// GetLogsForTask returns the audit trail of an existing task, newest first.
	GetLogsForTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskLog, error)

	// FindAllAdmin returns every task, served from the cache when possible.
	FindAllAdmin(ctx context.Context) ([]*domain.Task, error)
}

// TaskServiceConfig holds the cache lifetimes used by the task service.
// Zero values fall back to the defaults.
type TaskServiceConfig struct {
	ListTTL  time.Duration
	AdminTTL time.Duration
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	transactor store.Transactor
	tasks      store.TaskStore
	logs       store.TaskLogStore
	cache      cache.Cache
	listTTL    time.Duration
	adminTTL   time.Duration
	now        func() time.Time
	logger     *slog.Logger

	loads singleflight.Group

	// generation advances on every invalidation. A cache fill started under
	// an older generation is discarded, so data read before a commit is never
	// written back after the commit's invalidation.
	genMu      sync.RWMutex
	generation uint64
}

// NewTaskService creates a new TaskService.
// tasks and logs serve reads outside a transaction; writes always go through
// transactor. It returns an error if any of the required dependencies are nil.
func NewTaskService(
	transactor store.Transactor,
	tasks store.TaskStore,
	logs store.TaskLogStore,
	taskCache cache.Cache,
	cfg TaskServiceConfig,
	logger *slog.Logger,
) (TaskService, error) {
	if transactor == nil {
		return nil, domain.NewValidationError("transactor", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if logs == nil {
		return nil, domain.NewValidationError("logs", "cannot be nil", domain.ErrValidation)
	}
	if taskCache == nil {
		return nil, domain.NewValidationError("cache", "cannot be nil", domain.ErrValidation)
	}

	if cfg.ListTTL <= 0 {
		cfg.ListTTL = DefaultListTTL
	}
	if cfg.AdminTTL <= 0 {
		cfg.AdminTTL = DefaultAdminTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		transactor: transactor,
		tasks:      tasks,
		logs:       logs,
		cache:      taskCache,
		listTTL:    cfg.ListTTL,
		adminTTL:   cfg.AdminTTL,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With(slog.String("component", "task_service")),
	}, nil
}

// Create implements TaskService.Create
func (s *taskServiceImpl) Create(ctx context.Context, params domain.NewTaskParams) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(params)
	if err != nil {
		log.Debug("rejected invalid task", slog.String("error", err.Error()))
		return nil, err
	}

	var created *domain.Task
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if err := uow.Tasks.Create(ctx, task); err != nil {
			return err
		}
		if err := appendLog(ctx, uow.Logs, task.ID, domain.TaskActionCreated); err != nil {
			return err
		}

		// Re-read so the result carries resolved user names.
		created, err = uow.Tasks.GetByID(ctx, task.ID)
		return err
	})
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return nil, unitOfWorkError("create", "failed to save task", err)
	}

	s.invalidate(ctx)

	log.Info("created task", slog.String("task_id", created.ID.String()))
	return created, nil
}

// FindAll implements TaskService.FindAll
func (s *taskServiceImpl) FindAll(ctx context.Context, query TaskQuery) (*TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter, err := ParseTaskQuery(query)
	if err != nil {
		log.Debug("rejected task query", slog.String("error", err.Error()))
		return nil, err
	}

	key := cache.Key(TaskListNamespace, filter)

	var page TaskPage
	if s.cacheGet(ctx, key, &page) {
		log.Debug("served task page from cache", slog.String("key", key))
		return &page, nil
	}

	loaded, err := s.load(ctx, key, s.listTTL, func(ctx context.Context) (interface{}, error) {
		tasks, total, err := s.tasks.FindPaginated(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &TaskPage{Data: tasks, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
	})
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("find_all", "failed to list tasks", err)
	}

	return copyPage(loaded.(*TaskPage)), nil
}

// FindOne implements TaskService.FindOne
func (s *taskServiceImpl) FindOne(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, NewTaskServiceError("find_one", "task not found", ErrTaskNotFound)
		}
		log.Error("failed to retrieve task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, NewTaskServiceError("find_one", "failed to retrieve task", err)
	}
	return task, nil
}

// Update implements TaskService.Update
func (s *taskServiceImpl) Update(
	ctx context.Context,
	id uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Task
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		task, err := uow.Tasks.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := task.ApplyUpdate(update, s.now()); err != nil {
			return err
		}
		if err := uow.Tasks.Update(ctx, task); err != nil {
			return err
		}
		if err := appendLog(ctx, uow.Logs, id, domain.TaskActionUpdated); err != nil {
			return err
		}

		updated, err = uow.Tasks.GetByID(ctx, id)
		return err
	})
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, unitOfWorkError("update", "failed to update task", err)
	}

	s.invalidate(ctx)

	log.Info("updated task",
		slog.String("task_id", id.String()),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

// Remove implements TaskService.Remove
func (s *taskServiceImpl) Remove(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if err := uow.Tasks.Delete(ctx, id); err != nil {
			return err
		}
		return appendLog(ctx, uow.Logs, id, domain.TaskActionDeleted)
	})
	if err != nil {
		log.Error("failed to remove task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return unitOfWorkError("remove", "failed to remove task", err)
	}

	s.invalidate(ctx)

	log.Info("removed task", slog.String("task_id", id.String()))
	return nil
}

// FindTasksByUser implements TaskService.FindTasksByUser
func (s *taskServiceImpl) FindTasksByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.tasks.FindByUser(ctx, userID)
	if err != nil {
		log.Error("failed to list tasks for user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewTaskServiceError("find_by_user", "failed to list tasks", err)
	}
	return tasks, nil
}

// GetLogsForTask implements TaskService.GetLogsForTask
func (s *taskServiceImpl) GetLogsForTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.FindOne(ctx, taskID); err != nil {
		return nil, err
	}

	logs, err := s.logs.ListByTask(ctx, taskID)
	if err != nil {
		log.Error("failed to list task logs",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, NewTaskServiceError("get_logs", "failed to list task logs", err)
	}
	return logs, nil
}

// FindAllAdmin implements TaskService.FindAllAdmin
func (s *taskServiceImpl) FindAllAdmin(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var tasks []*domain.Task
	if s.cacheGet(ctx, TaskAdminKey, &tasks) {
		log.Debug("served admin task list from cache")
		return tasks, nil
	}

	loaded, err := s.load(ctx, TaskAdminKey, s.adminTTL, func(ctx context.Context) (interface{}, error) {
		return s.tasks.FindAll(ctx)
	})
	if err != nil {
		log.Error("failed to list all tasks", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("find_all_admin", "failed to list tasks", err)
	}

	return cloneTasks(loaded.([]*domain.Task)), nil
}

// load runs fetch once per key and cache generation, however many callers
// miss concurrently, and caches the result.
func (s *taskServiceImpl) load(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	s.genMu.RLock()
	gen := s.generation
	s.genMu.RUnlock()

	flightKey := key + "#" + strconv.FormatUint(gen, 10)
	ch := s.loads.DoChan(flightKey, func() (interface{}, error) {
		// Shared by every waiting caller, so one caller's cancellation must
		// not fail the others.
		loadCtx := context.WithoutCancel(ctx)

		value, err := fetch(loadCtx)
		if err != nil {
			return nil, err
		}

		s.genMu.RLock()
		defer s.genMu.RUnlock()
		if s.generation == gen {
			s.cacheSet(loadCtx, key, value, ttl)
		}
		return value, nil
	})

	// A caller whose context ends stops waiting; the flight still completes
	// for the others.
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// invalidate drops every cached listing. It must run after commit.
func (s *taskServiceImpl) invalidate(ctx context.Context) {
	s.genMu.Lock()
	s.generation++
	s.genMu.Unlock()

	for _, namespace := range []string{TaskListNamespace, TaskAdminNamespace} {
		if err := s.cache.DeleteNamespace(ctx, namespace); err != nil {
			s.warnCache(ctx, "failed to invalidate cache namespace", namespace, err)
		}
	}
}

func (s *taskServiceImpl) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.warnCache(ctx, "cache read failed, falling back to store", key, err)
		return false
	}
	return found
}

func (s *taskServiceImpl) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.warnCache(ctx, "cache write failed", key, err)
	}
}

func (s *taskServiceImpl) warnCache(ctx context.Context, msg, key string, err error) {
	logger.FromContextOrDefault(ctx, s.logger).Warn(msg,
		slog.String("key", key),
		slog.String("error", err.Error()))
}

func appendLog(ctx context.Context, logs store.TaskLogStore, taskID uuid.UUID, action domain.TaskAction) error {
	entry, err := domain.NewTaskLog(taskID, action)
	if err != nil {
		return err
	}
	return logs.Append(ctx, entry)
}

// unitOfWorkError wraps a failed unit of work. Expected conditions (missing
// task, invalid input or references) keep their own identity; anything else
// is additionally marked as a transaction failure.
func unitOfWorkError(operation, message string, err error) error {
	switch {
	case store.IsNotFoundError(err):
		return NewTaskServiceError(operation, "task not found", err)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return NewTaskServiceError(operation, "invalid task", err)
	case errors.Is(err, store.ErrTransactionFailed):
		return NewTaskServiceError(operation, message, err)
	default:
		return NewTaskServiceError(operation, message,
			fmt.Errorf("%w: %w", store.ErrTransactionFailed, err))
	}
}

// copyPage gives each caller its own page and tasks; flight results are
// shared between callers.
func copyPage(p *TaskPage) *TaskPage {
	out := *p
	out.Data = cloneTasks(p.Data)
	return &out
}

func cloneTasks(tasks []*domain.Task) []*domain.Task {
	out := make([]*domain.Task, len(tasks))
	for i, task := range tasks {
		out[i] = task.Clone()
	}
	return out
}

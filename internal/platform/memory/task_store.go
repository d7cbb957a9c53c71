package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/store"
)

// taskView is a task store bound to one version of the state. Inside a
// transaction that is the transaction's private copy.
type taskView struct {
	backend *Backend
	st      *state
}

// Ensure taskView implements store.TaskStore interface
var _ store.TaskStore = (*taskView)(nil)

func (v *taskView) FindByStatusAndPriority(
	ctx context.Context,
	status *domain.TaskStatus,
	priority *domain.TaskPriority,
) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.collect(matchFilter(status, priority)), nil
}

func (v *taskView) FindPaginated(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, int, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	all := v.collect(matchFilter(filter.Status, filter.Priority))
	total := len(all)

	start := filter.Offset()
	if start >= total {
		return []*domain.Task{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (v *taskView) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.collect(func(rec taskRecord) bool { return rec.assignedTo == userID }), nil
}

func (v *taskView) FindAll(ctx context.Context) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.collect(func(taskRecord) bool { return true }), nil
}

func (v *taskView) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := v.st.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return v.backend.resolve(rec), nil
}

// GetForUpdate needs no extra locking: write transactions are serialized.
func (v *taskView) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return v.GetByID(ctx, id)
}

func (v *taskView) Create(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if _, exists := v.st.tasks[task.ID]; exists {
		return fmt.Errorf("%w: task %s", store.ErrDuplicate, task.ID)
	}
	if err := v.checkReferences(task); err != nil {
		return err
	}

	now := v.backend.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	v.st.tasks[task.ID] = newRecord(task, v.st.nextSeq())
	return nil
}

// Update keeps an already stored completion time, matching the database's
// write-once rule for completed_at.
func (v *taskView) Update(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := task.Validate(); err != nil {
		return err
	}
	existing, ok := v.st.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if err := v.checkReferences(task); err != nil {
		return err
	}

	if existing.task.CompletedAt != nil {
		task.CompletedAt = copyTime(existing.task.CompletedAt)
	}
	task.CreatedAt = existing.task.CreatedAt
	task.UpdatedAt = v.backend.now()

	v.st.tasks[task.ID] = newRecord(task, existing.seq)
	return nil
}

func (v *taskView) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := v.st.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(v.st.tasks, id)
	return nil
}

func (v *taskView) checkReferences(task *domain.Task) error {
	if !v.backend.userExists(task.AssignedTo.ID) {
		return fmt.Errorf("%w: assignedTo user %s not found", store.ErrInvalidEntity, task.AssignedTo.ID)
	}
	if !v.backend.userExists(task.CreatedBy.ID) {
		return fmt.Errorf("%w: createdBy user %s not found", store.ErrInvalidEntity, task.CreatedBy.ID)
	}
	return nil
}

func (v *taskView) collect(match func(taskRecord) bool) []*domain.Task {
	records := make([]taskRecord, 0, len(v.st.tasks))
	for _, rec := range v.st.tasks {
		if match(rec) {
			records = append(records, rec)
		}
	}
	sortNewestFirst(records)

	tasks := make([]*domain.Task, len(records))
	for i, rec := range records {
		tasks[i] = v.backend.resolve(rec)
	}
	return tasks
}

func matchFilter(status *domain.TaskStatus, priority *domain.TaskPriority) func(taskRecord) bool {
	return func(rec taskRecord) bool {
		if status != nil && rec.task.Status != *status {
			return false
		}
		if priority != nil && rec.task.Priority != *priority {
			return false
		}
		return true
	}
}

func newRecord(task *domain.Task, seq int64) taskRecord {
	stored := *task
	stored.AssignedTo = nil
	stored.CreatedBy = nil
	stored.DueDate = copyTime(task.DueDate)
	stored.CompletedAt = copyTime(task.CompletedAt)
	return taskRecord{
		task:       stored,
		assignedTo: task.AssignedTo.ID,
		createdBy:  task.CreatedBy.ID,
		seq:        seq,
	}
}

// autoCommitTaskStore reads the committed state and wraps every write in its
// own transaction.
type autoCommitTaskStore struct {
	backend *Backend
}

// Ensure autoCommitTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*autoCommitTaskStore)(nil)

func (s *autoCommitTaskStore) view(fn func(v *taskView)) {
	s.backend.read(func(st *state) {
		fn(&taskView{backend: s.backend, st: st})
	})
}

func (s *autoCommitTaskStore) FindByStatusAndPriority(
	ctx context.Context,
	status *domain.TaskStatus,
	priority *domain.TaskPriority,
) (tasks []*domain.Task, err error) {
	s.view(func(v *taskView) { tasks, err = v.FindByStatusAndPriority(ctx, status, priority) })
	return tasks, err
}

func (s *autoCommitTaskStore) FindPaginated(
	ctx context.Context,
	filter store.TaskFilter,
) (tasks []*domain.Task, total int, err error) {
	s.view(func(v *taskView) { tasks, total, err = v.FindPaginated(ctx, filter) })
	return tasks, total, err
}

func (s *autoCommitTaskStore) FindByUser(ctx context.Context, userID uuid.UUID) (tasks []*domain.Task, err error) {
	s.view(func(v *taskView) { tasks, err = v.FindByUser(ctx, userID) })
	return tasks, err
}

func (s *autoCommitTaskStore) FindAll(ctx context.Context) (tasks []*domain.Task, err error) {
	s.view(func(v *taskView) { tasks, err = v.FindAll(ctx) })
	return tasks, err
}

func (s *autoCommitTaskStore) GetByID(ctx context.Context, id uuid.UUID) (task *domain.Task, err error) {
	s.view(func(v *taskView) { task, err = v.GetByID(ctx, id) })
	return task, err
}

func (s *autoCommitTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id)
}

func (s *autoCommitTaskStore) Create(ctx context.Context, task *domain.Task) error {
	return s.backend.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		return uow.Tasks.Create(ctx, task)
	})
}

func (s *autoCommitTaskStore) Update(ctx context.Context, task *domain.Task) error {
	return s.backend.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		return uow.Tasks.Update(ctx, task)
	})
}

func (s *autoCommitTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.backend.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		return uow.Tasks.Delete(ctx, id)
	})
}

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(t *testing.T, assignee, creator uuid.UUID) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.NewTaskParams{
		Title:       "Review pull request",
		Description: "Check the migration and the handler changes",
		AssignedTo:  assignee,
		CreatedBy:   creator,
	})
	require.NoError(t, err)
	return task
}

func TestBackend_CreateResolvesUsers(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	ada := b.AddUser("Ada", "Lovelace")
	grace := b.AddUser("Grace", "Hopper")
	ctx := context.Background()

	task := newTask(t, ada.ID, grace.ID)
	require.NoError(t, b.Tasks().Create(ctx, task))
	assert.False(t, task.CreatedAt.IsZero())

	got, err := b.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, ada, *got.AssignedTo)
	assert.Equal(t, grace, *got.CreatedBy)

	// Returned tasks are copies.
	got.Title = "changed"
	again, err := b.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Review pull request", again.Title)
}

func TestBackend_UnknownUserIsInvalidEntity(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	user := b.AddUser("Ada", "Lovelace")

	err := b.Tasks().Create(context.Background(), newTask(t, uuid.New(), user.ID))
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	all, err := b.Tasks().FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBackend_SeedUser(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	user := domain.UserRef{ID: uuid.New(), FirstName: "Seed", LastName: "User"}

	require.NoError(t, b.SeedUser(user))
	assert.ErrorIs(t, b.SeedUser(user), store.ErrDuplicate)
	assert.ErrorIs(t, b.SeedUser(domain.UserRef{}), domain.ErrInvalidID)
}

func TestBackend_TransactionRollback(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	user := b.AddUser("Ada", "Lovelace")
	ctx := context.Background()
	boom := errors.New("boom")

	task := newTask(t, user.ID, user.ID)
	err := b.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		require.NoError(t, uow.Tasks.Create(ctx, task))
		entry, err := domain.NewTaskLog(task.ID, domain.TaskActionCreated)
		require.NoError(t, err)
		require.NoError(t, uow.Logs.Append(ctx, entry))

		// Visible inside the transaction.
		_, err = uow.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)

		// Not visible outside until commit.
		_, err = b.Tasks().GetByID(ctx, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = b.Tasks().GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	logs, err := b.Logs().ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestBackend_TransactionPanicRollsBack(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	user := b.AddUser("Ada", "Lovelace")
	ctx := context.Background()
	task := newTask(t, user.ID, user.ID)

	assert.Panics(t, func() {
		_ = b.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
			require.NoError(t, uow.Tasks.Create(ctx, task))
			panic("handler bug")
		})
	})

	_, err := b.Tasks().GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	// The transaction lock was released.
	require.NoError(t, b.Tasks().Create(ctx, newTask(t, user.ID, user.ID)))
}

func TestBackend_CancelledContext(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.WithinTransaction(ctx, func(context.Context, store.UnitOfWork) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.ErrorIs(t, err, store.ErrTransactionFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackend_Pagination(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	user := b.AddUser("Ada", "Lovelace")
	ctx := context.Background()

	// A frozen clock forces every task to share a timestamp, so ordering
	// falls back to insertion order.
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return frozen }

	var ids []uuid.UUID
	for i := 0; i < 25; i++ {
		task := newTask(t, user.ID, user.ID)
		require.NoError(t, b.Tasks().Create(ctx, task))
		ids = append(ids, task.ID)
	}

	sizes := []int{10, 10, 5, 0}
	var seen []uuid.UUID
	for i, want := range sizes {
		page, total, err := b.Tasks().FindPaginated(ctx, store.TaskFilter{Page: i + 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 25, total)
		require.Len(t, page, want, "page %d", i+1)
		assert.NotNil(t, page)
		for _, task := range page {
			seen = append(seen, task.ID)
		}
	}

	require.Len(t, seen, 25)
	for i := range seen {
		assert.Equal(t, ids[len(ids)-1-i], seen[i], "newest first")
	}

	_, _, err := b.Tasks().FindPaginated(ctx, store.TaskFilter{Page: 0, Limit: 10})
	assert.ErrorIs(t, err, store.ErrInvalidPagination)
}

func TestBackend_Filters(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	ada := b.AddUser("Ada", "Lovelace")
	grace := b.AddUser("Grace", "Hopper")
	ctx := context.Background()

	high := domain.TaskPriorityHigh
	done := domain.TaskStatusCompleted

	t1 := newTask(t, ada.ID, grace.ID)
	t1.Priority = high
	t2 := newTask(t, grace.ID, ada.ID)
	t2.Priority = high
	t2.Status = done
	t3 := newTask(t, ada.ID, ada.ID)
	for _, task := range []*domain.Task{t1, t2, t3} {
		require.NoError(t, b.Tasks().Create(ctx, task))
	}

	got, err := b.Tasks().FindByStatusAndPriority(ctx, nil, &high)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = b.Tasks().FindByStatusAndPriority(ctx, &done, &high)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, t2.ID, got[0].ID)

	got, err = b.Tasks().FindByStatusAndPriority(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = b.Tasks().FindByUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, task := range got {
		assert.Equal(t, ada.ID, task.AssignedTo.ID)
	}
}

func TestBackend_UpdateKeepsCompletedAt(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	user := b.AddUser("Ada", "Lovelace")
	ctx := context.Background()

	task := newTask(t, user.ID, user.ID)
	require.NoError(t, b.Tasks().Create(ctx, task))

	completed := domain.TaskStatusCompleted
	stamp := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, task.ApplyUpdate(domain.TaskUpdate{Status: &completed}, stamp))
	require.NoError(t, b.Tasks().Update(ctx, task))

	task.CompletedAt = nil
	require.NoError(t, b.Tasks().Update(ctx, task))
	require.NotNil(t, task.CompletedAt)
	assert.True(t, stamp.Equal(*task.CompletedAt))

	missing := newTask(t, user.ID, user.ID)
	assert.ErrorIs(t, b.Tasks().Update(ctx, missing), store.ErrTaskNotFound)
}

func TestBackend_DeleteKeepsLogs(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	user := b.AddUser("Ada", "Lovelace")
	ctx := context.Background()

	task := newTask(t, user.ID, user.ID)
	require.NoError(t, b.Tasks().Create(ctx, task))
	for _, action := range []domain.TaskAction{domain.TaskActionCreated, domain.TaskActionDeleted} {
		entry, err := domain.NewTaskLog(task.ID, action)
		require.NoError(t, err)
		require.NoError(t, b.Logs().Append(ctx, entry))
	}

	require.NoError(t, b.Tasks().Delete(ctx, task.ID))
	assert.ErrorIs(t, b.Tasks().Delete(ctx, task.ID), store.ErrTaskNotFound)

	logs, err := b.Logs().ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.TaskActionDeleted, logs[0].Action)
}

func TestBackend_ConcurrentTransactionsSerialize(t *testing.T) {
	t.Parallel()
	b := NewBackend(nil)
	user := b.AddUser("Ada", "Lovelace")
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			task, err := domain.NewTask(domain.NewTaskParams{
				Title:       "Concurrent",
				Description: "created from a goroutine",
				AssignedTo:  user.ID,
				CreatedBy:   user.ID,
			})
			if err != nil {
				return
			}
			_ = b.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
				return uow.Tasks.Create(ctx, task)
			})
		}()
	}
	wg.Wait()

	all, err := b.Tasks().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, workers, "no committed write may be lost")
}

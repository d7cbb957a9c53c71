package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/store"
)

// taskLogView is a task log store bound to one version of the state.
// Log rows have no reference to the task table, so they survive task deletion.
type taskLogView struct {
	st *state
}

// Ensure taskLogView implements store.TaskLogStore interface
var _ store.TaskLogStore = (*taskLogView)(nil)

func (v *taskLogView) Append(ctx context.Context, entry *domain.TaskLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	v.st.logs = append(v.st.logs, logRecord{log: *entry, seq: v.st.nextSeq()})
	return nil
}

func (v *taskLogView) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := make([]logRecord, 0)
	for _, rec := range v.st.logs {
		if rec.log.TaskID == taskID {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].log.CreatedAt.Equal(matched[j].log.CreatedAt) {
			return matched[i].log.CreatedAt.After(matched[j].log.CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})

	logs := make([]*domain.TaskLog, len(matched))
	for i := range matched {
		entry := matched[i].log
		logs[i] = &entry
	}
	return logs, nil
}

// autoCommitTaskLogStore reads the committed state and commits every append
// on its own.
type autoCommitTaskLogStore struct {
	backend *Backend
}

// Ensure autoCommitTaskLogStore implements store.TaskLogStore interface
var _ store.TaskLogStore = (*autoCommitTaskLogStore)(nil)

func (s *autoCommitTaskLogStore) Append(ctx context.Context, entry *domain.TaskLog) error {
	return s.backend.WithinTransaction(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		return uow.Logs.Append(ctx, entry)
	})
}

func (s *autoCommitTaskLogStore) ListByTask(
	ctx context.Context,
	taskID uuid.UUID,
) (logs []*domain.TaskLog, err error) {
	s.backend.read(func(st *state) {
		logs, err = (&taskLogView{st: st}).ListByTask(ctx, taskID)
	})
	return logs, err
}

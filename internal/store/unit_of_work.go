package store

import (
	"context"
)

// UnitOfWork is the set of stores bound to one open transaction.
// Every write made through it commits or rolls back together.
type UnitOfWork struct {
	Tasks TaskStore
	Logs  TaskLogStore
}

// UnitOfWorkFn is the body of a transaction. Returning an error rolls the
// whole unit of work back.
type UnitOfWorkFn func(ctx context.Context, uow UnitOfWork) error

// Transactor opens units of work against a persistence backend.
type Transactor interface {
	// WithinTransaction runs fn inside a single transaction. The transaction
	// commits when fn returns nil and rolls back otherwise, including when
	// fn panics. fn's error is returned unchanged; failures of the
	// transaction itself wrap ErrTransactionFailed.
	WithinTransaction(ctx context.Context, fn UnitOfWorkFn) error
}

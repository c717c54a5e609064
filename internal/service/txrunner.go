package service

import (
	"context"

	"trialwatch.app/engine/core/db"
	"trialwatch.app/engine/core/db/query"
	"trialwatch.app/engine/internal/store"
)

// StoreProvider exposes only the stores needed by a transactional operation.
type StoreProvider interface {
	Tasks() store.TaskStore
	TaskComments() store.TaskCommentStore
	Notifications() store.NotificationStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *query.Queries) error {
		stores := store.NewStores(q)
		return fn(stores)
	})
}

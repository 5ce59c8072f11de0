package repo_interfaces

import (
	"context"
	"database/sql"
)

// DBTX is the unit of work a repository call runs against. Callers pass it explicitly.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxOptions selects the isolation level and access mode of a unit of work.
// sql.LevelDefault keeps the level the underlying connection already uses.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

type TxFunc func(ctx context.Context, tx DBTX) error

type TransactionManager interface {
	RunInTransaction(ctx context.Context, opts TxOptions, fn TxFunc) error
	RunInReadOnlyTransaction(ctx context.Context, fn TxFunc) error
	RunInReadWriteTransaction(ctx context.Context, isolation sql.IsolationLevel, fn TxFunc) error
}

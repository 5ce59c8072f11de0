package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/ledger-engine/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/ledger-engine/src/internal/logger"
)

// unitOfWork is one connection taken from the pool for the duration of a transaction.
type unitOfWork interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (txHandle, error)
	Close() error
}

type txHandle interface {
	repo_interfaces.DBTX
	Commit() error
	Rollback() error
}

type acquireFunc func(ctx context.Context) (unitOfWork, error)

// TxManager runs caller-supplied work inside a database transaction on a dedicated connection.
// Isolation and access mode are set per transaction, so the connection goes back to the pool
// with its session defaults untouched.
type TxManager struct {
	acquire acquireFunc
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{
		acquire: func(ctx context.Context) (unitOfWork, error) {
			conn, err := db.Conn(ctx)
			if err != nil {
				return nil, err
			}
			return sqlConn{conn: conn}, nil
		},
	}
}

func (m *TxManager) RunInReadOnlyTransaction(ctx context.Context, fn repo_interfaces.TxFunc) error {
	return m.RunInTransaction(ctx, repo_interfaces.TxOptions{Isolation: sql.LevelDefault, ReadOnly: true}, fn)
}

func (m *TxManager) RunInReadWriteTransaction(ctx context.Context, isolation sql.IsolationLevel, fn repo_interfaces.TxFunc) error {
	return m.RunInTransaction(ctx, repo_interfaces.TxOptions{Isolation: isolation}, fn)
}

// RunInTransaction commits when fn succeeds and rolls back otherwise. The connection is
// released exactly once on every path. When both fn and the rollback fail, both errors
// are returned joined, fn's first.
func (m *TxManager) RunInTransaction(ctx context.Context, opts repo_interfaces.TxOptions, fn repo_interfaces.TxFunc) (err error) {
	uow, err := m.acquire(ctx)
	if err != nil {
		logger.Error("tx manager acquire connection failed", err, nil)
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if closeErr := uow.Close(); closeErr != nil {
			logger.Error("tx manager release connection failed", closeErr, nil)
			err = errors.Join(err, fmt.Errorf("release connection: %w", closeErr))
		}
	}()

	tx, err := uow.BeginTx(ctx, &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly})
	if err != nil {
		logger.Error("tx manager begin failed", err, logger.Fields{
			"isolation": opts.Isolation.String(),
			"readOnly":  opts.ReadOnly,
		})
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Error("tx manager rollback after panic failed", rbErr, nil)
			}
			panic(recovered)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return rollback(tx, err)
	}

	if err = tx.Commit(); err != nil {
		logger.Error("tx manager commit failed", err, nil)
		return rollback(tx, fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

func rollback(tx txHandle, cause error) error {
	rbErr := tx.Rollback()
	if rbErr == nil || errors.Is(rbErr, sql.ErrTxDone) {
		return cause
	}

	logger.Error("tx manager rollback failed", rbErr, logger.Fields{
		"cause": cause.Error(),
	})
	return errors.Join(cause, fmt.Errorf("rollback transaction: %w", rbErr))
}

type sqlConn struct {
	conn *sql.Conn
}

func (c sqlConn) BeginTx(ctx context.Context, opts *sql.TxOptions) (txHandle, error) {
	tx, err := c.conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (c sqlConn) Close() error {
	return c.conn.Close()
}

var _ repo_interfaces.TransactionManager = (*TxManager)(nil)

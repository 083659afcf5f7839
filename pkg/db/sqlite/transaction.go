package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleetbook/pkg/db"
)

// Querier is the subset of *sql.DB and *sql.Tx repositories need.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// From returns the transaction carried by ctx, or conn when there is none.
func From(ctx context.Context, conn *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return conn
}

type sqliteTransactionManager struct {
	conn *sql.DB
}

func NewTransactionManager(conn *sql.DB) db.TransactionManager {
	return &sqliteTransactionManager{conn: conn}
}

func (m *sqliteTransactionManager) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

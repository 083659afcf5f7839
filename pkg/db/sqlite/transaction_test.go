package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `CREATE TABLE items (id TEXT PRIMARY KEY);`

func countItems(t *testing.T, q Querier) int {
	var n int
	require.NoError(t, q.QueryRowContext(context.Background(), "SELECT count(*) FROM items").Scan(&n))
	return n
}

func TestExecuteTransaction_Commit(t *testing.T) {
	conn := OpenTest(t, testSchema)
	tm := NewTransactionManager(conn)

	err := tm.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		_, err := From(ctx, conn).ExecContext(ctx, "INSERT INTO items (id) VALUES ('a')")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countItems(t, conn))
}

func TestExecuteTransaction_RollbackOnError(t *testing.T) {
	conn := OpenTest(t, testSchema)
	tm := NewTransactionManager(conn)
	boom := errors.New("boom")

	err := tm.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := From(ctx, conn).ExecContext(ctx, "INSERT INTO items (id) VALUES ('a')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countItems(t, conn))
}

func TestExecuteTransaction_NestedJoinsOuter(t *testing.T) {
	conn := OpenTest(t, testSchema)
	tm := NewTransactionManager(conn)

	err := tm.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		return tm.ExecuteTransaction(ctx, func(inner context.Context) error {
			_, err := From(inner, conn).ExecContext(inner, "INSERT INTO items (id) VALUES ('a')")
			return err
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countItems(t, conn))
}

// SPDX-License-Identifier: Apache-2.0

package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fluentorm/fluent/internal/testutils"
	"github.com/fluentorm/fluent/pkg/db"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

func TestExecContext_RetriesUntilLockReleased(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		ctx := context.Background()
		setupTableLock(t, connStr, 2*time.Second)
		ensureLockTimeout(t, conn, 100)

		rdb := &db.RDB{DB: conn}
		_, err := rdb.ExecContext(ctx, "INSERT INTO test(id) VALUES (1)")
		require.NoError(t, err)
	})
}

func TestExecContext_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		ctx, cancel := context.WithCancel(context.Background())
		setupTableLock(t, connStr, 2*time.Second)
		ensureLockTimeout(t, conn, 100)

		rdb := &db.RDB{DB: conn}
		go time.AfterFunc(500*time.Millisecond, cancel)

		_, err := rdb.ExecContext(ctx, "INSERT INTO test(id) VALUES (1)")
		require.Error(t, err)
	})
}

func TestQueryContext_RetriesUntilLockReleased(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		ctx := context.Background()
		setupTableLock(t, connStr, 2*time.Second)
		ensureLockTimeout(t, conn, 100)

		rdb := &db.RDB{DB: conn}
		rows, err := rdb.QueryContext(ctx, "SELECT COUNT(*) FROM test")
		require.NoError(t, err)

		var count int
		require.NoError(t, db.ScanFirstValue(rows, &count))
		require.Equal(t, 0, count)
	})
}

func TestWithRetryableTransaction_RetriesUntilLockReleased(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		ctx := context.Background()
		setupTableLock(t, connStr, 2*time.Second)
		ensureLockTimeout(t, conn, 100)

		rdb := &db.RDB{DB: conn}
		err := rdb.WithRetryableTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
			return tx.QueryRowContext(ctx, "SELECT 1 FROM test").Err()
		})
		require.NoError(t, err)
	})
}

// setupTableLock creates a table and holds an exclusive lock on it from a
// separate connection for d, so the test's own connection is forced to
// retry against lock_timeout.
func setupTableLock(t *testing.T, connStr string, d time.Duration) {
	t.Helper()
	ctx := context.Background()

	conn2, err := sql.Open("postgres", connStr)
	require.NoError(t, err)

	_, err = conn2.ExecContext(ctx, "CREATE TABLE test (id INT PRIMARY KEY)")
	require.NoError(t, err)

	errCh := make(chan error)
	go func() {
		tx, err := conn2.Begin()
		if err != nil {
			errCh <- err
			return
		}
		if _, err := tx.ExecContext(ctx, "LOCK TABLE test IN ACCESS EXCLUSIVE MODE"); err != nil {
			errCh <- err
			return
		}
		errCh <- nil
		time.Sleep(d)
		tx.Commit()
	}()

	require.NoError(t, <-errCh)
}

func ensureLockTimeout(t *testing.T, conn *sql.DB, ms int) {
	t.Helper()

	query := fmt.Sprintf("SET lock_timeout = '%dms'", ms)
	_, err := conn.ExecContext(context.Background(), query)
	require.NoError(t, err)

	var lockTimeout string
	err = conn.QueryRowContext(context.Background(), "SHOW lock_timeout").Scan(&lockTimeout)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%dms", ms), lockTimeout)
}

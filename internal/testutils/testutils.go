// SPDX-License-Identifier: Apache-2.0

// Package testutils provides the shared Postgres test-container harness used
// by pkg/db and pkg/runner's integration tests.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// defaultPostgresVersion is used when the POSTGRES_VERSION environment
// variable is not set.
const defaultPostgresVersion = "15.3"

// tConnStr holds the connection string to the test container created in
// SharedTestMain.
var tConnStr string

// SharedTestMain starts a Postgres container to be used by every test in a
// package, then creates a fresh database per test (see WithConnectionToContainer).
func SharedTestMain(m *testing.M) {
	ctx := context.Background()

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(5 * time.Second)

	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+pgVersion),
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		os.Exit(1)
	}

	tConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate postgres container: %v", err)
	}

	os.Exit(exitCode)
}

// WithConnectionToContainer opens a connection to a fresh database in the
// shared container and passes it, along with its connection string, to fn.
func WithConnectionToContainer(t *testing.T, fn func(conn *sql.DB, connStr string)) {
	t.Helper()
	conn, connStr, _ := setupTestDatabase(t)
	fn(conn, connStr)
}

// setupTestDatabase creates a new database in the test container and
// returns a connection to it, its connection string, and its name.
func setupTestDatabase(t *testing.T) (*sql.DB, string, string) {
	t.Helper()
	ctx := context.Background()

	tDB, err := sql.Open("postgres", tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := tDB.Close(); err != nil {
			t.Fatalf("failed to close database connection: %v", err)
		}
	})

	dbName := randomDBName()
	_, err = tDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	u.Path = "/" + dbName
	connStr := u.String()

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Fatalf("failed to close database connection: %v", err)
		}
	})

	return conn, connStr, dbName
}

func randomDBName() string {
	const length = 15
	const charset = "abcdefghijklmnopqrstuvwxyz"

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))] // #nosec G404
	}
	return "testdb_" + string(b)
}

// SPDX-License-Identifier: Apache-2.0

// Package runner applies generated SQL migrations to a live Postgres
// database, tracking which migrations have already run in a dedicated
// tracking table so that repeated invocations are idempotent.
package runner

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/fluentorm/fluent/internal/log"
	"github.com/fluentorm/fluent/pkg/db"
	"github.com/fluentorm/fluent/pkg/emit"
)

// trackingTable is the name of the table pkg/runner uses to record which
// migrations have been applied.
const trackingTable = "_fluent_migrations"

const initSQL = `
CREATE TABLE IF NOT EXISTS ` + trackingTable + ` (
	id SERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT now()
)
`

// Runner applies and inspects migrations in a single migrations directory
// against a single database.
type Runner struct {
	conn          db.DB
	dir           string
	lockTimeoutMs int
	logger        log.Logger
}

// Option configures a Runner at construction time.
type Option func(*Runner)

// WithLockTimeoutMs sets the Postgres lock_timeout (in milliseconds) applied
// inside every transaction Up uses to apply a migration; Down's rollback
// transaction does not set it. Without a lock timeout, a migration
// waiting on a conflicting lock blocks indefinitely instead of surfacing the
// retry behavior pkg/db provides.
func WithLockTimeoutMs(ms int) Option {
	return func(r *Runner) { r.lockTimeoutMs = ms }
}

// WithLogger sets the Logger used to report run progress. The default is a
// no-op logger, so tests and library callers that don't pass this option see
// no output.
func WithLogger(l log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New opens a connection to pgURL and returns a Runner that reads migrations
// from migrationsDir, creating the tracking table if it does not yet exist.
func New(ctx context.Context, pgURL, migrationsDir string, opts ...Option) (*Runner, error) {
	conn, err := sql.Open("postgres", pgURL)
	if err != nil {
		return nil, fmt.Errorf("runner: open database: %w", err)
	}

	r := NewWithConn(&db.RDB{DB: conn}, migrationsDir, opts...)
	if err := r.init(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

// NewWithConn constructs a Runner around an already-open db.DB, without
// creating the tracking table. It exists so tests can supply a connection to
// a test container (or a db.FakeDB) without New's sql.Open call.
func NewWithConn(conn db.DB, migrationsDir string, opts ...Option) *Runner {
	r := &Runner{conn: conn, dir: migrationsDir, logger: log.NewNoop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init creates the tracking table if it does not already exist. New calls
// this automatically; it is exported so callers holding a Runner built with
// NewWithConn can do the same.
func (r *Runner) Init(ctx context.Context) error {
	return r.init(ctx)
}

func (r *Runner) init(ctx context.Context) error {
	if _, err := r.conn.ExecContext(ctx, initSQL); err != nil {
		return fmt.Errorf("runner: create tracking table: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (r *Runner) Close() error {
	return r.conn.Close()
}

type appliedRecord struct {
	Name     string
	Checksum string
}

// reconcile compares the tracking table against the migrations found on
// disk. Every applied record must have a matching file with a matching
// checksum; a mismatch or a missing file is reported before any migration is
// run, since silently continuing past either would make the tracking table
// an unreliable record of what the database actually contains.
func (r *Runner) reconcile(ctx context.Context, discovered []discoveredFile) (applied []appliedRecord, pending []discoveredFile, err error) {
	byName := make(map[string]discoveredFile, len(discovered))
	for _, f := range discovered {
		byName[f.Name] = f
	}

	rows, err := r.conn.QueryContext(ctx, `SELECT name, checksum FROM `+trackingTable+` ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("runner: read tracking table: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var rec appliedRecord
		if err := rows.Scan(&rec.Name, &rec.Checksum); err != nil {
			return nil, nil, fmt.Errorf("runner: scan tracking table: %w", err)
		}
		seen[rec.Name] = true

		f, ok := byName[rec.Name]
		if !ok {
			return nil, nil, MigrationMissing{Name: rec.Name}
		}

		body, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("runner: read %s: %w", f.Path, err)
		}
		actual := emit.Checksum(stripHeader(string(body)))
		if actual != rec.Checksum {
			return nil, nil, MigrationTampered{Name: rec.Name, Stored: rec.Checksum, Actual: actual}
		}

		applied = append(applied, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("runner: read tracking table: %w", err)
	}

	for _, f := range discovered {
		if !seen[f.Name] {
			pending = append(pending, f)
		}
	}

	return applied, pending, nil
}

// Up applies every pending migration in order, stopping at the first
// failure. It returns the names of the migrations it successfully applied,
// even when it returns an error for the one that failed.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	runID := uuid.NewString()

	discovered, err := discover(r.dir)
	if err != nil {
		return nil, fmt.Errorf("runner: discover migrations: %w", err)
	}

	_, pending, err := r.reconcile(ctx, discovered)
	if err != nil {
		return nil, err
	}
	r.logger.Info("run %s: %d migration(s) pending", runID, len(pending))

	applied := make([]string, 0, len(pending))
	for _, f := range pending {
		r.logger.Debug("run %s: applying %s", runID, f.Name)
		if err := r.applyOne(ctx, f); err != nil {
			r.logger.Warn("run %s: %s failed: %v", runID, f.Name, err)
			return applied, err
		}
		applied = append(applied, f.Name)
	}
	r.logger.Info("run %s: applied %d migration(s)", runID, len(applied))
	return applied, nil
}

func (r *Runner) applyOne(ctx context.Context, f discoveredFile) error {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("runner: read %s: %w", f.Path, err)
	}
	body := stripHeader(string(raw))
	sum := emit.Checksum(body)

	err = r.conn.WithRetryableTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if r.lockTimeoutMs > 0 {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeoutMs)); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, body); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO `+trackingTable+` (name, checksum) VALUES ($1, $2)`, f.Name, sum); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return MigrationFailed{Name: f.Name, Err: err}
	}
	return nil
}

// Status is a snapshot of which migrations have been applied and which are
// still pending, without mutating any state.
type Status struct {
	Applied []string
	Pending []string
}

// Status reports the applied and pending migrations without applying
// anything.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	discovered, err := discover(r.dir)
	if err != nil {
		return Status{}, fmt.Errorf("runner: discover migrations: %w", err)
	}

	applied, pending, err := r.reconcile(ctx, discovered)
	if err != nil {
		return Status{}, err
	}

	st := Status{
		Applied: make([]string, 0, len(applied)),
		Pending: make([]string, 0, len(pending)),
	}
	for _, rec := range applied {
		st.Applied = append(st.Applied, rec.Name)
	}
	for _, f := range pending {
		st.Pending = append(st.Pending, f.Name)
	}
	return st, nil
}

// Down rolls back the most recently applied migration using its paired
// _down.sql file, and returns its name. It returns ("", nil) when no
// migration has been applied: rolling back an empty database is a no-op,
// not an error.
func (r *Runner) Down(ctx context.Context) (string, error) {
	var name string
	rows, err := r.conn.QueryContext(ctx, `SELECT name FROM `+trackingTable+` ORDER BY id DESC LIMIT 1`)
	if err != nil {
		return "", fmt.Errorf("runner: read tracking table: %w", err)
	}
	if err := db.ScanFirstValue(rows, &name); err != nil {
		rows.Close()
		return "", fmt.Errorf("runner: read tracking table: %w", err)
	}
	rows.Close()

	if name == "" {
		return "", nil
	}

	path := downPath(r.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", RollbackUnavailable{Name: name}
		}
		return "", fmt.Errorf("runner: read %s: %w", path, err)
	}
	body := stripHeader(string(raw))

	err = r.conn.WithRetryableTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, body); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+trackingTable+` WHERE name = $1`, name); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", MigrationFailed{Name: name, Err: err}
	}

	r.logger.Info("rolled back %s", name)
	return name, nil
}

// SPDX-License-Identifier: Apache-2.0

package runner_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentorm/fluent/internal/testutils"
	"github.com/fluentorm/fluent/pkg/db"
	"github.com/fluentorm/fluent/pkg/diff"
	"github.com/fluentorm/fluent/pkg/emit"
	"github.com/fluentorm/fluent/pkg/runner"
	"github.com/fluentorm/fluent/pkg/schema"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

func usersTable() *schema.TableSchema {
	return &schema.TableSchema{
		Name: "users",
		Fields: []schema.Field{
			{Name: "id", Type: schema.UUID, PrimaryKey: true, NotNull: true, Unique: true, AutoGenerated: true},
			{Name: "email", Type: schema.Text, NotNull: true, Unique: true},
		},
	}
}

// writeMigrations runs Emit over a CreateTable for usersTable and writes the
// resulting up/down files into dir, mirroring what cmd/generate will do.
func writeMigrations(t *testing.T, dir string, seed int64) []emit.MigrationFile {
	t.Helper()

	set := schema.NewSchemaSet()
	set.Add(usersTable())
	changes, err := diff.Diff(schema.NewSchemaSet(), set)
	require.NoError(t, err)

	files, err := emit.Emit(changes, seed)
	require.NoError(t, err)

	const generatedAt = "2024-01-01T00:00:00Z"
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f.UpFilename()), []byte(f.UpContents(generatedAt)), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, f.DownFilename()), []byte(f.DownContents(generatedAt)), 0o644))
	}
	return files
}

func TestUp_AppliesPendingMigrationsAndRecordsThem(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		dir := t.TempDir()
		writeMigrations(t, dir, 1700000000)

		ctx := context.Background()
		r := runner.NewWithConn(&db.RDB{DB: conn}, dir)
		require.NoError(t, r.Init(ctx))

		applied, err := r.Up(ctx)
		require.NoError(t, err)
		require.Len(t, applied, 1)

		st, err := r.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, applied, st.Applied)
		assert.Empty(t, st.Pending)

		var count int
		require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count))
		assert.Equal(t, 0, count)
	})
}

func TestUp_IsIdempotentOnSecondRun(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		dir := t.TempDir()
		writeMigrations(t, dir, 1700000000)

		ctx := context.Background()
		r := runner.NewWithConn(&db.RDB{DB: conn}, dir)
		require.NoError(t, r.Init(ctx))

		_, err := r.Up(ctx)
		require.NoError(t, err)

		applied, err := r.Up(ctx)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})
}

func TestStatus_DetectsTamperedMigration(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		dir := t.TempDir()
		files := writeMigrations(t, dir, 1700000000)

		ctx := context.Background()
		r := runner.NewWithConn(&db.RDB{DB: conn}, dir)
		require.NoError(t, r.Init(ctx))
		_, err := r.Up(ctx)
		require.NoError(t, err)

		upPath := filepath.Join(dir, files[0].UpFilename())
		tampered, err := os.ReadFile(upPath)
		require.NoError(t, err)
		tampered = append(tampered, []byte("\n-- tampered\n")...)
		require.NoError(t, os.WriteFile(upPath, tampered, 0o644))

		_, err = r.Status(ctx)
		require.Error(t, err)
		var tamperedErr runner.MigrationTampered
		require.ErrorAs(t, err, &tamperedErr)
		assert.Equal(t, files[0].Name(), tamperedErr.Name)
	})
}

func TestStatus_DetectsMissingMigrationFile(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		dir := t.TempDir()
		files := writeMigrations(t, dir, 1700000000)

		ctx := context.Background()
		r := runner.NewWithConn(&db.RDB{DB: conn}, dir)
		require.NoError(t, r.Init(ctx))
		_, err := r.Up(ctx)
		require.NoError(t, err)

		require.NoError(t, os.Remove(filepath.Join(dir, files[0].UpFilename())))

		_, err = r.Status(ctx)
		require.Error(t, err)
		var missingErr runner.MigrationMissing
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, files[0].Name(), missingErr.Name)
	})
}

func TestDown_RollsBackMostRecentMigration(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		dir := t.TempDir()
		files := writeMigrations(t, dir, 1700000000)

		ctx := context.Background()
		r := runner.NewWithConn(&db.RDB{DB: conn}, dir)
		require.NoError(t, r.Init(ctx))
		_, err := r.Up(ctx)
		require.NoError(t, err)

		name, err := r.Down(ctx)
		require.NoError(t, err)
		assert.Equal(t, files[0].Name(), name)

		st, err := r.Status(ctx)
		require.NoError(t, err)
		assert.Empty(t, st.Applied)
		assert.Equal(t, []string{files[0].Name()}, st.Pending)

		_, err = conn.QueryContext(ctx, "SELECT 1 FROM users")
		require.Error(t, err, "users table should no longer exist after rollback")
	})
}

func TestDown_NoAppliedMigrationsIsNoop(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		dir := t.TempDir()

		ctx := context.Background()
		r := runner.NewWithConn(&db.RDB{DB: conn}, dir)
		require.NoError(t, r.Init(ctx))

		name, err := r.Down(ctx)
		require.NoError(t, err)
		assert.Empty(t, name)
	})
}

func TestDown_RollbackUnavailableWhenDownFileMissing(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		dir := t.TempDir()
		files := writeMigrations(t, dir, 1700000000)
		require.NoError(t, os.Remove(filepath.Join(dir, files[0].DownFilename())))

		ctx := context.Background()
		r := runner.NewWithConn(&db.RDB{DB: conn}, dir)
		require.NoError(t, r.Init(ctx))
		_, err := r.Up(ctx)
		require.NoError(t, err)

		_, err = r.Down(ctx)
		require.Error(t, err)
		var unavailable runner.RollbackUnavailable
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, files[0].Name(), unavailable.Name)
	})
}

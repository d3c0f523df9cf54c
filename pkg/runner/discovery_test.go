// SPDX-License-Identifier: Apache-2.0

package runner_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentorm/fluent/pkg/runner"
)

func TestNextTimestampSeed_EmptyDirectoryIsNotOK(t *testing.T) {
	t.Parallel()

	seed, ok, err := runner.NextTimestampSeed(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, seed)
}

func TestNextTimestampSeed_MissingDirectoryIsNotOK(t *testing.T) {
	t.Parallel()

	seed, ok, err := runner.NextTimestampSeed(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, seed)
}

func TestNextTimestampSeed_OnePastHighestExistingTimestamp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{
		"1700000000_create_users.sql",
		"1700000000_create_users_down.sql",
		"1700000500_add_email_index.sql",
		"1700000500_add_email_index_down.sql",
		"1700000100_create_posts.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("select 1;\n"), 0o644))
	}

	seed, ok, err := runner.NextTimestampSeed(dir)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000501), seed)
}

func TestNextTimestampSeed_IgnoresNonMigrationFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1700000000_create_users.sql"), []byte("select 1;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a migration\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1700000000_create_users.meta.yaml"), []byte("name: x\n"), 0o644))

	seed, ok, err := runner.NextTimestampSeed(dir)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000001), seed)
}

// SPDX-License-Identifier: Apache-2.0

package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentorm/fluent/pkg/schema"
	"github.com/fluentorm/fluent/pkg/snapshot"
)

func sampleSet() *schema.SchemaSet {
	set := schema.NewSchemaSet()
	set.Add(&schema.TableSchema{
		Name: "users",
		Fields: []schema.Field{
			{Name: "id", Type: schema.UUID, PrimaryKey: true, NotNull: true, Unique: true, AutoGenerated: true, AutoGenerateType: "uuid_v4"},
			{Name: "email", Type: schema.Text, NotNull: true, Unique: true},
		},
		Indexes:         []schema.Index{{Name: "users_email_idx", Columns: []string{"email"}, Unique: true}},
		SourceFragments: []string{"001_users.go"},
	})
	set.Add(&schema.TableSchema{
		Name: "posts",
		Fields: []schema.Field{
			{Name: "id", Type: schema.UUID, PrimaryKey: true, NotNull: true, Unique: true},
			{Name: "author_id", Type: schema.UUID, NotNull: true},
		},
		Relationships: []schema.Relationship{
			{Name: "author", Column: "author_id", ReferencesTable: "users", ReferencesColumn: "id", Kind: schema.ManyToOne, OnDelete: schema.Cascade, OnUpdate: schema.NoAction},
		},
		SourceFragments: []string{"002_posts.go"},
	})
	return set
}

func TestSaveLoad_RoundTripsFixpoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".fluent_snapshot.json")

	original := sampleSet()
	require.NoError(t, snapshot.Save(path, original))

	loaded, err := snapshot.Load(path)
	require.NoError(t, err)

	assert.Equal(t, original.TableNames(), loaded.TableNames())

	users := loaded.Get("users")
	require.NotNil(t, users)
	assert.Equal(t, original.Get("users").Fields, users.Fields)
	assert.Equal(t, original.Get("users").Indexes, users.Indexes)
	assert.Equal(t, original.Get("users").SourceFragments, users.SourceFragments)

	posts := loaded.Get("posts")
	require.NotNil(t, posts)
	assert.Equal(t, original.Get("posts").Relationships, posts.Relationships)
}

func TestSave_IsAtomicAndDeterministicModuloTimestamp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".fluent_snapshot.json")

	require.NoError(t, snapshot.Save(path, sampleSet()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, snapshot.Save(path, sampleSet()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	// generated_at will differ, but both documents describe the same
	// schema, so round-tripping either should produce the same SchemaSet.
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)

	// no leftover temp files from the atomic write
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, ".fluent_snapshot.json", entries[0].Name())
}

func TestLoad_MissingFileReturnsEmptySet(t *testing.T) {
	t.Parallel()

	set, err := snapshot.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestLoad_MalformedDocumentIsRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".fluent_snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1}`), 0o644))

	_, err := snapshot.Load(path)
	require.Error(t, err)
	var malformed snapshot.Malformed
	require.ErrorAs(t, err, &malformed)
}

func TestLoad_UnsupportedVersionIsRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".fluent_snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "generated_at": "now", "tables": {}}`), 0o644))

	_, err := snapshot.Load(path)
	require.Error(t, err)
	var unsupported snapshot.VersionUnsupported
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 99, unsupported.Got)
}

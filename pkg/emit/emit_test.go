// SPDX-License-Identifier: Apache-2.0

package emit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentorm/fluent/pkg/diff"
	"github.com/fluentorm/fluent/pkg/emit"
	"github.com/fluentorm/fluent/pkg/schema"
)

func usersTable() *schema.TableSchema {
	return &schema.TableSchema{
		Name: "users",
		Fields: []schema.Field{
			{Name: "id", Type: schema.UUID, PrimaryKey: true, NotNull: true, Unique: true, CreateInput: schema.CreateInputExcluded, AutoGenerated: true, AutoGenerateType: "uuid_v4"},
			{Name: "email", Type: schema.Text, NotNull: true, Unique: true},
			{Name: "name", Type: schema.Text, NotNull: true},
		},
	}
}

func TestEmit_CreateTableMatchesScenarioA(t *testing.T) {
	t.Parallel()

	changes := diff.ChangeSet{diff.CreateTable{TableName: "users", Table: usersTable()}}
	files, err := emit.Emit(changes, 1000)
	require.NoError(t, err)
	require.Len(t, files, 1)

	f := files[0]
	assert.Equal(t, int64(1000), f.Timestamp)
	assert.Equal(t, "create_users", f.Slug)
	assert.Contains(t, f.UpBody, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`)
	assert.Contains(t, f.UpBody, `"id" UUID PRIMARY KEY DEFAULT gen_random_uuid()`)
	assert.Contains(t, f.UpBody, `"email" TEXT NOT NULL UNIQUE`)
	assert.Contains(t, f.UpBody, `"name" TEXT NOT NULL`)
	assert.Contains(t, f.DownBody, `DROP TABLE IF EXISTS "users" CASCADE;`)
	assert.NotEmpty(t, f.Checksum)
}

func TestEmit_TimestampsAreSuccessiveFromSeed(t *testing.T) {
	t.Parallel()

	changes := diff.ChangeSet{
		diff.CreateTable{TableName: "users", Table: usersTable()},
		diff.AddIndex{TableName: "users", Index: schema.Index{Name: "users_email_idx", Columns: []string{"email"}, Unique: true}},
	}
	files, err := emit.Emit(changes, 42)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, int64(42), files[0].Timestamp)
	assert.Equal(t, int64(43), files[1].Timestamp)
}

func TestEmit_IsDeterministicAcrossCalls(t *testing.T) {
	t.Parallel()

	changes := diff.ChangeSet{diff.CreateTable{TableName: "users", Table: usersTable()}}

	first, err := emit.Emit(changes, 7)
	require.NoError(t, err)
	second, err := emit.Emit(changes, 7)
	require.NoError(t, err)

	assert.Equal(t, first[0].UpBody, second[0].UpBody)
	assert.Equal(t, first[0].Checksum, second[0].Checksum)
}

func TestEmit_AlterColumnEmitsMinimalClauses(t *testing.T) {
	t.Parallel()

	prior := schema.Field{Name: "bio", Type: schema.Text, NotNull: true}
	next := schema.Field{Name: "bio", Type: schema.Text, NotNull: false}

	changes := diff.ChangeSet{diff.AlterColumn{TableName: "users", FieldName: "bio", Prior: prior, Next: next}}
	files, err := emit.Emit(changes, 1)
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Contains(t, files[0].UpBody, `DROP NOT NULL`)
	assert.NotContains(t, files[0].UpBody, `TYPE`)
	assert.Contains(t, files[0].DownBody, `SET NOT NULL`)
}

func TestEmit_ForeignKeyAddUsesColumnInSlug(t *testing.T) {
	t.Parallel()

	rel := schema.Relationship{Name: "author", Column: "author_id", ReferencesTable: "users", ReferencesColumn: "id", Kind: schema.ManyToOne, OnDelete: schema.Cascade, OnUpdate: schema.NoAction}
	changes := diff.ChangeSet{diff.AddForeignKey{TableName: "posts", Relationship: rel}}
	files, err := emit.Emit(changes, 1)
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, "posts_add_fk_author_id", files[0].Slug)
	assert.Contains(t, files[0].UpBody, `FOREIGN KEY ("author_id") REFERENCES "users"("id") ON DELETE CASCADE ON UPDATE NO ACTION`)
}

func TestEmit_DropForeignKeyMirrorsAddSlug(t *testing.T) {
	t.Parallel()

	rel := schema.Relationship{Name: "author", Column: "author_id", ReferencesTable: "users", ReferencesColumn: "id", Kind: schema.ManyToOne, OnDelete: schema.Cascade, OnUpdate: schema.NoAction}
	changes := diff.ChangeSet{diff.DropForeignKey{TableName: "posts", RelationshipName: "author", Prior: rel}}
	files, err := emit.Emit(changes, 1)
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, "posts_drop_fk_author_id", files[0].Slug)
	assert.Contains(t, files[0].UpBody, `DROP CONSTRAINT "fk_author";`)
	assert.Contains(t, files[0].DownBody, `ADD CONSTRAINT "fk_author" FOREIGN KEY`)
}

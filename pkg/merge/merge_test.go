// SPDX-License-Identifier: Apache-2.0

package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentorm/fluent/pkg/builder"
	"github.com/fluentorm/fluent/pkg/merge"
	"github.com/fluentorm/fluent/pkg/schema"
)

func usersFragment(t *builder.Table) {
	t.UUID("id").PrimaryKey().AutoGenerate("uuid_v4")
	t.String("email").Unique().NotNull()
}

func usersBioFragment(t *builder.Table) {
	t.String("bio").NotNull()
}

func TestMerge_GroupsFragmentsByTable(t *testing.T) {
	t.Parallel()

	sources := []merge.Source{
		{Identifier: "001_users.go", Fragment: builder.FragmentFunc{Table: "users", Fn: usersFragment}},
		{Identifier: "002_users_bio.go", Fragment: builder.FragmentFunc{Table: "users", Fn: usersBioFragment}},
	}

	set, err := merge.Merge(sources)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	users := set.Get("users")
	require.NotNil(t, users)
	assert.NotNil(t, users.GetField("id"))
	assert.NotNil(t, users.GetField("email"))
	assert.NotNil(t, users.GetField("bio"))
	assert.Equal(t, []string{"001_users.go", "002_users_bio.go"}, users.SourceFragments)
}

func TestMerge_AppliesAlterationsAfterAllBuilds(t *testing.T) {
	t.Parallel()

	notNull := false
	redacted := true

	sources := []merge.Source{
		{Identifier: "001_users.go", Fragment: builder.FragmentFunc{Table: "users", Fn: usersFragment}},
		{Identifier: "002_users_bio.go", Fragment: builder.FragmentFunc{Table: "users", Fn: usersBioFragment}},
		{Identifier: "003_users_alter.go", Fragment: builder.FragmentFunc{Table: "users", Fn: func(t *builder.Table) {
			t.AlterField(schema.Alteration{Name: "bio", NotNull: &notNull, Redacted: &redacted})
		}}},
	}

	set, err := merge.Merge(sources)
	require.NoError(t, err)

	bio := set.Get("users").GetField("bio")
	assert.False(t, bio.NotNull)
	assert.True(t, bio.Redacted)
}

func TestMerge_UnknownAlterationTargetIsFatal(t *testing.T) {
	t.Parallel()

	sources := []merge.Source{
		{Identifier: "001_users.go", Fragment: builder.FragmentFunc{Table: "users", Fn: func(t *builder.Table) {
			t.UUID("id").PrimaryKey()
			t.AlterField(schema.Alteration{Name: "does_not_exist"})
		}}},
	}

	_, err := merge.Merge(sources)
	require.Error(t, err)
	var unkErr schema.UnknownAlterationTargetError
	require.ErrorAs(t, err, &unkErr)
	assert.Equal(t, "does_not_exist", unkErr.Field)
}

func TestMerge_ReorderingSameNumericPrefixIsDeterministic(t *testing.T) {
	t.Parallel()

	// Two tables whose first contributing fragment shares a numeric
	// prefix: table order must depend only on the prefix, then name, so
	// reordering the inputs (with the same resulting identifier sort)
	// produces a byte-identical table order either way.
	a := merge.Source{Identifier: "001_zebra.go", Fragment: builder.FragmentFunc{Table: "zebra", Fn: func(t *builder.Table) {
		t.UUID("id").PrimaryKey()
	}}}
	b := merge.Source{Identifier: "001_apple.go", Fragment: builder.FragmentFunc{Table: "apple", Fn: func(t *builder.Table) {
		t.UUID("id").PrimaryKey()
	}}}

	set1, err := merge.Merge([]merge.Source{a, b})
	require.NoError(t, err)
	set2, err := merge.Merge([]merge.Source{b, a})
	require.NoError(t, err)

	assert.Equal(t, set1.TableNames(), set2.TableNames())
	assert.Equal(t, []string{"apple", "zebra"}, set1.TableNames())
}

func TestMerge_UnknownReferencedTableIsFatal(t *testing.T) {
	t.Parallel()

	sources := []merge.Source{
		{Identifier: "001_posts.go", Fragment: builder.FragmentFunc{Table: "posts", Fn: func(t *builder.Table) {
			t.UUID("author_id").NotNull()
			t.BelongsTo(builder.ForeignOpts{Name: "author", Column: "author_id", ReferencesTable: "users"})
		}}},
	}

	_, err := merge.Merge(sources)
	require.Error(t, err)
	var unkErr schema.UnknownTableError
	require.ErrorAs(t, err, &unkErr)
}

func TestMerge_CrossTableReferenceSucceeds(t *testing.T) {
	t.Parallel()

	sources := []merge.Source{
		{Identifier: "001_users.go", Fragment: builder.FragmentFunc{Table: "users", Fn: usersFragment}},
		{Identifier: "002_posts.go", Fragment: builder.FragmentFunc{Table: "posts", Fn: func(t *builder.Table) {
			t.UUID("id").PrimaryKey()
			t.UUID("author_id").NotNull()
			t.BelongsTo(builder.ForeignOpts{Name: "author", Column: "author_id", ReferencesTable: "users", OnDelete: schema.Cascade})
		}}},
	}

	set, err := merge.Merge(sources)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "posts"}, set.TableNames())
}

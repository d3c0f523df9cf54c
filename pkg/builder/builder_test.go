// SPDX-License-Identifier: Apache-2.0

package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluentorm/fluent/pkg/builder"
	"github.com/fluentorm/fluent/pkg/schema"
)

func TestTable_TypedFieldFactories(t *testing.T) {
	t.Parallel()

	tbl := builder.New("users")
	tbl.UUID("id").PrimaryKey()
	tbl.String("email").Unique().NotNull()
	tbl.Boolean("active").NotNull().Default("true")

	s := tbl.Schema()
	assert.Equal(t, "users", s.Name)
	assert.Len(t, s.Fields, 3)

	id := s.GetField("id")
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.NotNull)
	assert.True(t, id.Unique)

	email := s.GetField("email")
	assert.True(t, email.Unique)
	assert.True(t, email.NotNull)

	active := s.GetField("active")
	assert.Equal(t, "true", *active.DefaultValue)
}

func TestTable_BelongsTo_Defaults(t *testing.T) {
	t.Parallel()

	tbl := builder.New("posts")
	tbl.UUID("author_id").NotNull()
	tbl.BelongsTo(builder.ForeignOpts{
		Name: "author", Column: "author_id", ReferencesTable: "users",
	})

	rel := tbl.Schema().GetRelationship("author")
	assert.Equal(t, "id", rel.ReferencesColumn)
	assert.Equal(t, schema.NoAction, rel.OnDelete)
	assert.Equal(t, schema.ManyToOne, rel.Kind)
}

func TestTable_ManyToMany_DefaultsOnDeleteCascade(t *testing.T) {
	t.Parallel()

	tbl := builder.New("post_tags")
	tbl.UUID("tag_id").NotNull()
	tbl.ManyToMany(builder.ForeignOpts{
		Name: "tag", Column: "tag_id", ReferencesTable: "tags",
	})

	rel := tbl.Schema().GetRelationship("tag")
	assert.Equal(t, schema.Cascade, rel.OnDelete)
}

func TestTable_HasMany_EmitsMarkerOnly(t *testing.T) {
	t.Parallel()

	tbl := builder.New("users")
	tbl.HasMany(builder.HasManyOpts{Name: "posts", ForeignTable: "posts", ForeignColumn: "author_id"})

	s := tbl.Schema()
	assert.Len(t, s.HasMany, 1)
	rel := s.GetRelationship("posts")
	assert.Equal(t, schema.OneToManyMarker, rel.Kind)
	assert.False(t, rel.EmitsForeignKey())
}

func TestTable_AlterField_IsPureAppend(t *testing.T) {
	t.Parallel()

	tbl := builder.New("users")
	tbl.String("bio").NotNull()

	notNull := false
	tbl.AlterField(schema.Alteration{Name: "bio", NotNull: &notNull})

	s := tbl.Schema()
	// the field itself is untouched until pkg/merge applies alterations
	assert.True(t, s.GetField("bio").NotNull)
	assert.Len(t, s.Alterations, 1)
	assert.Equal(t, "bio", s.Alterations[0].Name)
}

func TestFragmentFunc_SatisfiesFragment(t *testing.T) {
	t.Parallel()

	var frag builder.Fragment = builder.FragmentFunc{
		Table: "users",
		Fn: func(t *builder.Table) {
			t.UUID("id").PrimaryKey()
		},
	}

	assert.Equal(t, "users", frag.TableName())
	tbl := builder.New(frag.TableName())
	frag.Build(tbl)
	assert.NotNil(t, tbl.Schema().GetField("id"))
}

// SPDX-License-Identifier: Apache-2.0

// Package builder is the fluent API user schema fragments call against to
// populate a schema.TableSchema. Every method here is a pure append: no
// validation happens in this package. Validation is
// concentrated in pkg/merge so that a single traversal can report every
// diagnostic with full cross-fragment context.
package builder

import "github.com/fluentorm/fluent/pkg/schema"

// Fragment is the contract a user-authored schema file must satisfy. A
// fragment is discovered by scanning a schemas directory (outside this
// package's scope) and is identified by its filename for ordering purposes.
type Fragment interface {
	// TableName is the table this fragment contributes to. Multiple
	// fragments may share a TableName; pkg/merge groups them.
	TableName() string
	// Build populates t with this fragment's fields, indexes,
	// relationships and alterations.
	Build(t *Table)
}

// FragmentFunc adapts a plain function to the Fragment interface, for
// fragments that don't need their own named type.
type FragmentFunc struct {
	Table string
	Fn    func(t *Table)
}

func (f FragmentFunc) TableName() string { return f.Table }
func (f FragmentFunc) Build(t *Table)     { f.Fn(t) }

// Table is the builder handle passed to a Fragment's Build method. It
// accumulates appends onto an underlying schema.TableSchema; nothing it
// does can fail, since validation is deferred to pkg/merge.
type Table struct {
	schema *schema.TableSchema
}

// New creates a Table builder wrapping a freshly named TableSchema.
func New(name string) *Table {
	return &Table{schema: &schema.TableSchema{Name: name}}
}

// Schema returns the accumulated TableSchema. Called by pkg/merge once all
// contributing fragments have run their Build method.
func (t *Table) Schema() *schema.TableSchema {
	return t.schema
}

func (t *Table) appendField(f schema.Field) *FieldHandle {
	t.schema.Fields = append(t.schema.Fields, f)
	return &FieldHandle{table: t, index: len(t.schema.Fields) - 1}
}

// FieldHandle lets a fragment chain attribute-setting calls onto the field
// it just appended, e.g. t.String("email").Unique().NotNull().
type FieldHandle struct {
	table *Table
	index int
}

func (h *FieldHandle) field() *schema.Field {
	return &h.table.schema.Fields[h.index]
}

// Unique marks the field UNIQUE.
func (h *FieldHandle) Unique() *FieldHandle { h.field().Unique = true; return h }

// NotNull marks the field NOT NULL.
func (h *FieldHandle) NotNull() *FieldHandle { h.field().NotNull = true; return h }

// PrimaryKey marks the field the table's primary key (implies Unique and
// NotNull; pkg/merge/pkg/schema enforce that invariant, this method is a
// convenience that sets all three so a builder call alone is consistent).
func (h *FieldHandle) PrimaryKey() *FieldHandle {
	f := h.field()
	f.PrimaryKey = true
	f.NotNull = true
	f.Unique = true
	return h
}

// Default sets the field's raw SQL default expression, opaque to the core.
func (h *FieldHandle) Default(expr string) *FieldHandle {
	h.field().DefaultValue = &expr
	return h
}

// CreateInput sets the field's create-input visibility.
func (h *FieldHandle) CreateInput(mode schema.CreateInputMode) *FieldHandle {
	h.field().CreateInput = mode
	return h
}

// UpdateInput sets whether the field is exposed in update-input bindings.
func (h *FieldHandle) UpdateInput(allowed bool) *FieldHandle {
	h.field().UpdateInput = allowed
	return h
}

// Redacted marks the field as redacted (metadata only, never changes DDL).
func (h *FieldHandle) Redacted() *FieldHandle {
	h.field().Redacted = true
	return h
}

// AutoGenerate marks the field as server/runtime generated, with the given
// generator name (opaque to the core, e.g. "uuid_v4").
func (h *FieldHandle) AutoGenerate(genType schema.AutoGenerateType) *FieldHandle {
	f := h.field()
	f.AutoGenerated = true
	f.AutoGenerateType = genType
	return h
}

// --- typed field factories ---

// UUID appends a uuid field.
func (t *Table) UUID(name string) *FieldHandle { return t.typedField(name, schema.UUID) }

// String appends a text field.
func (t *Table) String(name string) *FieldHandle { return t.typedField(name, schema.Text) }

// Integer appends an int4 field.
func (t *Table) Integer(name string) *FieldHandle { return t.typedField(name, schema.Int4) }

// BigInt appends an int8 field.
func (t *Table) BigInt(name string) *FieldHandle { return t.typedField(name, schema.Int8) }

// Float appends a float4 field.
func (t *Table) Float(name string) *FieldHandle { return t.typedField(name, schema.Float4) }

// Numeric appends a numeric field.
func (t *Table) Numeric(name string) *FieldHandle { return t.typedField(name, schema.Numeric) }

// Boolean appends a bool field.
func (t *Table) Boolean(name string) *FieldHandle { return t.typedField(name, schema.Bool) }

// DateTime appends a timestamp field.
func (t *Table) DateTime(name string) *FieldHandle { return t.typedField(name, schema.Timestamp) }

// JSON appends a json field.
func (t *Table) JSON(name string) *FieldHandle { return t.typedField(name, schema.JSON) }

// JSONB appends a jsonb field.
func (t *Table) JSONB(name string) *FieldHandle { return t.typedField(name, schema.JSONB) }

// Binary appends a bytea field.
func (t *Table) Binary(name string) *FieldHandle { return t.typedField(name, schema.Bytea) }

func (t *Table) typedField(name string, ft schema.FieldType) *FieldHandle {
	return t.appendField(schema.Field{Name: name, Type: ft})
}

// --- relationships ---

// ForeignOpts configures a relationship created via Foreign or one of its
// convenience variants. ReferencesColumn defaults to "id" when empty.
type ForeignOpts struct {
	Name             string
	Column           string
	ReferencesTable  string
	ReferencesColumn string
	OnDelete         schema.ReferentialAction
	OnUpdate         schema.ReferentialAction
}

func (o ForeignOpts) withDefaults(kind schema.RelationshipKind) schema.Relationship {
	refCol := o.ReferencesColumn
	if refCol == "" {
		refCol = "id"
	}
	onDelete := o.OnDelete
	onUpdate := o.OnUpdate
	if onDelete == "" {
		if kind == schema.ManyToMany {
			onDelete = schema.Cascade
		} else {
			onDelete = schema.NoAction
		}
	}
	if onUpdate == "" {
		onUpdate = schema.NoAction
	}
	name := o.Name
	if name == "" {
		name = o.Column
	}
	return schema.Relationship{
		Name:              name,
		Column:            o.Column,
		ReferencesTable:   o.ReferencesTable,
		ReferencesColumn:  refCol,
		Kind:              kind,
		OnDelete:          onDelete,
		OnUpdate:          onUpdate,
	}
}

// Foreign registers a many_to_one relationship with explicit options. It is
// the most general relationship constructor; BelongsTo, HasOne, ManyToMany
// are documented convenience variants over it.
func (t *Table) Foreign(opts ForeignOpts) *Table {
	t.schema.Relationships = append(t.schema.Relationships, opts.withDefaults(schema.ManyToOne))
	return t
}

// BelongsTo is a convenience variant of Foreign for the common many_to_one
// case.
func (t *Table) BelongsTo(opts ForeignOpts) *Table {
	t.schema.Relationships = append(t.schema.Relationships, opts.withDefaults(schema.ManyToOne))
	return t
}

// HasOne registers a one_to_one relationship: the local column must be
// unique (enforced by pkg/schema.Validate, not here).
func (t *Table) HasOne(opts ForeignOpts) *Table {
	t.schema.Relationships = append(t.schema.Relationships, opts.withDefaults(schema.OneToOne))
	return t
}

// ManyToMany registers a many_to_many relationship, defaulting on_delete to
// cascade.
func (t *Table) ManyToMany(opts ForeignOpts) *Table {
	t.schema.Relationships = append(t.schema.Relationships, opts.withDefaults(schema.ManyToMany))
	return t
}

// HasManyOpts configures a pure in-memory one_to_many_marker relationship:
// it records that ForeignTable.ForeignColumn points back at this table, but
// emits no DDL.
type HasManyOpts struct {
	Name          string
	ForeignTable  string
	ForeignColumn string
}

// HasMany registers a one_to_many_marker relationship.
func (t *Table) HasMany(opts HasManyOpts) *Table {
	t.schema.Relationships = append(t.schema.Relationships, schema.Relationship{
		Name:          opts.Name,
		Kind:          schema.OneToManyMarker,
		ForeignTable:  opts.ForeignTable,
		ForeignColumn: opts.ForeignColumn,
	})
	t.schema.HasMany = append(t.schema.HasMany, schema.HasMany{
		Name:          opts.Name,
		ForeignTable:  opts.ForeignTable,
		ForeignColumn: opts.ForeignColumn,
	})
	return t
}

// HasManyList is an alias for HasMany kept for readability in fragments
// that want to make the collection-valued nature of the relationship
// explicit at the call site.
func (t *Table) HasManyList(opts HasManyOpts) *Table {
	return t.HasMany(opts)
}

// AddIndexes registers one or more indexes in bulk.
func (t *Table) AddIndexes(indexes ...schema.Index) *Table {
	t.schema.Indexes = append(t.schema.Indexes, indexes...)
	return t
}

// AlterField appends a single Alteration, to be applied by pkg/merge after
// all fragment Build calls for this table complete.
func (t *Table) AlterField(a schema.Alteration) *Table {
	t.schema.Alterations = append(t.schema.Alterations, a)
	return t
}

// AlterFields appends multiple Alterations in the given order.
func (t *Table) AlterFields(as ...schema.Alteration) *Table {
	t.schema.Alterations = append(t.schema.Alterations, as...)
	return t
}

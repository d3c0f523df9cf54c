// SPDX-License-Identifier: Apache-2.0

// Package schema is the in-memory representation of a FluentORM database
// schema: tables, fields, indexes, relationships, and the alterations
// applied to them. It has no knowledge of how the schema was built
// (pkg/builder), merged (pkg/merge), diffed (pkg/diff) or persisted
// (pkg/snapshot) — it is the shared value type those packages operate on.
package schema

import "fmt"

// FieldType is one of the column types FluentORM knows how to emit DDL for.
type FieldType string

const (
	UUID      FieldType = "uuid"
	Text      FieldType = "text"
	Int4      FieldType = "int4"
	Int8      FieldType = "int8"
	Float4    FieldType = "float4"
	Numeric   FieldType = "numeric"
	Bool      FieldType = "bool"
	Timestamp FieldType = "timestamp"
	JSON      FieldType = "json"
	JSONB     FieldType = "jsonb"
	Bytea     FieldType = "bytea"
)

// CreateInputMode controls whether a field appears, and how, in generated
// create-input bindings.
type CreateInputMode string

const (
	CreateInputRequired CreateInputMode = "required"
	CreateInputOptional CreateInputMode = "optional"
	CreateInputExcluded CreateInputMode = "excluded"
)

// RelationshipKind is the kind of relationship a Relationship describes.
type RelationshipKind string

const (
	ManyToOne        RelationshipKind = "many_to_one"
	OneToOne         RelationshipKind = "one_to_one"
	ManyToMany       RelationshipKind = "many_to_many"
	OneToManyMarker  RelationshipKind = "one_to_many_marker"
)

// ReferentialAction is a FOREIGN KEY ON DELETE / ON UPDATE action.
type ReferentialAction string

const (
	Cascade    ReferentialAction = "cascade"
	SetNull    ReferentialAction = "set_null"
	SetDefault ReferentialAction = "set_default"
	Restrict   ReferentialAction = "restrict"
	NoAction   ReferentialAction = "no_action"
)

// AutoGenerateType names the generator of an auto_generated field (e.g.
// "uuid_v4", "now", "identity"). It is stored, snapshotted and diffed, but
// pkg/emit does not read it: the DEFAULT expression of an auto_generated
// field is chosen from the field's Type.
type AutoGenerateType string

// Field is one column of a TableSchema.
type Field struct {
	Name             string
	Type             FieldType
	PrimaryKey       bool
	Unique           bool
	NotNull          bool
	CreateInput      CreateInputMode
	UpdateInput      bool
	Redacted         bool
	DefaultValue     *string
	AutoGenerated    bool
	AutoGenerateType AutoGenerateType
}

// Clone returns a deep copy of the field, safe to mutate independently of
// the original.
func (f Field) Clone() Field {
	clone := f
	if f.DefaultValue != nil {
		v := *f.DefaultValue
		clone.DefaultValue = &v
	}
	return clone
}

// Nullable reports whether the field permits NULL values.
func (f Field) Nullable() bool {
	return !f.NotNull
}

// Index is a (possibly composite) index over a table's columns.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Relationship describes a foreign-key-backed association from one table to
// another.
type Relationship struct {
	Name              string
	Column            string
	ReferencesTable   string
	ReferencesColumn  string
	Kind              RelationshipKind
	OnDelete          ReferentialAction
	OnUpdate          ReferentialAction
	ForeignTable      string // one_to_many_marker only
	ForeignColumn     string // one_to_many_marker only
}

// EmitsForeignKey reports whether the relationship produces a FOREIGN KEY
// constraint. one_to_many_marker is a pure in-memory navigation aid and
// never emits DDL.
func (r Relationship) EmitsForeignKey() bool {
	return r.Kind != OneToManyMarker
}

// Alteration is a sparse override of a named field's attributes, applied by
// the merger after all fragment build calls for the owning table complete.
// A nil pointer field means "leave the prior value unchanged".
type Alteration struct {
	Name             string
	Type             *FieldType
	PrimaryKey       *bool
	Unique           *bool
	NotNull          *bool
	CreateInput      *CreateInputMode
	UpdateInput      *bool
	Redacted         *bool
	DefaultValue     **string
	AutoGenerated    *bool
	AutoGenerateType *AutoGenerateType
}

// Apply overwrites exactly the sparse attributes the alteration specifies
// on a copy of the field, returning the result. The original is untouched.
func (a Alteration) Apply(f Field) Field {
	next := f.Clone()
	if a.Type != nil {
		next.Type = *a.Type
	}
	if a.PrimaryKey != nil {
		next.PrimaryKey = *a.PrimaryKey
	}
	if a.Unique != nil {
		next.Unique = *a.Unique
	}
	if a.NotNull != nil {
		next.NotNull = *a.NotNull
	}
	if a.CreateInput != nil {
		next.CreateInput = *a.CreateInput
	}
	if a.UpdateInput != nil {
		next.UpdateInput = *a.UpdateInput
	}
	if a.Redacted != nil {
		next.Redacted = *a.Redacted
	}
	if a.DefaultValue != nil {
		next.DefaultValue = *a.DefaultValue
	}
	if a.AutoGenerated != nil {
		next.AutoGenerated = *a.AutoGenerated
	}
	if a.AutoGenerateType != nil {
		next.AutoGenerateType = *a.AutoGenerateType
	}
	return next
}

// TableSchema is the authoritative, merged definition of one database table.
type TableSchema struct {
	Name             string
	Fields           []Field
	Indexes          []Index
	Relationships    []Relationship
	HasMany          []HasMany
	Alterations      []Alteration
	SourceFragments  []string
}

// HasMany is a pure in-memory navigation marker: it records that another
// table has a many_to_one/one_to_one relationship pointing back at this
// table, but it emits no DDL of its own (see OneToManyMarker).
type HasMany struct {
	Name          string
	ForeignTable  string
	ForeignColumn string
}

// GetField returns the field with the given name, or nil.
func (t *TableSchema) GetField(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// PrimaryKeyField returns the table's single primary-key field, or nil if
// none has been declared yet.
func (t *TableSchema) PrimaryKeyField() *Field {
	for i := range t.Fields {
		if t.Fields[i].PrimaryKey {
			return &t.Fields[i]
		}
	}
	return nil
}

// GetIndex returns the index with the given name, or nil.
func (t *TableSchema) GetIndex(name string) *Index {
	for i := range t.Indexes {
		if t.Indexes[i].Name == name {
			return &t.Indexes[i]
		}
	}
	return nil
}

// GetRelationship returns the relationship with the given name, or nil.
func (t *TableSchema) GetRelationship(name string) *Relationship {
	for i := range t.Relationships {
		if t.Relationships[i].Name == name {
			return &t.Relationships[i]
		}
	}
	return nil
}

// Validate checks this table's own invariants in isolation
// (cross-table invariants, such as a relationship's referenced table
// existing, are checked by the caller once the full SchemaSet is known).
func (t *TableSchema) Validate() error {
	seenFieldNames := make(map[string]bool, len(t.Fields))
	primaryKeys := 0
	for _, f := range t.Fields {
		if seenFieldNames[f.Name] {
			return DuplicateFieldError{Table: t.Name, Field: f.Name}
		}
		seenFieldNames[f.Name] = true

		if f.PrimaryKey {
			primaryKeys++
			if !f.NotNull || !f.Unique {
				return InvariantViolationError{
					Table: t.Name, Field: f.Name,
					Rule: "primary_key requires not_null and unique",
				}
			}
		}
		if f.CreateInput == CreateInputExcluded && f.DefaultValue == nil && f.NotNull {
			return InvariantViolationError{
				Table: t.Name, Field: f.Name,
				Rule: "create_input=excluded requires a default_value or a nullable field",
			}
		}
	}
	if primaryKeys > 1 {
		return InvariantViolationError{
			Table: t.Name,
			Rule:  fmt.Sprintf("at most one primary key field is allowed, found %d", primaryKeys),
		}
	}

	for _, idx := range t.Indexes {
		if len(idx.Columns) == 0 {
			return InvariantViolationError{Table: t.Name, Rule: fmt.Sprintf("index %q has no columns", idx.Name)}
		}
		for _, col := range idx.Columns {
			if t.GetField(col) == nil {
				return MissingColumnError{Table: t.Name, Index: idx.Name, Column: col}
			}
		}
	}

	for _, rel := range t.Relationships {
		if rel.Kind == OneToManyMarker {
			continue
		}
		field := t.GetField(rel.Column)
		if field == nil {
			return MissingColumnError{Table: t.Name, Relationship: rel.Name, Column: rel.Column}
		}
		if rel.Kind == OneToOne && !field.Unique {
			return InvariantViolationError{
				Table: t.Name, Field: rel.Column,
				Rule: fmt.Sprintf("one_to_one relationship %q requires a unique column", rel.Name),
			}
		}
		if rel.OnDelete == SetNull && field.NotNull {
			return InvariantViolationError{
				Table: t.Name, Field: rel.Column,
				Rule: fmt.Sprintf("relationship %q has on_delete=set_null but column is not_null", rel.Name),
			}
		}
	}

	return nil
}

// SchemaSet is the full universe of merged tables for one generation cycle.
// Iteration order is deterministic: the order in which tables were first
// added. pkg/merge adds them by the lexicographic order of the numeric
// file-prefix of each table's first contributing fragment, then by table
// name.
type SchemaSet struct {
	tables map[string]*TableSchema
	order  []string
}

// NewSchemaSet returns an empty SchemaSet.
func NewSchemaSet() *SchemaSet {
	return &SchemaSet{tables: make(map[string]*TableSchema)}
}

// Add inserts or replaces a table, appending it to the deterministic order
// if it is new.
func (s *SchemaSet) Add(t *TableSchema) {
	if _, exists := s.tables[t.Name]; !exists {
		s.order = append(s.order, t.Name)
	}
	s.tables[t.Name] = t
}

// Get returns the named table, or nil.
func (s *SchemaSet) Get(name string) *TableSchema {
	return s.tables[name]
}

// Tables returns every table in deterministic order.
func (s *SchemaSet) Tables() []*TableSchema {
	out := make([]*TableSchema, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

// TableNames returns every table name in deterministic order.
func (s *SchemaSet) TableNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of tables in the set.
func (s *SchemaSet) Len() int {
	return len(s.order)
}

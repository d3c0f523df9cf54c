// SPDX-License-Identifier: Apache-2.0

// Package codegen defines the boundary between FluentORM's core schema model
// and the model source-code generator that consumes it. The generator
// itself — the thing that writes per-table Go structs, CRUD helpers, and a
// runtime query builder — is out of this core's scope; this
// package only implements the interface a generator would bind to, plus a
// minimal stub that proves the boundary is exercisable.
package codegen

import (
	"encoding/json"

	"github.com/fluentorm/fluent/pkg/schema"
)

// Emitter turns a merged TableSchema into whatever representation a
// downstream model generator consumes. The core ships one implementation
// (StubEmitter); a real generator would supply its own.
type Emitter interface {
	EmitTable(t *schema.TableSchema) ([]byte, error)
}

// StubEmitter renders a TableSchema as a JSON table binding document: a
// minimal, generator-agnostic description of a table's fields sufficient to
// drive simple struct-field and CRUD-input generation, without committing to
// any particular target language's type system.
type StubEmitter struct{}

// EmitTable renders t as a JSON-encoded TableBinding.
func (StubEmitter) EmitTable(t *schema.TableSchema) ([]byte, error) {
	return json.MarshalIndent(toBinding(t), "", "  ")
}

func toBinding(t *schema.TableSchema) TableBinding {
	b := TableBinding{Name: t.Name}
	for _, f := range t.Fields {
		b.Fields = append(b.Fields, toFieldBinding(f))
	}
	for _, idx := range t.Indexes {
		b.Indexes = append(b.Indexes, IndexBinding{Name: idx.Name, Columns: idx.Columns, Unique: idx.Unique})
	}
	for _, rel := range t.Relationships {
		b.Relationships = append(b.Relationships, RelationshipBinding{
			Name: rel.Name, Column: rel.Column,
			ReferencesTable: rel.ReferencesTable, ReferencesColumn: rel.ReferencesColumn,
			Kind: string(rel.Kind),
		})
	}
	for _, hm := range t.HasMany {
		b.HasMany = append(b.HasMany, HasManyBinding{
			Name: hm.Name, ForeignTable: hm.ForeignTable, ForeignColumn: hm.ForeignColumn,
		})
	}
	return b
}

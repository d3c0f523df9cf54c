// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"sort"

	"github.com/fluentorm/fluent/pkg/schema"
)

// Version is the only snapshot document version this compiler understands.
// A mismatch is a fatal VersionUnsupported error.
const Version = 1

// document is the on-disk JSON shape persisted between generate runs. Field
// order here is deliberately the insertion order used by toDocument, since
// encoding/json preserves struct field order and byte-identical schemas must
// produce byte-identical snapshots.
type document struct {
	Version     int                  `json:"version"`
	GeneratedAt string               `json:"generated_at"`
	TableOrder  []string             `json:"table_order"`
	Tables      map[string]*tableDoc `json:"tables"`
}

type tableDoc struct {
	Fields        []fieldDoc        `json:"fields"`
	Indexes       []indexDoc        `json:"indexes"`
	Relationships []relationshipDoc `json:"relationships"`
	HasMany       []hasManyDoc      `json:"has_many"`
	SourceFiles   []string          `json:"source_files"`
}

type fieldDoc struct {
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	PrimaryKey       bool    `json:"primary_key"`
	Unique           bool    `json:"unique"`
	NotNull          bool    `json:"not_null"`
	CreateInput      string  `json:"create_input"`
	UpdateInput      bool    `json:"update_input"`
	Redacted         bool    `json:"redacted"`
	DefaultValue     *string `json:"default_value"`
	AutoGenerated    bool    `json:"auto_generated"`
	AutoGenerateType string  `json:"auto_generate_type,omitempty"`
}

type indexDoc struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

type relationshipDoc struct {
	Name             string `json:"name"`
	Column           string `json:"column,omitempty"`
	ReferencesTable  string `json:"references_table,omitempty"`
	ReferencesColumn string `json:"references_column,omitempty"`
	Kind             string `json:"kind"`
	OnDelete         string `json:"on_delete,omitempty"`
	OnUpdate         string `json:"on_update,omitempty"`
	ForeignTable     string `json:"foreign_table,omitempty"`
	ForeignColumn    string `json:"foreign_column,omitempty"`
}

type hasManyDoc struct {
	Name          string `json:"name"`
	ForeignTable  string `json:"foreign_table"`
	ForeignColumn string `json:"foreign_column"`
}

func toDocument(set *schema.SchemaSet, generatedAt string) *document {
	doc := &document{
		Version:     Version,
		GeneratedAt: generatedAt,
		TableOrder:  make([]string, 0, set.Len()),
		Tables:      make(map[string]*tableDoc, set.Len()),
	}
	for _, table := range set.Tables() {
		doc.TableOrder = append(doc.TableOrder, table.Name)
		doc.Tables[table.Name] = tableToDoc(table)
	}
	return doc
}

func tableToDoc(t *schema.TableSchema) *tableDoc {
	// Empty slices, not nil, so every list encodes as [] rather than null:
	// schema.json types each of them as an array.
	td := &tableDoc{
		Fields:        []fieldDoc{},
		Indexes:       []indexDoc{},
		Relationships: []relationshipDoc{},
		HasMany:       []hasManyDoc{},
		SourceFiles:   append([]string{}, t.SourceFragments...),
	}
	for _, f := range t.Fields {
		td.Fields = append(td.Fields, fieldDoc{
			Name:             f.Name,
			Type:             string(f.Type),
			PrimaryKey:       f.PrimaryKey,
			Unique:           f.Unique,
			NotNull:          f.NotNull,
			CreateInput:      string(f.CreateInput),
			UpdateInput:      f.UpdateInput,
			Redacted:         f.Redacted,
			DefaultValue:     f.DefaultValue,
			AutoGenerated:    f.AutoGenerated,
			AutoGenerateType: string(f.AutoGenerateType),
		})
	}
	for _, idx := range t.Indexes {
		td.Indexes = append(td.Indexes, indexDoc{
			Name: idx.Name, Columns: append([]string(nil), idx.Columns...), Unique: idx.Unique,
		})
	}
	for _, rel := range t.Relationships {
		td.Relationships = append(td.Relationships, relationshipDoc{
			Name: rel.Name, Column: rel.Column,
			ReferencesTable: rel.ReferencesTable, ReferencesColumn: rel.ReferencesColumn,
			Kind: string(rel.Kind), OnDelete: string(rel.OnDelete), OnUpdate: string(rel.OnUpdate),
			ForeignTable: rel.ForeignTable, ForeignColumn: rel.ForeignColumn,
		})
	}
	for _, hm := range t.HasMany {
		td.HasMany = append(td.HasMany, hasManyDoc{
			Name: hm.Name, ForeignTable: hm.ForeignTable, ForeignColumn: hm.ForeignColumn,
		})
	}
	return td
}

func fromDocument(doc *document) *schema.SchemaSet {
	set := schema.NewSchemaSet()
	order := doc.TableOrder
	if len(order) != len(doc.Tables) {
		// A hand-edited or pre-table_order snapshot: table_order is
		// missing, short, or stale relative to tables. Fall back to
		// lexicographic table name order, which is still deterministic
		// even if it may not match the order the snapshot was originally
		// generated in.
		order = nil
		for name := range doc.Tables {
			order = append(order, name)
		}
		sort.Strings(order)
	}
	for _, name := range order {
		set.Add(docToTable(name, doc.Tables[name]))
	}
	return set
}

func docToTable(name string, td *tableDoc) *schema.TableSchema {
	t := &schema.TableSchema{
		Name:            name,
		SourceFragments: append([]string(nil), td.SourceFiles...),
	}
	for _, fd := range td.Fields {
		t.Fields = append(t.Fields, schema.Field{
			Name:             fd.Name,
			Type:             schema.FieldType(fd.Type),
			PrimaryKey:       fd.PrimaryKey,
			Unique:           fd.Unique,
			NotNull:          fd.NotNull,
			CreateInput:      schema.CreateInputMode(fd.CreateInput),
			UpdateInput:      fd.UpdateInput,
			Redacted:         fd.Redacted,
			DefaultValue:     fd.DefaultValue,
			AutoGenerated:    fd.AutoGenerated,
			AutoGenerateType: schema.AutoGenerateType(fd.AutoGenerateType),
		})
	}
	for _, id := range td.Indexes {
		t.Indexes = append(t.Indexes, schema.Index{
			Name: id.Name, Columns: append([]string(nil), id.Columns...), Unique: id.Unique,
		})
	}
	for _, rd := range td.Relationships {
		t.Relationships = append(t.Relationships, schema.Relationship{
			Name: rd.Name, Column: rd.Column,
			ReferencesTable: rd.ReferencesTable, ReferencesColumn: rd.ReferencesColumn,
			Kind: schema.RelationshipKind(rd.Kind), OnDelete: schema.ReferentialAction(rd.OnDelete),
			OnUpdate: schema.ReferentialAction(rd.OnUpdate), ForeignTable: rd.ForeignTable, ForeignColumn: rd.ForeignColumn,
		})
	}
	for _, hm := range td.HasMany {
		t.HasMany = append(t.HasMany, schema.HasMany{
			Name: hm.Name, ForeignTable: hm.ForeignTable, ForeignColumn: hm.ForeignColumn,
		})
	}
	return t
}

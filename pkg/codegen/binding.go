// SPDX-License-Identifier: Apache-2.0

package codegen

import (
	"github.com/oapi-codegen/nullable"

	"github.com/fluentorm/fluent/pkg/schema"
)

// TableBinding is the generator-agnostic shape a downstream model emitter
// binds against.
type TableBinding struct {
	Name          string                `json:"name"`
	Fields        []FieldBinding        `json:"fields"`
	Indexes       []IndexBinding        `json:"indexes,omitempty"`
	Relationships []RelationshipBinding `json:"relationships,omitempty"`
	HasMany       []HasManyBinding      `json:"has_many,omitempty"`
}

// FieldBinding mirrors schema.Field, with DefaultValue widened to a
// three-state JSON value via nullable.Nullable: the key is omitted entirely
// when there is no default, present with a string value when there is one.
// A bare *string round-trips through JSON the same way, but Nullable is the
// type a downstream generator built against an OpenAPI-style codegen
// toolchain already knows how to consume without an adapter of its own.
type FieldBinding struct {
	Name          string                    `json:"name"`
	Type          string                    `json:"type"`
	PrimaryKey    bool                      `json:"primary_key"`
	Unique        bool                      `json:"unique"`
	NotNull       bool                      `json:"not_null"`
	CreateInput   string                    `json:"create_input"`
	UpdateInput   bool                      `json:"update_input"`
	Redacted      bool                      `json:"redacted"`
	DefaultValue  nullable.Nullable[string] `json:"default_value,omitzero"`
	AutoGenerated bool                      `json:"auto_generated"`
}

// IndexBinding mirrors schema.Index.
type IndexBinding struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// RelationshipBinding mirrors schema.Relationship.
type RelationshipBinding struct {
	Name             string `json:"name"`
	Column           string `json:"column"`
	ReferencesTable  string `json:"references_table"`
	ReferencesColumn string `json:"references_column"`
	Kind             string `json:"kind"`
}

// HasManyBinding mirrors schema.HasMany.
type HasManyBinding struct {
	Name          string `json:"name"`
	ForeignTable  string `json:"foreign_table"`
	ForeignColumn string `json:"foreign_column"`
}

func toFieldBinding(f schema.Field) FieldBinding {
	fb := FieldBinding{
		Name:          f.Name,
		Type:          string(f.Type),
		PrimaryKey:    f.PrimaryKey,
		Unique:        f.Unique,
		NotNull:       f.NotNull,
		CreateInput:   string(f.CreateInput),
		UpdateInput:   f.UpdateInput,
		Redacted:      f.Redacted,
		AutoGenerated: f.AutoGenerated,
	}
	// The zero value of Nullable[string] marshals as an absent key (no
	// default_value clause at all); Set marks it present with f's literal
	// value. FluentORM's own Field never distinguishes "explicit SQL NULL
	// default" from "no default", so SetNull is never used here.
	if f.DefaultValue != nil {
		fb.DefaultValue.Set(*f.DefaultValue)
	}
	return fb
}

// SPDX-License-Identifier: Apache-2.0

// Package diff compares a prior schema.SchemaSet against the current one and
// produces an ordered ChangeSet. It never touches a database or the
// filesystem: pkg/emit turns its output into SQL, pkg/runner applies it.
package diff

import "github.com/fluentorm/fluent/pkg/schema"

// ChangeKind names which of the nine structural changes a
// Change is allowed to be.
type ChangeKind string

const (
	KindCreateTable    ChangeKind = "create_table"
	KindDropTable      ChangeKind = "drop_table"
	KindAddColumn      ChangeKind = "add_column"
	KindDropColumn     ChangeKind = "drop_column"
	KindAlterColumn    ChangeKind = "alter_column"
	KindAddIndex       ChangeKind = "add_index"
	KindDropIndex      ChangeKind = "drop_index"
	KindAddForeignKey  ChangeKind = "add_foreign_key"
	KindDropForeignKey ChangeKind = "drop_foreign_key"
)

// Change is one structural difference between a prior and current
// schema.SchemaSet. Concrete types below each implement it; callers use a
// type switch on Kind (or a Go type switch on the Change itself) to decide
// what SQL to emit.
type Change interface {
	Kind() ChangeKind
	Table() string
}

// ChangeSet is the deterministic, ordered output of Diff.
type ChangeSet []Change

type CreateTable struct {
	TableName string
	Table     *schema.TableSchema
}

func (c CreateTable) Kind() ChangeKind { return KindCreateTable }
func (c CreateTable) Table() string    { return c.TableName }

type DropTable struct {
	TableName string
	Prior     *schema.TableSchema
}

func (c DropTable) Kind() ChangeKind { return KindDropTable }
func (c DropTable) Table() string    { return c.TableName }

type AddColumn struct {
	TableName string
	Field     schema.Field
}

func (c AddColumn) Kind() ChangeKind { return KindAddColumn }
func (c AddColumn) Table() string    { return c.TableName }

type DropColumn struct {
	TableName string
	FieldName string
	Prior     schema.Field
}

func (c DropColumn) Kind() ChangeKind { return KindDropColumn }
func (c DropColumn) Table() string    { return c.TableName }

type AlterColumn struct {
	TableName string
	FieldName string
	Prior     schema.Field
	Next      schema.Field
}

func (c AlterColumn) Kind() ChangeKind { return KindAlterColumn }
func (c AlterColumn) Table() string    { return c.TableName }

type AddIndex struct {
	TableName string
	Index     schema.Index
}

func (c AddIndex) Kind() ChangeKind { return KindAddIndex }
func (c AddIndex) Table() string    { return c.TableName }

type DropIndex struct {
	TableName string
	IndexName string
	Prior     schema.Index
}

func (c DropIndex) Kind() ChangeKind { return KindDropIndex }
func (c DropIndex) Table() string    { return c.TableName }

type AddForeignKey struct {
	TableName    string
	Relationship schema.Relationship
}

func (c AddForeignKey) Kind() ChangeKind { return KindAddForeignKey }
func (c AddForeignKey) Table() string    { return c.TableName }

type DropForeignKey struct {
	TableName        string
	RelationshipName string
	Prior            schema.Relationship
}

func (c DropForeignKey) Kind() ChangeKind { return KindDropForeignKey }
func (c DropForeignKey) Table() string    { return c.TableName }

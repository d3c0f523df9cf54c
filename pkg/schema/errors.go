// SPDX-License-Identifier: Apache-2.0

package schema

import "fmt"

// SchemaError is the category every error returned by Validate or by
// pkg/merge belongs to. It is implemented by every error
// type in this file so callers can do `errors.As(err, &schema.SchemaError(nil))`-
// style category checks, though in practice the concrete types below are
// more useful since they carry the offending table/field.
type SchemaError interface {
	error
	isSchemaError()
}

// DuplicateFieldError is returned when two fields on the same table share a
// name.
type DuplicateFieldError struct {
	Table string
	Field string
}

func (e DuplicateFieldError) Error() string {
	return fmt.Sprintf("table %q: duplicate field %q", e.Table, e.Field)
}
func (e DuplicateFieldError) isSchemaError() {}

// InvariantViolationError is returned when a TableSchema-level or
// Field-level invariant does not hold.
type InvariantViolationError struct {
	Table string
	Field string
	Rule  string
}

func (e InvariantViolationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("table %q field %q: %s", e.Table, e.Field, e.Rule)
	}
	return fmt.Sprintf("table %q: %s", e.Table, e.Rule)
}
func (e InvariantViolationError) isSchemaError() {}

// MissingColumnError is returned when an index or relationship references a
// column that does not exist on the table.
type MissingColumnError struct {
	Table        string
	Index        string
	Relationship string
	Column       string
}

func (e MissingColumnError) Error() string {
	switch {
	case e.Index != "":
		return fmt.Sprintf("table %q index %q: references missing column %q", e.Table, e.Index, e.Column)
	case e.Relationship != "":
		return fmt.Sprintf("table %q relationship %q: references missing column %q", e.Table, e.Relationship, e.Column)
	default:
		return fmt.Sprintf("table %q: references missing column %q", e.Table, e.Column)
	}
}
func (e MissingColumnError) isSchemaError() {}

// UnknownTableError is returned when a relationship references a table that
// does not exist anywhere in the SchemaSet.
type UnknownTableError struct {
	Table        string
	Relationship string
	ReferencedTable string
}

func (e UnknownTableError) Error() string {
	return fmt.Sprintf("table %q relationship %q: references unknown table %q", e.Table, e.Relationship, e.ReferencedTable)
}
func (e UnknownTableError) isSchemaError() {}

// UnknownAlterationTargetError is returned when an Alteration names a field
// that does not exist on its table once all fragment builds have run.
type UnknownAlterationTargetError struct {
	Table string
	Field string
}

func (e UnknownAlterationTargetError) Error() string {
	return fmt.Sprintf("table %q: alteration references unknown field %q", e.Table, e.Field)
}
func (e UnknownAlterationTargetError) isSchemaError() {}

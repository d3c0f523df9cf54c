// SPDX-License-Identifier: Apache-2.0

// Package merge implements the schema-merge phase: grouping user
// schema fragments by table name, composing one authoritative TableSchema
// per table, and applying deferred Alteration records.
package merge

import (
	"sort"
	"strings"

	"github.com/fluentorm/fluent/pkg/builder"
	"github.com/fluentorm/fluent/pkg/schema"
)

// Source pairs a Fragment with the identifier (conventionally its source
// filename) used to order it relative to other fragments contributing to
// the same table.
type Source struct {
	Identifier string
	Fragment   builder.Fragment
}

// Merge groups sources by TableName, runs each group's Build calls in
// stable lexicographic-by-identifier order, applies that table's
// Alterations in the same order, validates every invariant,
// and returns the resulting SchemaSet.
//
// Merge is deterministic: for any input whose identifiers sort to the same
// sequence, the output is byte-identical.
func Merge(sources []Source) (*schema.SchemaSet, error) {
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Identifier < sorted[j].Identifier
	})

	type group struct {
		firstIdentifier string
		tableName       string
		table           *builder.Table
	}
	groups := make(map[string]*group)
	var groupOrder []string

	for _, src := range sorted {
		name := src.Fragment.TableName()
		g, exists := groups[name]
		if !exists {
			g = &group{firstIdentifier: src.Identifier, tableName: name, table: builder.New(name)}
			groups[name] = g
			groupOrder = append(groupOrder, name)
		}
		g.table.Schema().SourceFragments = append(g.table.Schema().SourceFragments, src.Identifier)
		src.Fragment.Build(g.table)
	}

	// Deterministic table ordering: by the lexicographic order of the
	// numeric file-prefix of each table's first contributing fragment,
	// then by table name as a tie-break.
	sort.SliceStable(groupOrder, func(i, j int) bool {
		gi, gj := groups[groupOrder[i]], groups[groupOrder[j]]
		pi, pj := numericPrefix(gi.firstIdentifier), numericPrefix(gj.firstIdentifier)
		if pi != pj {
			return pi < pj
		}
		return gi.tableName < gj.tableName
	})

	set := schema.NewSchemaSet()
	for _, name := range groupOrder {
		g := groups[name]
		table := g.table.Schema()

		if err := applyAlterations(table); err != nil {
			return nil, err
		}
		if err := table.Validate(); err != nil {
			return nil, err
		}
		set.Add(table)
	}

	if err := validateCrossTableReferences(set); err != nil {
		return nil, err
	}

	return set, nil
}

// applyAlterations applies a table's accumulated Alteration records in
// source order, each overwriting exactly the sparse fields it specifies.
func applyAlterations(table *schema.TableSchema) error {
	for _, alt := range table.Alterations {
		idx := -1
		for i := range table.Fields {
			if table.Fields[i].Name == alt.Name {
				idx = i
				break
			}
		}
		if idx == -1 {
			return schema.UnknownAlterationTargetError{Table: table.Name, Field: alt.Name}
		}
		table.Fields[idx] = alt.Apply(table.Fields[idx])
	}
	return nil
}

// validateCrossTableReferences checks that every relationship's referenced
// table and column actually exist in the merged SchemaSet.
func validateCrossTableReferences(set *schema.SchemaSet) error {
	for _, table := range set.Tables() {
		for _, rel := range table.Relationships {
			if rel.Kind == schema.OneToManyMarker {
				continue
			}
			referenced := set.Get(rel.ReferencesTable)
			if referenced == nil {
				return schema.UnknownTableError{
					Table: table.Name, Relationship: rel.Name, ReferencedTable: rel.ReferencesTable,
				}
			}
			if referenced.GetField(rel.ReferencesColumn) == nil {
				return schema.MissingColumnError{
					Table: rel.ReferencesTable, Relationship: rel.Name, Column: rel.ReferencesColumn,
				}
			}
		}
	}
	return nil
}

// numericPrefix extracts the leading run of ASCII digits from an
// identifier (conventionally a filename such as "001_users.go"). Two
// identifiers with no leading digits are treated as incomparable by prefix
// and fall back to full-identifier ordering by returning the identifier
// itself, so unprefixed fragments still sort deterministically.
func numericPrefix(identifier string) string {
	i := 0
	for i < len(identifier) && identifier[i] >= '0' && identifier[i] <= '9' {
		i++
	}
	if i == 0 {
		return identifier
	}
	digits := i
	if digits > maxPrefixWidth {
		digits = maxPrefixWidth
	}
	return strings.Repeat("0", maxPrefixWidth-digits) + identifier[:i]
}

// maxPrefixWidth is a generous upper bound on numeric prefix digit count
// used to left-pad prefixes so that lexicographic string comparison agrees
// with numeric comparison (e.g. "9" sorts after "10" lexicographically
// without padding, but must sort before it numerically).
const maxPrefixWidth = 20

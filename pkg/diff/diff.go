// SPDX-License-Identifier: Apache-2.0

package diff

import (
	"sort"

	"github.com/fluentorm/fluent/pkg/schema"
)

// Diff computes the ordered ChangeSet that transforms the database described
// by prior into the one described by current. It is
// deterministic: identical (prior, current) pairs always produce
// byte-identical output (testable property #2).
func Diff(prior, current *schema.SchemaSet) (ChangeSet, error) {
	priorNames := sortedNames(prior)
	currentNames := sortedNames(current)

	onlyPrior, onlyCurrent, both := partition(priorNames, currentNames)

	order, err := topoSortCreates(current, onlyCurrent)
	if err != nil {
		return nil, err
	}

	var changes ChangeSet

	// 1. Drop foreign keys: tables being dropped entirely, plus relationship
	// deltas on tables present in both.
	for _, name := range onlyPrior {
		for _, rel := range sortedRelationships(prior.Get(name).Relationships) {
			if !rel.EmitsForeignKey() {
				continue
			}
			changes = append(changes, DropForeignKey{TableName: name, RelationshipName: rel.Name, Prior: rel})
		}
	}
	var bothAddFKs, bothDropFKs []Change
	var bothAddIdx, bothDropIdx []Change
	var addCols, dropCols, alterCols []Change
	for _, name := range both {
		p, c := prior.Get(name), current.Get(name)

		drops, adds, alters := fieldDelta(name, p, c)
		dropCols = append(dropCols, drops...)
		addCols = append(addCols, adds...)
		alterCols = append(alterCols, alters...)

		idxDrops, idxAdds := indexDelta(name, p, c)
		bothDropIdx = append(bothDropIdx, idxDrops...)
		bothAddIdx = append(bothAddIdx, idxAdds...)

		relDrops, relAdds := relationshipDelta(name, p, c)
		bothDropFKs = append(bothDropFKs, relDrops...)
		bothAddFKs = append(bothAddFKs, relAdds...)
	}
	changes = append(changes, bothDropFKs...)

	// 2. Drop indexes, then drop columns (dependents before targets).
	changes = append(changes, bothDropIdx...)
	changes = append(changes, dropCols...)

	// 3. Drop tables, once their foreign keys and indexes are gone.
	for _, name := range onlyPrior {
		changes = append(changes, DropTable{TableName: name, Prior: prior.Get(name)})
	}

	// 4. Create tables, in dependency order.
	for _, name := range order {
		changes = append(changes, CreateTable{TableName: name, Table: current.Get(name)})
	}

	// 5. Additive column/index changes for tables present in both, plus the
	// indexes belonging to newly created tables.
	changes = append(changes, addCols...)
	changes = append(changes, alterCols...)
	changes = append(changes, bothAddIdx...)
	for _, name := range order {
		for _, idx := range current.Get(name).Indexes {
			changes = append(changes, AddIndex{TableName: name, Index: idx})
		}
	}

	// 6. Foreign-key additions last: deferred past every CreateTable in this
	// cycle so cyclic references between newly created tables never block
	// table creation.
	changes = append(changes, bothAddFKs...)
	for _, name := range order {
		for _, rel := range sortedRelationships(current.Get(name).Relationships) {
			if !rel.EmitsForeignKey() {
				continue
			}
			changes = append(changes, AddForeignKey{TableName: name, Relationship: rel})
		}
	}

	return changes, nil
}

func sortedNames(set *schema.SchemaSet) []string {
	names := append([]string(nil), set.TableNames()...)
	sort.Strings(names)
	return names
}

// partition splits the union of prior/current table names into those only
// in prior, only in current, and in both, each lexicographically sorted.
func partition(priorNames, currentNames []string) (onlyPrior, onlyCurrent, both []string) {
	priorSet := make(map[string]bool, len(priorNames))
	for _, n := range priorNames {
		priorSet[n] = true
	}
	currentSet := make(map[string]bool, len(currentNames))
	for _, n := range currentNames {
		currentSet[n] = true
	}
	for _, n := range priorNames {
		if !currentSet[n] {
			onlyPrior = append(onlyPrior, n)
		} else {
			both = append(both, n)
		}
	}
	for _, n := range currentNames {
		if !priorSet[n] {
			onlyCurrent = append(onlyCurrent, n)
		}
	}
	sort.Strings(both)
	return onlyPrior, onlyCurrent, both
}

// topoSortCreates orders newly created tables so that a table referenced by
// a many_to_one/one_to_one relationship (its parent) is created before the
// table that references it, whenever both are being created in this cycle.
// Ties, and any cycle, fall back to lexicographic table-name order — safe
// because foreign-key additions are always deferred past every CreateTable
// (see Diff), so CreateTable order never needs to resolve a cycle itself.
func topoSortCreates(current *schema.SchemaSet, names []string) ([]string, error) {
	inCycle := make(map[string]bool, len(names))
	for _, n := range names {
		inCycle[n] = true
	}

	deps := make(map[string][]string, len(names))
	indegree := make(map[string]int, len(names))
	for _, n := range names {
		indegree[n] = 0
	}
	for _, n := range names {
		for _, rel := range current.Get(n).Relationships {
			if rel.Kind != schema.ManyToOne && rel.Kind != schema.OneToOne {
				continue
			}
			if !inCycle[rel.ReferencesTable] || rel.ReferencesTable == n {
				continue
			}
			deps[rel.ReferencesTable] = append(deps[rel.ReferencesTable], n)
			indegree[n]++
		}
	}

	var ready []string
	for _, n := range names {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	var order []string
	visited := make(map[string]bool, len(names))
	for len(ready) > 0 {
		sort.Strings(ready)
		n := ready[0]
		ready = ready[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		order = append(order, n)
		for _, child := range deps[n] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(order) < len(names) {
		// Cycle among the tables being created together: fall back to
		// lexicographic order for whatever remains unresolved.
		for _, n := range names {
			if !visited[n] {
				order = append(order, n)
			}
		}
	}
	return order, nil
}

func fieldDelta(table string, prior, current *schema.TableSchema) (drops, adds, alters []Change) {
	priorFields := make(map[string]schema.Field, len(prior.Fields))
	for _, f := range prior.Fields {
		priorFields[f.Name] = f
	}
	currentFields := make(map[string]schema.Field, len(current.Fields))
	for _, f := range current.Fields {
		currentFields[f.Name] = f
	}

	var dropNames, addNames, alterNames []string
	for name := range priorFields {
		if _, ok := currentFields[name]; !ok {
			dropNames = append(dropNames, name)
		}
	}
	for name, cf := range currentFields {
		pf, ok := priorFields[name]
		if !ok {
			addNames = append(addNames, name)
			continue
		}
		if !fieldsEqual(pf, cf) {
			alterNames = append(alterNames, name)
		}
	}
	sort.Strings(dropNames)
	sort.Strings(addNames)
	sort.Strings(alterNames)

	for _, name := range dropNames {
		drops = append(drops, DropColumn{TableName: table, FieldName: name, Prior: priorFields[name]})
	}
	for _, name := range addNames {
		adds = append(adds, AddColumn{TableName: table, Field: currentFields[name]})
	}
	for _, name := range alterNames {
		alters = append(alters, AlterColumn{TableName: table, FieldName: name, Prior: priorFields[name], Next: currentFields[name]})
	}
	return drops, adds, alters
}

func fieldsEqual(a, b schema.Field) bool {
	if a.Name != b.Name || a.Type != b.Type || a.PrimaryKey != b.PrimaryKey ||
		a.Unique != b.Unique || a.NotNull != b.NotNull || a.CreateInput != b.CreateInput ||
		a.UpdateInput != b.UpdateInput || a.Redacted != b.Redacted ||
		a.AutoGenerated != b.AutoGenerated || a.AutoGenerateType != b.AutoGenerateType {
		return false
	}
	switch {
	case a.DefaultValue == nil && b.DefaultValue == nil:
		return true
	case a.DefaultValue == nil || b.DefaultValue == nil:
		return false
	default:
		return *a.DefaultValue == *b.DefaultValue
	}
}

func indexDelta(table string, prior, current *schema.TableSchema) (drops, adds []Change) {
	priorIdx := make(map[string]schema.Index, len(prior.Indexes))
	for _, idx := range prior.Indexes {
		priorIdx[idx.Name] = idx
	}
	currentIdx := make(map[string]schema.Index, len(current.Indexes))
	for _, idx := range current.Indexes {
		currentIdx[idx.Name] = idx
	}

	var dropNames, addNames []string
	for name := range priorIdx {
		if _, ok := currentIdx[name]; !ok {
			dropNames = append(dropNames, name)
		}
	}
	for name, ci := range currentIdx {
		pi, ok := priorIdx[name]
		if !ok {
			addNames = append(addNames, name)
			continue
		}
		if !indexesEqual(pi, ci) {
			dropNames = append(dropNames, name)
			addNames = append(addNames, name)
		}
	}
	sort.Strings(dropNames)
	sort.Strings(addNames)

	for _, name := range dropNames {
		drops = append(drops, DropIndex{TableName: table, IndexName: name, Prior: priorIdx[name]})
	}
	for _, name := range addNames {
		adds = append(adds, AddIndex{TableName: table, Index: currentIdx[name]})
	}
	return drops, adds
}

func indexesEqual(a, b schema.Index) bool {
	if a.Unique != b.Unique || len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	return true
}

func relationshipDelta(table string, prior, current *schema.TableSchema) (drops, adds []Change) {
	priorRel := make(map[string]schema.Relationship)
	for _, rel := range prior.Relationships {
		if rel.EmitsForeignKey() {
			priorRel[rel.Name] = rel
		}
	}
	currentRel := make(map[string]schema.Relationship)
	for _, rel := range current.Relationships {
		if rel.EmitsForeignKey() {
			currentRel[rel.Name] = rel
		}
	}

	var dropNames, addNames []string
	for name := range priorRel {
		if _, ok := currentRel[name]; !ok {
			dropNames = append(dropNames, name)
		}
	}
	for name, cr := range currentRel {
		pr, ok := priorRel[name]
		if !ok {
			addNames = append(addNames, name)
			continue
		}
		if !relationshipsEqual(pr, cr) {
			dropNames = append(dropNames, name)
			addNames = append(addNames, name)
		}
	}
	sort.Strings(dropNames)
	sort.Strings(addNames)

	for _, name := range dropNames {
		drops = append(drops, DropForeignKey{TableName: table, RelationshipName: name, Prior: priorRel[name]})
	}
	for _, name := range addNames {
		adds = append(adds, AddForeignKey{TableName: table, Relationship: currentRel[name]})
	}
	return drops, adds
}

func relationshipsEqual(a, b schema.Relationship) bool {
	return a.Column == b.Column && a.ReferencesTable == b.ReferencesTable &&
		a.ReferencesColumn == b.ReferencesColumn && a.Kind == b.Kind &&
		a.OnDelete == b.OnDelete && a.OnUpdate == b.OnUpdate
}

func sortedRelationships(rels []schema.Relationship) []schema.Relationship {
	out := append([]schema.Relationship(nil), rels...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

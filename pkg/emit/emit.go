// SPDX-License-Identifier: Apache-2.0

// Package emit turns a diff.ChangeSet into deterministic, checksum-stable
// up/down SQL migration file pairs. It never touches the filesystem or
// a database; pkg/fluent writes the files and pkg/runner applies them.
package emit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fluentorm/fluent/pkg/diff"
	"github.com/fluentorm/fluent/pkg/schema"
)

// MigrationFile is one emitted (up, down) migration pair, named
// "{Timestamp}_{Slug}.sql" / "{Timestamp}_{Slug}_down.sql".
type MigrationFile struct {
	Timestamp int64
	Slug      string
	Table     string
	Kind      diff.ChangeKind
	UpBody    string
	DownBody  string
	Checksum  string
}

// Name is the up file's base name, without extension — the value stored in
// the runner's tracking table.
func (m MigrationFile) Name() string { return fmt.Sprintf("%d_%s", m.Timestamp, m.Slug) }

// UpFilename is the on-disk name of the up file.
func (m MigrationFile) UpFilename() string { return m.Name() + ".sql" }

// DownFilename is the on-disk name of the paired down file.
func (m MigrationFile) DownFilename() string { return m.Name() + "_down.sql" }

// UpContents renders the full up file, header included.
func (m MigrationFile) UpContents(generatedAt string) string {
	return header(m.Name(), generatedAt, m.Table, m.Kind) + m.UpBody
}

// DownContents renders the full down file, header included.
func (m MigrationFile) DownContents(generatedAt string) string {
	return header(m.Name(), generatedAt, m.Table, m.Kind) + m.DownBody
}

func header(name, generatedAt, table string, kind diff.ChangeKind) string {
	return fmt.Sprintf("-- Migration: %s\n-- Generated: %s\n-- Table: %s\n-- Type: %s\n", name, generatedAt, table, kind)
}

// Emit renders one MigrationFile per Change in changes, assigning each a
// timestamp starting at timestampSeed and incrementing by one per change, so
// that (timestamp, base_name) ordering matches the ChangeSet's own
// deterministic order.
//
// Emit is pure: given an identical ChangeSet and timestampSeed it produces
// byte-identical SQL bodies and checksums every time; only the header's
// generated_at timestamp, supplied by the caller, is allowed to vary.
func Emit(changes diff.ChangeSet, timestampSeed int64) ([]MigrationFile, error) {
	files := make([]MigrationFile, 0, len(changes))
	ts := timestampSeed
	for _, c := range changes {
		f, err := emitOne(c, ts)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		ts++
	}
	return files, nil
}

func emitOne(c diff.Change, ts int64) (MigrationFile, error) {
	switch change := c.(type) {
	case diff.CreateTable:
		return emitCreateTable(change, ts), nil
	case diff.DropTable:
		return emitDropTable(change, ts), nil
	case diff.AddColumn:
		return emitAddColumn(change, ts), nil
	case diff.DropColumn:
		return emitDropColumn(change, ts), nil
	case diff.AlterColumn:
		return emitAlterColumn(change, ts), nil
	case diff.AddIndex:
		return emitAddIndex(change, ts), nil
	case diff.DropIndex:
		return emitDropIndex(change, ts), nil
	case diff.AddForeignKey:
		return emitAddForeignKey(change, ts), nil
	case diff.DropForeignKey:
		return emitDropForeignKey(change, ts), nil
	default:
		return MigrationFile{}, fmt.Errorf("emit: unhandled change kind %T", c)
	}
}

func finish(ts int64, slug, table string, kind diff.ChangeKind, up, down string) MigrationFile {
	up = strings.TrimRight(up, "\n") + "\n"
	down = strings.TrimRight(down, "\n") + "\n"
	return MigrationFile{
		Timestamp: ts,
		Slug:      slug,
		Table:     table,
		Kind:      kind,
		UpBody:    up,
		DownBody:  down,
		Checksum:  Checksum(up),
	}
}

// Checksum hashes a migration body (header excluded) after stripping
// trailing whitespace from each line, so a migration file re-saved with
// different line endings or trailing spaces is not mistaken for tampering —
// only deliberate body edits should be. pkg/runner calls this same function when
// reconciling on-disk files against tracking-table checksums, so a file
// checksummed at emission time and one recomputed at apply time always
// agree.
func Checksum(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	normalized := strings.Join(lines, "\n")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func quoteIdent(name string) string { return pq.QuoteIdentifier(name) }

func columnTypeSQL(t schema.FieldType) string {
	switch t {
	case schema.UUID:
		return "UUID"
	case schema.Text:
		return "TEXT"
	case schema.Int4:
		return "INTEGER"
	case schema.Int8:
		return "BIGINT"
	case schema.Float4:
		return "REAL"
	case schema.Numeric:
		return "NUMERIC"
	case schema.Bool:
		return "BOOLEAN"
	case schema.Timestamp:
		return "TIMESTAMP"
	case schema.JSON:
		return "JSON"
	case schema.JSONB:
		return "JSONB"
	case schema.Bytea:
		return "BYTEA"
	default:
		return strings.ToUpper(string(t))
	}
}

// defaultExpr resolves a field's DEFAULT clause expression: an explicit
// default_value takes precedence (opaque raw SQL, never quoted); otherwise
// an auto_generated field gets a type-appropriate generator
// expression. A field with neither has no DEFAULT clause.
func defaultExpr(f schema.Field) string {
	if f.DefaultValue != nil {
		return *f.DefaultValue
	}
	if !f.AutoGenerated {
		return ""
	}
	switch f.Type {
	case schema.UUID:
		return "gen_random_uuid()"
	case schema.Timestamp:
		return "now()"
	default:
		return ""
	}
}

// columnDefSQL renders one column's full CREATE TABLE / ADD COLUMN
// definition.
func columnDefSQL(f schema.Field) string {
	var b strings.Builder
	b.WriteString(quoteIdent(f.Name))
	b.WriteString(" ")
	b.WriteString(columnTypeSQL(f.Type))
	if f.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	} else {
		if f.NotNull {
			b.WriteString(" NOT NULL")
		}
		if f.Unique {
			b.WriteString(" UNIQUE")
		}
	}
	if def := defaultExpr(f); def != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(def)
	}
	return b.String()
}

func referentialActionSQL(a schema.ReferentialAction) string {
	switch a {
	case schema.Cascade:
		return "CASCADE"
	case schema.SetNull:
		return "SET NULL"
	case schema.SetDefault:
		return "SET DEFAULT"
	case schema.Restrict:
		return "RESTRICT"
	default:
		return "NO ACTION"
	}
}

func hasUUIDField(t *schema.TableSchema) bool {
	for _, f := range t.Fields {
		if f.Type == schema.UUID {
			return true
		}
	}
	return false
}

func emitCreateTable(c diff.CreateTable, ts int64) MigrationFile {
	var up strings.Builder
	if hasUUIDField(c.Table) {
		up.WriteString(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";` + "\n")
	}
	up.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", quoteIdent(c.TableName)))
	for i, f := range c.Table.Fields {
		up.WriteString("  " + columnDefSQL(f))
		if i < len(c.Table.Fields)-1 {
			up.WriteString(",")
		}
		up.WriteString("\n")
	}
	up.WriteString(");")

	down := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", quoteIdent(c.TableName))

	return finish(ts, "create_"+c.TableName, c.TableName, diff.KindCreateTable, up.String(), down)
}

func emitDropTable(c diff.DropTable, ts int64) MigrationFile {
	up := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", quoteIdent(c.TableName))

	var down strings.Builder
	if hasUUIDField(c.Prior) {
		down.WriteString(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";` + "\n")
	}
	down.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", quoteIdent(c.TableName)))
	for i, f := range c.Prior.Fields {
		down.WriteString("  " + columnDefSQL(f))
		if i < len(c.Prior.Fields)-1 {
			down.WriteString(",")
		}
		down.WriteString("\n")
	}
	down.WriteString(");")

	return finish(ts, "drop_"+c.TableName, c.TableName, diff.KindDropTable, up, down.String())
}

func emitAddColumn(c diff.AddColumn, ts int64) MigrationFile {
	up := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", quoteIdent(c.TableName), columnDefSQL(c.Field))
	down := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", quoteIdent(c.TableName), quoteIdent(c.Field.Name))
	return finish(ts, c.TableName+"_add_column_"+c.Field.Name, c.TableName, diff.KindAddColumn, up, down)
}

func emitDropColumn(c diff.DropColumn, ts int64) MigrationFile {
	up := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", quoteIdent(c.TableName), quoteIdent(c.FieldName))
	down := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", quoteIdent(c.TableName), columnDefSQL(c.Prior))
	return finish(ts, c.TableName+"_drop_column_"+c.FieldName, c.TableName, diff.KindDropColumn, up, down)
}

func emitAlterColumn(c diff.AlterColumn, ts int64) MigrationFile {
	upStmts := alterColumnClauses(c.TableName, c.FieldName, c.Prior, c.Next)
	downStmts := alterColumnClauses(c.TableName, c.FieldName, c.Next, c.Prior)
	return finish(ts, c.TableName+"_alter_column_"+c.FieldName, c.TableName, diff.KindAlterColumn,
		strings.Join(upStmts, "\n"), strings.Join(downStmts, "\n"))
}

// alterColumnClauses renders the minimal sequence of ALTER TABLE statements
// moving a column from `from` to `to`.
func alterColumnClauses(table, field string, from, to schema.Field) []string {
	t := quoteIdent(table)
	col := quoteIdent(field)
	var stmts []string

	if from.Type != to.Type {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;", t, col, columnTypeSQL(to.Type)))
	}
	if to.NotNull && !from.NotNull {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", t, col))
	} else if !to.NotNull && from.NotNull {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", t, col))
	}

	fromDefault, toDefault := defaultExpr(from), defaultExpr(to)
	if toDefault != "" && toDefault != fromDefault {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", t, col, toDefault))
	} else if toDefault == "" && fromDefault != "" {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", t, col))
	}

	constraintName := quoteIdent(fmt.Sprintf("%s_%s_key", table, field))
	if to.Unique && !from.Unique {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);", t, constraintName, col))
	} else if !to.Unique && from.Unique {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", t, constraintName))
	}

	return stmts
}

func emitAddIndex(c diff.AddIndex, ts int64) MigrationFile {
	up := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);", uniqueKeyword(c.Index.Unique), quoteIdent(c.Index.Name), quoteIdent(c.TableName), quoteColumns(c.Index.Columns))
	down := fmt.Sprintf("DROP INDEX IF EXISTS %s;", quoteIdent(c.Index.Name))
	return finish(ts, c.TableName+"_add_index_"+c.Index.Name, c.TableName, diff.KindAddIndex, up, down)
}

func emitDropIndex(c diff.DropIndex, ts int64) MigrationFile {
	up := fmt.Sprintf("DROP INDEX IF EXISTS %s;", quoteIdent(c.IndexName))
	down := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);", uniqueKeyword(c.Prior.Unique), quoteIdent(c.Prior.Name), quoteIdent(c.TableName), quoteColumns(c.Prior.Columns))
	return finish(ts, c.TableName+"_drop_index_"+c.IndexName, c.TableName, diff.KindDropIndex, up, down)
}

func uniqueKeyword(unique bool) string {
	if unique {
		return "UNIQUE "
	}
	return ""
}

func quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func emitAddForeignKey(c diff.AddForeignKey, ts int64) MigrationFile {
	up := foreignKeyAddSQL(c.TableName, c.Relationship)
	down := foreignKeyDropSQL(c.TableName, c.Relationship.Name)
	return finish(ts, c.TableName+"_add_fk_"+c.Relationship.Column, c.TableName, diff.KindAddForeignKey, up, down)
}

func emitDropForeignKey(c diff.DropForeignKey, ts int64) MigrationFile {
	up := foreignKeyDropSQL(c.TableName, c.RelationshipName)
	down := foreignKeyAddSQL(c.TableName, c.Prior)
	return finish(ts, c.TableName+"_drop_fk_"+c.Prior.Column, c.TableName, diff.KindDropForeignKey, up, down)
}

func foreignKeyAddSQL(table string, rel schema.Relationship) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE %s ON UPDATE %s;",
		quoteIdent(table), fkConstraintName(rel.Name), quoteIdent(rel.Column),
		quoteIdent(rel.ReferencesTable), quoteIdent(rel.ReferencesColumn),
		referentialActionSQL(rel.OnDelete), referentialActionSQL(rel.OnUpdate))
}

func foreignKeyDropSQL(table, relationshipName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", quoteIdent(table), fkConstraintName(relationshipName))
}

func fkConstraintName(relationshipName string) string {
	return quoteIdent("fk_" + relationshipName)
}

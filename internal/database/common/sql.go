package common

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/Rana718/dataorganizer/internal/types"
)

// Dialect is what the shared statement builders need to know about a backend.
type Dialect interface {
	Name() string
	QuoteIdent(name string) string
	// ColumnDefinition renders everything after the column name in CREATE TABLE.
	ColumnDefinition(col types.ColumnSpec, table *types.TableSpec) string
	// BinaryLiterals reports whether BYTEA values are sent as raw bytes.
	BinaryLiterals() bool
	Placeholder() squirrel.PlaceholderFormat
}

// QualifiedName quotes table, prefixed with schema when one is given.
func QualifiedName(d Dialect, schema, table string) string {
	if schema == "" {
		return d.QuoteIdent(table)
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

// NullableSuffix is the NOT NULL marker for non-nullable columns.
func NullableSuffix(col types.ColumnSpec) string {
	if col.IsNullable {
		return ""
	}
	return " NOT NULL"
}

func quoteAll(d Dialect, names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = d.QuoteIdent(name)
	}
	return quoted
}

// CreateTableSQL builds the CREATE TABLE statement for table. Unique columns
// form one UNIQUE constraint and primary columns one PRIMARY KEY, unless a
// column definition already inlines its primary key. ref, when set, is the
// parent table whose RelTableCommonColumn becomes a foreign key.
func CreateTableSQL(d Dialect, table *types.TableSpec, ref *types.TableSpec, schema string) string {
	var lines []string
	var unique, primary []string
	inlinePrimary := false

	for _, col := range table.Columns {
		def := d.ColumnDefinition(col, table)
		if strings.Contains(strings.ToUpper(def), "PRIMARY KEY") {
			inlinePrimary = true
		}
		lines = append(lines, fmt.Sprintf("  %s %s", d.QuoteIdent(col.Name), def))

		if col.IsUnique {
			unique = append(unique, col.Name)
		}
		if col.IsPrimary {
			primary = append(primary, col.Name)
		}
	}

	if len(unique) > 0 {
		lines = append(lines, fmt.Sprintf("  UNIQUE (%s)", strings.Join(quoteAll(d, unique), ", ")))
	}
	if len(primary) > 0 && !inlinePrimary {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(quoteAll(d, primary), ", ")))
	}
	if ref != nil && ref.RelTableCommonColumn != "" {
		key := d.QuoteIdent(ref.RelTableCommonColumn)
		lines = append(lines, fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s(%s)",
			key, QualifiedName(d, schema, ref.Name), key))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", QualifiedName(d, schema, table.Name), strings.Join(lines, ",\n"))
}

// BuildInsert preprocesses rows and renders one multi-row INSERT for the
// table's insert columns.
func BuildInsert(d Dialect, table *types.TableSpec, rows [][]any, schema string) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("no rows to insert into %s", table.Name)
	}

	processed, err := Preprocess(table, rows, d.BinaryLiterals())
	if err != nil {
		return "", nil, err
	}

	insert := squirrel.Insert(QualifiedName(d, schema, table.Name)).
		Columns(quoteAll(d, table.InsertColumnNames())...).
		PlaceholderFormat(d.Placeholder())
	for _, row := range processed {
		insert = insert.Values(row...)
	}

	return insert.ToSql()
}

// LastValueQuery selects the highest value of column in table.
func LastValueQuery(d Dialect, table, column, schema string) (string, []any, error) {
	col := d.QuoteIdent(column)
	return squirrel.Select(col).
		From(QualifiedName(d, schema, table)).
		OrderBy(col + " DESC").
		Limit(1).
		PlaceholderFormat(d.Placeholder()).
		ToSql()
}

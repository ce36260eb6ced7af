package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnKind is the closed set of logical column types the data organizer
// knows how to coerce. Anything unrecognized is treated as text.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInt
	KindFloat
	KindDate
	KindTime
	KindInterval
	KindBytea
	KindSerial
)

var kindNames = map[ColumnKind]string{
	KindText:     "TEXT",
	KindInt:      "INT",
	KindFloat:    "FLOAT",
	KindDate:     "DATE",
	KindTime:     "TIME",
	KindInterval: "INTERVAL",
	KindBytea:    "BYTEA",
	KindSerial:   "SERIAL",
}

func (k ColumnKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ColumnKind(%d)", int(k))
}

// ParseColumnKind maps a ctype token (case-insensitive) to its kind.
func ParseColumnKind(ctype string) ColumnKind {
	switch strings.ToUpper(strings.TrimSpace(ctype)) {
	case "INT":
		return KindInt
	case "FLOAT":
		return KindFloat
	case "DATE":
		return KindDate
	case "TIME":
		return KindTime
	case "INTERVAL":
		return KindInterval
	case "BYTEA":
		return KindBytea
	case "SERIAL":
		return KindSerial
	default:
		return KindText
	}
}

type ColumnSpec struct {
	Name       string
	CType      string
	Kind       ColumnKind
	IsPrimary  bool
	IsUnique   bool
	IsNullable bool
	IsInserted bool
	Default    *string

	typedDefault any
}

// ColumnOption tweaks a ColumnSpec during NewColumnSpec.
type ColumnOption func(*ColumnSpec)

func Primary() ColumnOption  { return func(c *ColumnSpec) { c.IsPrimary = true } }
func Unique() ColumnOption   { return func(c *ColumnSpec) { c.IsUnique = true } }
func Nullable() ColumnOption { return func(c *ColumnSpec) { c.IsNullable = true } }
func NotInserted() ColumnOption {
	return func(c *ColumnSpec) { c.IsInserted = false }
}

func WithDefault(def string) ColumnOption {
	return func(c *ColumnSpec) { c.Default = &def }
}

// NewColumnSpec builds a column, resolving its kind and typed default once.
// A default that does not parse for INT or FLOAT columns is an error.
func NewColumnSpec(name, ctype string, opts ...ColumnOption) (ColumnSpec, error) {
	col := ColumnSpec{
		Name:       name,
		CType:      ctype,
		Kind:       ParseColumnKind(ctype),
		IsInserted: true,
	}
	for _, opt := range opts {
		opt(&col)
	}

	if col.Name == "" {
		return ColumnSpec{}, fmt.Errorf("column name cannot be empty")
	}
	if strings.TrimSpace(col.CType) == "" {
		return ColumnSpec{}, fmt.Errorf("column %s: ctype cannot be empty", name)
	}

	if col.Default != nil {
		typed, err := parseDefault(col.Kind, *col.Default)
		if err != nil {
			return ColumnSpec{}, fmt.Errorf("column %s: invalid default %q for %s: %w", name, *col.Default, col.CType, err)
		}
		col.typedDefault = typed
	}

	return col, nil
}

// MustColumnSpec is NewColumnSpec for statically known columns; it panics on error.
func MustColumnSpec(name, ctype string, opts ...ColumnOption) ColumnSpec {
	col, err := NewColumnSpec(name, ctype, opts...)
	if err != nil {
		panic(err)
	}
	return col
}

func parseDefault(kind ColumnKind, raw string) (any, error) {
	switch kind {
	case KindInt:
		return strconv.ParseInt(raw, 10, 64)
	case KindFloat:
		return strconv.ParseFloat(raw, 64)
	default:
		return raw, nil
	}
}

// TypedDefault is nil iff Default is nil; int64 for INT, float64 for FLOAT,
// the raw string otherwise.
func (c ColumnSpec) TypedDefault() any {
	if c.Default == nil {
		return nil
	}
	return c.typedDefault
}

// GoType names the Go type a coerced value of this column has.
func (c ColumnSpec) GoType() string {
	var base string
	switch c.Kind {
	case KindInt, KindSerial:
		base = "int64"
	case KindFloat:
		base = "float64"
	case KindBytea:
		base = "[]byte"
	default:
		base = "string"
	}
	if c.IsNullable {
		return "*" + base
	}
	return base
}

type TableSpec struct {
	Name                             string
	Columns                          []ColumnSpec
	RelTable                         string
	RelTableCommonColumn             string
	RelTableCommonColumnAsForeignKey bool
	DisableAutoInsertColumns         bool
}

// Column returns the named column.
func (t *TableSpec) Column(name string) (ColumnSpec, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnSpec{}, false
}

func (t *TableSpec) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// InsertColumns are the columns an insert supplies values for: every column
// when DisableAutoInsertColumns is set, otherwise only IsInserted ones.
func (t *TableSpec) InsertColumns() []ColumnSpec {
	if t.DisableAutoInsertColumns {
		return append([]ColumnSpec(nil), t.Columns...)
	}
	cols := make([]ColumnSpec, 0, len(t.Columns))
	for _, col := range t.Columns {
		if col.IsInserted {
			cols = append(cols, col)
		}
	}
	return cols
}

func (t *TableSpec) InsertColumnNames() []string {
	cols := t.InsertColumns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	return names
}

func (t *TableSpec) HasRelTable() bool {
	return t.RelTable != ""
}

// Row is one collected record: column names and their typed values in order.
type Row struct {
	Columns []string
	Values  []any
}

func (r *Row) Append(column string, value any) {
	r.Columns = append(r.Columns, column)
	r.Values = append(r.Values, value)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/dataorganizer/internal/types"
)

const sqliteSettings = `
[db]
database = "organizer.db"
prefix = "sqlite"
`

const parentChildTables = `
parent:
  name: parent
  rel_table: child
  rel_table_common_column: A
  rel_table_common_column_as_foreign_key: true
  A:
    ctype: INT
    is_primary: true
  A1:
    ctype: INT
    is_nullable: true
    default: "3"
child:
  name: child
  id:
    ctype: SERIAL
    is_primary: true
  A:
    ctype: INT
  B1:
    ctype: VARCHAR(20)
    is_unique: true
`

func loadTables(t *testing.T, tables string) (*Config, error) {
	t.Helper()

	dir := writeConf(t, map[string]string{
		"settings.toml": sqliteSettings,
		"tables.yaml":   tables,
	})
	return Load(Options{ConfDir: dir, TableFiles: []string{"tables.yaml"}})
}

func TestLoadTableFile(t *testing.T) {
	cfg, err := loadTables(t, parentChildTables)
	require.NoError(t, err)

	assert.Equal(t, []string{"parent", "child"}, cfg.TableOrder)

	parent, err := cfg.Table("parent")
	require.NoError(t, err)
	assert.Equal(t, "child", parent.RelTable)
	assert.Equal(t, "A", parent.RelTableCommonColumn)
	assert.True(t, parent.RelTableCommonColumnAsForeignKey)
	assert.Equal(t, []string{"A", "A1"}, parent.InsertColumnNames())

	a1, ok := parent.Column("A1")
	require.True(t, ok)
	assert.True(t, a1.IsNullable)
	assert.Equal(t, int64(3), a1.TypedDefault())

	child, err := cfg.Table("child")
	require.NoError(t, err)
	id, ok := child.Column("id")
	require.True(t, ok)
	assert.Equal(t, types.KindSerial, id.Kind)
	assert.False(t, id.IsInserted, "auto-fill columns are never inserted")
	assert.Equal(t, []string{"A", "B1"}, child.InsertColumnNames())

	_, err = cfg.Table("missing")
	assert.Error(t, err)
}

func TestLoadTableFileErrors(t *testing.T) {
	tests := []struct {
		name   string
		tables string
		want   string
	}{
		{
			name:   "table is not a mapping",
			tables: "parent: 3\n",
			want:   "must be a mapping",
		},
		{
			name:   "missing name",
			tables: "parent:\n  A:\n    ctype: INT\n",
			want:   "name must be set",
		},
		{
			name:   "unknown column key",
			tables: "parent:\n  name: parent\n  A:\n    ctype: INT\n    size: 3\n",
			want:   "unexpected key size",
		},
		{
			name:   "unknown table key",
			tables: "parent:\n  name: parent\n  owner: me\n  A:\n    ctype: INT\n",
			want:   "unexpected key owner",
		},
		{
			name:   "wrong value type",
			tables: "parent:\n  name: parent\n  A:\n    ctype: INT\n    is_primary: \"yes\"\n",
			want:   "expected true or false",
		},
		{
			name:   "missing ctype",
			tables: "parent:\n  name: parent\n  A:\n    is_primary: true\n",
			want:   "mandatory key ctype missing",
		},
		{
			name:   "bad default",
			tables: "parent:\n  name: parent\n  A:\n    ctype: INT\n    default: abc\n",
			want:   "default",
		},
		{
			name:   "invalid identifier",
			tables: "parent:\n  name: parent-table\n  A:\n    ctype: INT\n",
			want:   "invalid table name",
		},
		{
			name:   "duplicate column",
			tables: "parent:\n  name: parent\n  A:\n    ctype: INT\n  A:\n    ctype: INT\n",
			want:   "",
		},
		{
			name:   "relative table missing",
			tables: "parent:\n  name: parent\n  rel_table: child\n  rel_table_common_column: A\n  A:\n    ctype: INT\n",
			want:   "rel_table child is not defined",
		},
		{
			name: "common column not in relative table",
			tables: "parent:\n  name: parent\n  rel_table: child\n  rel_table_common_column: A\n  A:\n    ctype: INT\n" +
				"child:\n  name: child\n  B:\n    ctype: INT\n",
			want: "is not a column of child",
		},
		{
			name: "relative table without common column",
			tables: "parent:\n  name: parent\n  rel_table: child\n  A:\n    ctype: INT\n" +
				"child:\n  name: child\n  A:\n    ctype: INT\n",
			want: "rel_table_common_column must be set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadTables(t, tt.tables)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/dataorganizer/internal/config"
	"github.com/Rana718/dataorganizer/internal/database/common"
	"github.com/Rana718/dataorganizer/internal/types"
)

func openTestAdapter(t *testing.T) *Adapter {
	t.Helper()

	a := New()
	dsn := DSN(config.Database{Database: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, a.Connect(context.Background(), dsn))
	require.NoError(t, a.Ping(context.Background()))
	t.Cleanup(func() { a.Close() })
	return a
}

func parentChild() (*types.TableSpec, *types.TableSpec) {
	parent := &types.TableSpec{
		Name: "parent",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("A", "INT", types.Primary()),
			types.MustColumnSpec("A1", "INT", types.Unique(), types.Nullable()),
		},
		RelTable:                         "child",
		RelTableCommonColumn:             "A",
		RelTableCommonColumnAsForeignKey: true,
	}
	child := &types.TableSpec{
		Name: "child",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("A", "INT"),
			types.MustColumnSpec("B1", "INT"),
			types.MustColumnSpec("B2", "INT", types.Nullable()),
		},
	}
	return parent, child
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "data.db?_foreign_keys=on", DSN(config.Database{Database: "data.db"}))
	assert.Equal(t, "data.db?cache=shared&_foreign_keys=on", DSN(config.Database{Database: "sqlite://data.db?cache=shared"}))
}

func TestCreateTablesAndHasTable(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	parent, child := parentChild()

	exists, err := a.HasTable(ctx, "parent", "")
	require.NoError(t, err)
	assert.False(t, exists)

	fks := map[string]*types.TableSpec{child.Name: parent}
	require.NoError(t, a.CreateTables(ctx, []*types.TableSpec{parent, child}, fks, ""))

	for _, name := range []string{"parent", "child"} {
		exists, err := a.HasTable(ctx, name, "")
		require.NoError(t, err)
		assert.True(t, exists, name)
	}

	// existing tables are left alone
	require.NoError(t, a.CreateTables(ctx, []*types.TableSpec{parent}, nil, ""))
}

func TestInsertAndLastValue(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	parent, child := parentChild()
	require.NoError(t, a.CreateTables(ctx, []*types.TableSpec{parent, child}, map[string]*types.TableSpec{child.Name: parent}, ""))

	require.NoError(t, a.Insert(ctx, parent, [][]any{{int64(1), int64(2)}, {int64(3), nil}}, ""))

	last, err := a.LastValue(ctx, "parent", "A", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)

	_, err = a.LastValue(ctx, "child", "A", "")
	assert.ErrorIs(t, err, common.ErrQueryReturnedNoData)

	require.NoError(t, a.Insert(ctx, child, [][]any{{int64(3), int64(4), nil}}, ""))

	// the child references parent.A
	err = a.Insert(ctx, child, [][]any{{int64(9), int64(4), nil}}, "")
	assert.Error(t, err)
}

func TestInsertMissingTable(t *testing.T) {
	a := openTestAdapter(t)
	parent, _ := parentChild()

	err := a.Insert(context.Background(), parent, [][]any{{int64(1), nil}}, "")
	assert.True(t, errors.Is(err, common.ErrTableNotExists))
}

func TestInsertBinaryFromFile(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	table := &types.TableSpec{
		Name: "files",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("id", "SERIAL", types.Primary(), types.NotInserted()),
			types.MustColumnSpec("name", "VARCHAR(20)"),
			types.MustColumnSpec("data", "BYTEA"),
		},
	}
	require.NoError(t, a.CreateTables(ctx, []*types.TableSpec{table}, nil, ""))

	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0xff}, 0644))
	require.NoError(t, a.Insert(ctx, table, [][]any{{"first", path}}, ""))

	result, err := a.Query(ctx, squirrel.Select("id", "name", "data").From("files"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "data"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(1), result.Rows[0][0])
	assert.Equal(t, "first", result.Rows[0][1])
	assert.Equal(t, []byte{0x00, 0x01, 0xff}, result.Rows[0][2])

	err = a.Insert(ctx, table, [][]any{{"second", "not a file"}}, "")
	var binErr *common.BinaryDataError
	assert.ErrorAs(t, err, &binErr)
}

func TestSerialPrimaryKeyDefinition(t *testing.T) {
	table := &types.TableSpec{
		Name: "t",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("id", "SERIAL", types.Primary()),
			types.MustColumnSpec("v", "FLOAT", types.Nullable()),
		},
	}
	a := New()

	assert.Equal(t, "INTEGER PRIMARY KEY AUTOINCREMENT", a.ColumnDefinition(table.Columns[0], table))
	assert.Equal(t, "REAL", a.ColumnDefinition(table.Columns[1], table))
	assert.NotContains(t, common.CreateTableSQL(a, table, nil, ""), "  PRIMARY KEY (")
}

func TestCreateTablesRejectsUnfillableSerial(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)

	segments := &types.TableSpec{
		Name: "segments",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("id", "SERIAL", types.Primary(), types.NotInserted()),
			types.MustColumnSpec("seg", "INT", types.Primary()),
		},
	}
	err := a.CreateTables(ctx, []*types.TableSpec{segments}, nil, "")
	require.ErrorIs(t, err, common.ErrUnsupportedColumn)
	assert.Contains(t, err.Error(), "SERIAL column id")

	exists, err := a.HasTable(ctx, "segments", "")
	require.NoError(t, err)
	assert.False(t, exists)

	counter := &types.TableSpec{
		Name: "counter",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("n", "SERIAL", types.NotInserted()),
			types.MustColumnSpec("v", "INT"),
		},
	}
	assert.ErrorIs(t, a.CreateTables(ctx, []*types.TableSpec{counter}, nil, ""), common.ErrUnsupportedColumn)

	serial := &types.TableSpec{
		Name: "serial",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("id", "SERIAL", types.Primary(), types.NotInserted()),
			types.MustColumnSpec("v", "INT"),
		},
	}
	require.NoError(t, a.CreateTables(ctx, []*types.TableSpec{serial}, nil, ""))
	require.NoError(t, a.Insert(ctx, serial, [][]any{{int64(5)}, {int64(6)}}, ""))

	last, err := a.LastValue(ctx, "serial", "id", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)
}

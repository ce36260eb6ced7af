package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/dataorganizer/internal/coerce"
	"github.com/Rana718/dataorganizer/internal/config"
	"github.com/Rana718/dataorganizer/internal/database/sqlite"
	"github.com/Rana718/dataorganizer/internal/logging"
	"github.com/Rana718/dataorganizer/internal/types"
)

// scripted answers every question from fixed queues and records what it
// was asked.
type scripted struct {
	tables   []string
	confirms []bool
	values   []string

	questions []string
	prompted  []string
	invalid   []string
	infos     []string
	errors    []string
}

func (s *scripted) ChooseTable(ids []string) (string, error) {
	if len(s.tables) == 0 {
		return "", io.EOF
	}
	id := s.tables[0]
	s.tables = s.tables[1:]
	return id, nil
}

func (s *scripted) Confirm(question string, def bool) (bool, error) {
	s.questions = append(s.questions, question)
	if len(s.confirms) == 0 {
		return false, io.EOF
	}
	answer := s.confirms[0]
	s.confirms = s.confirms[1:]
	return answer, nil
}

func (s *scripted) PromptValue(col types.ColumnSpec) (string, error) {
	s.prompted = append(s.prompted, col.Name)
	if len(s.values) == 0 {
		return "", io.EOF
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v, nil
}

func (s *scripted) InvalidInput(col types.ColumnSpec, err *coerce.InvalidInputError) {
	s.invalid = append(s.invalid, col.Name)
}

func (s *scripted) Info(msg string)  { s.infos = append(s.infos, msg) }
func (s *scripted) Error(msg string) { s.errors = append(s.errors, msg) }

func testConfig() *config.Config {
	parent := &types.TableSpec{
		Name: "parent",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("A", "INT", types.Primary()),
			types.MustColumnSpec("A1", "INT"),
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

	return &config.Config{
		TableSettings: config.TableSettings{AutoFillCTypes: []string{"SERIAL"}},
		Tables:        map[string]*types.TableSpec{"parent": parent, "child": child},
		TableOrder:    []string{"parent", "child"},
	}
}

func openStore(t *testing.T) *sqlite.Adapter {
	t.Helper()

	store := sqlite.New()
	dsn := sqlite.DSN(config.Database{Database: filepath.Join(t.TempDir(), "edit.db")})
	require.NoError(t, store.Connect(context.Background(), dsn))
	t.Cleanup(func() { store.Close() })
	return store
}

func childRows(t *testing.T, store *sqlite.Adapter) [][]any {
	t.Helper()

	result, err := store.Query(context.Background(), squirrel.Select("A", "B1", "B2").From("child").OrderBy("B1"))
	require.NoError(t, err)
	return result.Rows
}

func TestSessionCascadesSharedKeyIntoChild(t *testing.T) {
	store := openStore(t)
	op := &scripted{
		tables: []string{"parent"},
		confirms: []bool{
			true,  // create parent
			true,  // also add data to child
			true,  // create child
			true,  // finished with this table
			false, // no other table
		},
		values: []string{"1", "10", "5", ""},
	}

	session := NewSession(testConfig(), store, op, Options{})
	require.NoError(t, session.Run(context.Background()))
	assert.Equal(t, StateDone, session.State())

	assert.Equal(t, []string{"A", "A1", "B1", "B2"}, op.prompted, "child A must come from the parent")
	assert.Empty(t, op.errors)
	assert.Equal(t, []string{
		"Table parent does not exist. Create table?",
		"Also add data to relative table child",
		"Table child does not exist. Create table?",
		"Are you finished applying actions to this table?",
		"Do you want to edit another table?",
	}, op.questions)

	assert.Equal(t, [][]any{{int64(1), int64(5), nil}}, childRows(t, store))
}

func TestSessionUsesLatestChildKey(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	cfg := testConfig()
	parent, child := cfg.Tables["parent"], cfg.Tables["child"]

	require.NoError(t, store.CreateTables(ctx, []*types.TableSpec{parent, child}, map[string]*types.TableSpec{"child": parent}, ""))
	require.NoError(t, store.Insert(ctx, parent, [][]any{{int64(7), int64(0)}}, ""))
	require.NoError(t, store.Insert(ctx, child, [][]any{{int64(7), int64(1), nil}}, ""))

	op := &scripted{
		tables:   []string{"parent"},
		confirms: []bool{true, true, false},
		values:   []string{"3", "30", "2", "4"},
	}
	require.NoError(t, NewSession(cfg, store, op, Options{}).Run(ctx))

	assert.Equal(t, [][]any{{int64(7), int64(1), nil}, {int64(7), int64(2), int64(4)}}, childRows(t, store))
}

func TestSessionCascadesTimestampKey(t *testing.T) {
	rides := &types.TableSpec{
		Name: "rides",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("ts", "TIMESTAMP", types.Primary()),
			types.MustColumnSpec("v", "INT"),
		},
		RelTable:             "tracks",
		RelTableCommonColumn: "ts",
	}
	tracks := &types.TableSpec{
		Name: "tracks",
		Columns: []types.ColumnSpec{
			types.MustColumnSpec("ts", "TIMESTAMP"),
			types.MustColumnSpec("w", "INT"),
		},
	}
	cfg := &config.Config{
		Tables:     map[string]*types.TableSpec{"rides": rides, "tracks": tracks},
		TableOrder: []string{"rides", "tracks"},
	}

	store := openStore(t)
	op := &scripted{
		tables:   []string{"rides"},
		confirms: []bool{true, true, true, true, false},
		values:   []string{"2022-01-01 10:00:00", "1", "2"},
	}
	require.NoError(t, NewSession(cfg, store, op, Options{}).Run(context.Background()))
	assert.Empty(t, op.errors)
	assert.Equal(t, []string{"ts", "v", "w"}, op.prompted)

	result, err := store.Query(context.Background(),
		squirrel.Select("CAST(r.ts AS TEXT)", "CAST(t.ts AS TEXT)").From("rides r").Join("tracks t ON t.w = 2"))
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"2022-01-01 10:00:00", "2022-01-01 10:00:00"}}, result.Rows)
}

func TestSessionReportsFailedInsertAndContinues(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	cfg := testConfig()
	require.NoError(t, store.CreateTables(ctx, []*types.TableSpec{cfg.Tables["parent"]}, nil, ""))
	require.NoError(t, store.Insert(ctx, cfg.Tables["parent"], [][]any{{int64(1), int64(1)}}, ""))

	op := &scripted{
		tables: []string{"parent"},
		confirms: []bool{
			false, // not finished, insert again
			false, // decline cascade
			true,  // finished
			false, // no other table
		},
		values: []string{"1", "2", "2", "3"},
	}
	require.NoError(t, NewSession(cfg, store, op, Options{}).Run(ctx))

	require.Len(t, op.errors, 1)
	assert.Contains(t, op.errors[0], "Data could not be inserted: ")
	assert.Equal(t, "Also add data to relative table child", op.questions[1])

	last, err := store.LastValue(ctx, "parent", "A", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)
}

func TestSessionDeclinedCreationSkipsTable(t *testing.T) {
	store := openStore(t)
	op := &scripted{
		tables:   []string{"child"},
		confirms: []bool{false, false},
	}

	require.NoError(t, NewSession(testConfig(), store, op, Options{}).Run(context.Background()))
	assert.Equal(t, []string{
		"Table child does not exist. Create table?",
		"Do you want to edit another table?",
	}, op.questions)
	assert.Empty(t, op.prompted)
}

func TestSessionRepromptsInvalidInput(t *testing.T) {
	store := openStore(t)
	op := &scripted{
		tables:   []string{"child"},
		confirms: []bool{true, true, false},
		values:   []string{"1.2", "1", "x", "2", "NULL"},
	}

	require.NoError(t, NewSession(testConfig(), store, op, Options{}).Run(context.Background()))
	assert.Equal(t, []string{"A", "B1"}, op.invalid)
	assert.Equal(t, [][]any{{int64(1), int64(2), nil}}, childRows(t, store))
}

func TestSessionStrictStopsOnInvalidInput(t *testing.T) {
	store := openStore(t)
	op := &scripted{
		tables:   []string{"child"},
		confirms: []bool{true},
		values:   []string{"abc"},
	}

	err := NewSession(testConfig(), store, op, Options{Strict: true}).Run(context.Background())
	assert.True(t, coerce.IsInvalidInput(err))
}

func TestSessionLogsCarryTableAndSession(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logging.Setup("info", "json", &buf)

	store := openStore(t)
	op := &scripted{
		tables:   []string{"child"},
		confirms: []bool{true},
		values:   []string{"abc"},
	}
	session := NewSession(testConfig(), store, op, Options{Strict: true})
	require.Error(t, session.Run(context.Background()))

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] != "invalid input" {
			continue
		}
		found = true
		assert.Equal(t, "child", entry["table"])
		assert.Equal(t, session.ID, entry["session_id"])
		assert.Equal(t, "A", entry["column"])
	}
	assert.True(t, found, "invalid input was not logged")
}

func TestSessionEndsOnPromptEOF(t *testing.T) {
	store := openStore(t)
	op := &scripted{}

	err := NewSession(testConfig(), store, op, Options{}).Run(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

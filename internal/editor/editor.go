// Package editor runs the interactive table editing session: pick a table,
// make sure it exists, collect a row, insert it and optionally continue
// into the related table with the shared key filled in.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Rana718/dataorganizer/internal/coerce"
	"github.com/Rana718/dataorganizer/internal/config"
	"github.com/Rana718/dataorganizer/internal/database/common"
	"github.com/Rana718/dataorganizer/internal/logging"
	"github.com/Rana718/dataorganizer/internal/populator"
	"github.com/Rana718/dataorganizer/internal/types"
)

type State int

const (
	StateSelectTable State = iota
	StateEnsureTable
	StateCollectAndInsert
	StateCascade
	StateAskContinue
	StateAskAnotherTable
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSelectTable:
		return "select_table"
	case StateEnsureTable:
		return "ensure_table"
	case StateCollectAndInsert:
		return "collect_and_insert"
	case StateCascade:
		return "cascade"
	case StateAskContinue:
		return "ask_continue"
	case StateAskAnotherTable:
		return "ask_another_table"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Interactor is the operator side of a session.
type Interactor interface {
	ChooseTable(ids []string) (string, error)
	Confirm(question string, def bool) (bool, error)
	PromptValue(col types.ColumnSpec) (string, error)
	InvalidInput(col types.ColumnSpec, err *coerce.InvalidInputError)
	Info(msg string)
	Error(msg string)
}

// Store is the database side of a session.
type Store interface {
	HasTable(ctx context.Context, name, schema string) (bool, error)
	CreateTables(ctx context.Context, tables []*types.TableSpec, foreignKeys map[string]*types.TableSpec, schema string) error
	Insert(ctx context.Context, table *types.TableSpec, rows [][]any, schema string) error
	LastValue(ctx context.Context, table, column, schema string) (any, error)
}

type Options struct {
	// Strict ends the session on the first invalid value.
	Strict bool
}

type Session struct {
	ID string

	cfg    *config.Config
	store  Store
	io     Interactor
	opts   Options
	logger *slog.Logger

	state   State
	tableID string
}

func NewSession(cfg *config.Config, store Store, io Interactor, opts Options) *Session {
	return &Session{
		ID:    uuid.NewString(),
		cfg:   cfg,
		store: store,
		io:    io,
		opts:  opts,
		state: StateSelectTable,
	}
}

// State is the step the session runs next.
func (s *Session) State() State { return s.state }

// Run drives the session until the operator is done. Failed inserts are
// reported and the session goes on; prompt errors, strict-mode coercion
// errors and failures to check or create tables end it.
func (s *Session) Run(ctx context.Context) error {
	ctx = logging.WithSession(ctx, s.ID)
	s.logger = logging.FromContext(ctx)
	s.logger.Info("session started", "tables", len(s.cfg.TableOrder))

	if len(s.cfg.TableOrder) == 0 {
		return fmt.Errorf("no tables configured")
	}

	for s.state != StateDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := s.step(ctx)
		if err != nil {
			s.logger.Error("session aborted", "state", s.state.String(), "error", err)
			return err
		}
		s.logger.Debug("state transition", "from", s.state.String(), "to", next.String())
		s.state = next
	}

	s.logger.Info("session finished")
	return nil
}

func (s *Session) step(ctx context.Context) (State, error) {
	switch s.state {
	case StateSelectTable:
		return s.selectTable()
	case StateEnsureTable:
		return s.ensureTable(ctx)
	case StateCollectAndInsert:
		return s.collectAndInsert(ctx)
	case StateCascade:
		return s.cascade(ctx)
	case StateAskContinue:
		return s.askContinue()
	case StateAskAnotherTable:
		return s.askAnotherTable()
	default:
		return StateDone, fmt.Errorf("unexpected state %s", s.state)
	}
}

func (s *Session) table() *types.TableSpec {
	return s.cfg.Tables[s.tableID]
}

func (s *Session) selectTable() (State, error) {
	id, err := s.io.ChooseTable(s.cfg.TableOrder)
	if err != nil {
		return StateDone, fmt.Errorf("failed to read table: %w", err)
	}
	if _, err := s.cfg.Table(id); err != nil {
		return StateDone, err
	}

	s.tableID = id
	return StateEnsureTable, nil
}

func (s *Session) ensureTable(ctx context.Context) (State, error) {
	ok, err := s.ensureExists(ctx, s.table(), nil)
	if err != nil {
		return StateDone, err
	}
	if !ok {
		return StateAskAnotherTable, nil
	}
	return StateCollectAndInsert, nil
}

// ensureExists offers to create table when it is missing. ref is the parent
// table referenced by a foreign key, if any.
func (s *Session) ensureExists(ctx context.Context, table, ref *types.TableSpec) (bool, error) {
	schema := s.cfg.DB.Schema

	exists, err := s.store.HasTable(ctx, table.Name, schema)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	create, err := s.io.Confirm(fmt.Sprintf("Table %s does not exist. Create table?", table.Name), false)
	if err != nil {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	if !create {
		s.logger.Info("table creation declined", "table", table.Name)
		return false, nil
	}

	var foreignKeys map[string]*types.TableSpec
	if ref != nil {
		foreignKeys = map[string]*types.TableSpec{table.Name: ref}
	}
	if err := s.store.CreateTables(ctx, []*types.TableSpec{table}, foreignKeys, schema); err != nil {
		return false, err
	}

	s.logger.Info("table created", "table", table.Name)
	s.io.Info(fmt.Sprintf("Created table %s", table.Name))
	return true, nil
}

func (s *Session) collectAndInsert(ctx context.Context) (State, error) {
	table := s.table()

	inserted, err := s.insertRow(ctx, table, nil)
	if err != nil {
		return StateDone, err
	}
	if inserted && table.HasRelTable() {
		return StateCascade, nil
	}
	return StateAskContinue, nil
}

// insertRow collects one row for table and inserts it. A failed insert is
// reported to the operator and yields false without an error.
func (s *Session) insertRow(ctx context.Context, table *types.TableSpec, preset map[string]any) (bool, error) {
	row, err := populator.Collect(table, s.io.PromptValue, preset, populator.Options{
		AutoFill:  s.cfg.AutoFill(),
		Strict:    s.opts.Strict,
		OnInvalid: s.io.InvalidInput,
		Logger:    logging.WithFields(ctx, "table", table.Name),
	})
	if err != nil {
		// Presets come from the database; a bad one only fails this insert.
		if preset != nil && coerce.IsInvalidInput(err) && !s.opts.Strict {
			s.reportInsertFailure(table, err)
			return false, nil
		}
		return false, err
	}

	if err := s.store.Insert(ctx, table, [][]any{row.Values}, s.cfg.DB.Schema); err != nil {
		s.reportInsertFailure(table, err)
		return false, nil
	}

	s.logger.Info("row inserted", "table", table.Name, "columns", row.Columns)
	s.io.Info(fmt.Sprintf("Inserted row into %s", table.Name))
	return true, nil
}

func (s *Session) reportInsertFailure(table *types.TableSpec, err error) {
	s.logger.Error("insert failed", "table", table.Name, "error", err)
	s.io.Error(fmt.Sprintf("Data could not be inserted: %s", err))
}

func (s *Session) cascade(ctx context.Context) (State, error) {
	parent := s.table()
	child, err := s.cfg.Table(parent.RelTable)
	if err != nil {
		return StateDone, err
	}

	accept, err := s.io.Confirm(fmt.Sprintf("Also add data to relative table %s", child.Name), false)
	if err != nil {
		return StateDone, fmt.Errorf("failed to read answer: %w", err)
	}
	if !accept {
		return StateAskContinue, nil
	}

	var ref *types.TableSpec
	if parent.RelTableCommonColumnAsForeignKey {
		ref = parent
	}
	ok, err := s.ensureExists(ctx, child, ref)
	if err != nil {
		return StateDone, err
	}
	if !ok {
		return StateAskContinue, nil
	}

	key := parent.RelTableCommonColumn
	value, err := s.sharedKey(ctx, parent, child)
	if err != nil {
		s.reportInsertFailure(child, fmt.Errorf("failed to read last %s: %w", key, err))
		return StateAskContinue, nil
	}

	s.logger.Debug("cascading shared key", "parent", parent.Name, "child", child.Name, "column", key, "value", value)
	if _, err := s.insertRow(ctx, child, map[string]any{key: value}); err != nil {
		return StateDone, err
	}
	return StateAskContinue, nil
}

// sharedKey reads the most recent common column value from the child table,
// falling back to the parent while the child is still empty.
func (s *Session) sharedKey(ctx context.Context, parent, child *types.TableSpec) (any, error) {
	key, schema := parent.RelTableCommonColumn, s.cfg.DB.Schema

	value, err := s.store.LastValue(ctx, child.Name, key, schema)
	if errors.Is(err, common.ErrQueryReturnedNoData) {
		return s.store.LastValue(ctx, parent.Name, key, schema)
	}
	return value, err
}

func (s *Session) askContinue() (State, error) {
	finished, err := s.io.Confirm("Are you finished applying actions to this table?", true)
	if err != nil {
		return StateDone, fmt.Errorf("failed to read answer: %w", err)
	}
	if !finished {
		return StateCollectAndInsert, nil
	}
	return StateAskAnotherTable, nil
}

func (s *Session) askAnotherTable() (State, error) {
	another, err := s.io.Confirm("Do you want to edit another table?", false)
	if err != nil {
		return StateDone, fmt.Errorf("failed to read answer: %w", err)
	}
	if another {
		return StateSelectTable, nil
	}
	return StateDone, nil
}

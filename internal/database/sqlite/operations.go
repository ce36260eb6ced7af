package sqlite

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/Rana718/dataorganizer/internal/database/common"
	"github.com/Rana718/dataorganizer/internal/types"
)

// SQLite has no schemas; the schema argument of every method is ignored.

func (s *Adapter) HasTable(ctx context.Context, name, _ string) (bool, error) {
	sql, args, err := s.qb.Select("COUNT(*)").
		From("sqlite_master").
		Where(squirrel.Eq{"type": "table", "name": name}).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := s.db.GetContext(ctx, &count, sql, args...); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

func (s *Adapter) CreateTables(ctx context.Context, tables []*types.TableSpec, foreignKeys map[string]*types.TableSpec, _ string) error {
	for _, table := range tables {
		exists, err := s.HasTable(ctx, table.Name, "")
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := checkSerial(table); err != nil {
			return err
		}

		stmt := common.CreateTableSQL(s, table, foreignKeys[table.Name], "")
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, err)
		}
	}
	return nil
}

func (s *Adapter) Insert(ctx context.Context, table *types.TableSpec, rows [][]any, _ string) error {
	exists, err := s.HasTable(ctx, table.Name, "")
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", common.ErrTableNotExists, table.Name)
	}

	sql, args, err := common.BuildInsert(s, table, rows, "")
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table.Name, err)
	}
	return nil
}

func (s *Adapter) LastValue(ctx context.Context, table, column, _ string) (any, error) {
	sql, args, err := common.LastValueQuery(s, table, column, "")
	if err != nil {
		return nil, err
	}

	result, err := s.Query(ctx, squirrel.Expr(sql, args...))
	if err != nil {
		return nil, err
	}
	return result.Rows[0][0], nil
}

func (s *Adapter) Query(ctx context.Context, query squirrel.Sqlizer) (*common.QueryResult, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return common.ScanRows(rows, common.TextBytes)
}

package mysql

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/Rana718/dataorganizer/internal/database/common"
	"github.com/Rana718/dataorganizer/internal/types"
)

func (m *Adapter) HasTable(ctx context.Context, name, schema string) (bool, error) {
	query := m.qb.Select("COUNT(*)").
		From("information_schema.tables").
		Where(squirrel.Eq{"table_name": name})
	if schema != "" {
		query = query.Where(squirrel.Eq{"table_schema": schema})
	} else {
		query = query.Where("table_schema = DATABASE()")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := m.db.GetContext(ctx, &count, sql, args...); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

func (m *Adapter) CreateTables(ctx context.Context, tables []*types.TableSpec, foreignKeys map[string]*types.TableSpec, schema string) error {
	for _, table := range tables {
		exists, err := m.HasTable(ctx, table.Name, schema)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		stmt := common.CreateTableSQL(m, table, foreignKeys[table.Name], schema)
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, err)
		}
	}
	return nil
}

func (m *Adapter) Insert(ctx context.Context, table *types.TableSpec, rows [][]any, schema string) error {
	exists, err := m.HasTable(ctx, table.Name, schema)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", common.ErrTableNotExists, table.Name)
	}

	sql, args, err := common.BuildInsert(m, table, rows, schema)
	if err != nil {
		return err
	}

	if _, err := m.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table.Name, err)
	}
	return nil
}

func (m *Adapter) LastValue(ctx context.Context, table, column, schema string) (any, error) {
	sql, args, err := common.LastValueQuery(m, table, column, schema)
	if err != nil {
		return nil, err
	}

	result, err := m.Query(ctx, squirrel.Expr(sql, args...))
	if err != nil {
		return nil, err
	}
	return result.Rows[0][0], nil
}

func (m *Adapter) Query(ctx context.Context, query squirrel.Sqlizer) (*common.QueryResult, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := m.db.QueryxContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return common.ScanRows(rows, common.TextBytes)
}

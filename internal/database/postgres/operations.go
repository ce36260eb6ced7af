package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Rana718/dataorganizer/internal/database/common"
	"github.com/Rana718/dataorganizer/internal/types"
)

// Column types kept as the pgx decoded value. Everything else is returned
// as the server's text form, which the database accepts back unchanged.
var decodedOIDs = map[uint32]bool{
	pgtype.BoolOID:   true,
	pgtype.Int2OID:   true,
	pgtype.Int4OID:   true,
	pgtype.Int8OID:   true,
	pgtype.Float4OID: true,
	pgtype.Float8OID: true,
	pgtype.ByteaOID:  true,
}

func (p *Adapter) HasTable(ctx context.Context, name, schema string) (bool, error) {
	query := p.qb.Select("1").
		From("information_schema.tables").
		Where(squirrel.Eq{"table_name": name})
	if schema != "" {
		query = query.Where(squirrel.Eq{"table_schema": schema})
	} else {
		query = query.Where("table_schema = current_schema()")
	}

	sql, args, err := query.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := p.pool.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return exists, nil
}

func (p *Adapter) CreateTables(ctx context.Context, tables []*types.TableSpec, foreignKeys map[string]*types.TableSpec, schema string) error {
	for _, table := range tables {
		exists, err := p.HasTable(ctx, table.Name, schema)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		stmt := common.CreateTableSQL(p, table, foreignKeys[table.Name], schema)
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, err)
		}
	}
	return nil
}

func (p *Adapter) Insert(ctx context.Context, table *types.TableSpec, rows [][]any, schema string) error {
	exists, err := p.HasTable(ctx, table.Name, schema)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", common.ErrTableNotExists, table.Name)
	}

	sql, args, err := common.BuildInsert(p, table, rows, schema)
	if err != nil {
		return err
	}

	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table.Name, err)
	}
	return nil
}

func (p *Adapter) LastValue(ctx context.Context, table, column, schema string) (any, error) {
	sql, args, err := common.LastValueQuery(p, table, column, schema)
	if err != nil {
		return nil, err
	}

	result, err := p.Query(ctx, squirrel.Expr(sql, args...))
	if err != nil {
		return nil, err
	}
	return result.Rows[0][0], nil
}

// Query runs a statement built with "?" placeholders.
func (p *Adapter) Query(ctx context.Context, query squirrel.Sqlizer) (*common.QueryResult, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	if sql, err = squirrel.Dollar.ReplacePlaceholders(sql); err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := &common.QueryResult{Columns: make([]string, len(fields))}
	for i, fd := range fields {
		result.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		raw := rows.RawValues()
		for i, fd := range fields {
			values[i] = textValue(fd, raw[i], values[i])
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	if len(result.Rows) == 0 {
		return nil, common.ErrQueryReturnedNoData
	}
	return result, nil
}

func textValue(fd pgconn.FieldDescription, raw []byte, decoded any) any {
	if raw == nil || decodedOIDs[fd.DataTypeOID] || fd.Format != pgtype.TextFormatCode {
		return decoded
	}
	return string(raw)
}


package common

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// QueryResult keeps column and row order as returned by the database.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// ScanRows drains rows into a QueryResult. normalize, when set, is applied
// to every value with its column's database type name.
func ScanRows(rows *sqlx.Rows, normalize func(dbType string, v any) any) (*QueryResult, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var dbTypes []string
	if normalize != nil {
		colTypes, err := rows.ColumnTypes()
		if err != nil {
			return nil, fmt.Errorf("failed to read column types: %w", err)
		}
		dbTypes = make([]string, len(colTypes))
		for i, ct := range colTypes {
			dbTypes[i] = ct.DatabaseTypeName()
		}
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if normalize != nil {
			for i := range values {
				values[i] = normalize(dbTypes[i], values[i])
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(result.Rows) == 0 {
		return nil, ErrQueryReturnedNoData
	}
	return result, nil
}

// TextBytes turns []byte values into strings unless dbType is a binary type.
// Drivers hand back text columns as raw bytes.
func TextBytes(dbType string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	upper := strings.ToUpper(dbType)
	if strings.Contains(upper, "BLOB") || strings.Contains(upper, "BINARY") || upper == "BYTEA" {
		return b
	}
	return string(b)
}

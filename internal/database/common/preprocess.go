package common

import (
	"fmt"
	"os"

	"github.com/Rana718/dataorganizer/internal/types"
)

// Preprocess checks each row against the table's insert columns and resolves
// BYTEA payloads when binary is set: a string naming a regular file is
// replaced by the file contents, and the value must end up as []byte or nil.
// The input rows are left untouched.
func Preprocess(table *types.TableSpec, rows [][]any, binary bool) ([][]any, error) {
	cols := table.InsertColumns()

	processed := make([][]any, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, &InvalidDataError{Table: table.Name, Row: i, Got: len(row), Want: len(cols)}
		}

		out := make([]any, len(row))
		for j, col := range cols {
			value := row[j]
			if col.Kind == types.KindBytea && binary {
				var err error
				if value, err = binaryValue(col, value); err != nil {
					return nil, err
				}
			}
			out[j] = value
		}
		processed = append(processed, out)
	}

	return processed, nil
}

func binaryValue(col types.ColumnSpec, value any) (any, error) {
	if path, ok := value.(string); ok {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, &BinaryDataError{Column: col.Name, Value: value, Err: fmt.Errorf("failed to read %s: %w", path, err)}
			}
			value = data
		}
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	default:
		return nil, &BinaryDataError{Column: col.Name, Value: value}
	}
}

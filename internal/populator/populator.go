package populator

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rana718/dataorganizer/internal/coerce"
	"github.com/Rana718/dataorganizer/internal/types"
)

// PromptFunc asks the operator for a raw value of col.
type PromptFunc func(col types.ColumnSpec) (string, error)

type Options struct {
	// AutoFill holds uppercased ctypes the database fills itself. Nil means
	// DefaultAutoFill.
	AutoFill map[string]bool
	// Strict returns the first invalid input instead of prompting again.
	Strict bool
	// OnInvalid is called before a column is prompted again.
	OnInvalid func(col types.ColumnSpec, err *coerce.InvalidInputError)
	Logger    *slog.Logger
}

// DefaultAutoFill returns a fresh auto-fill set holding SERIAL.
func DefaultAutoFill() map[string]bool {
	return map[string]bool{"SERIAL": true}
}

// AutoFillSet builds an auto-fill set from configured ctypes.
func AutoFillSet(ctypes []string) map[string]bool {
	set := make(map[string]bool, len(ctypes))
	for _, ctype := range ctypes {
		set[strings.ToUpper(strings.TrimSpace(ctype))] = true
	}
	return set
}

// Collect builds a row for table. Auto-fill columns are skipped, preset
// columns are not prompted but are still coerced.
func Collect(table *types.TableSpec, prompt PromptFunc, preset map[string]any, opts Options) (types.Row, error) {
	autoFill := opts.AutoFill
	if autoFill == nil {
		autoFill = DefaultAutoFill()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var row types.Row
	for _, col := range table.Columns {
		if autoFill[strings.ToUpper(col.CType)] {
			continue
		}

		value, err := collectColumn(col, prompt, preset, opts, logger)
		if err != nil {
			return types.Row{}, err
		}
		row.Append(col.Name, value)
	}

	logger.Debug("read values", "table", table.Name, "values", row.Values)
	return row, nil
}

func collectColumn(col types.ColumnSpec, prompt PromptFunc, preset map[string]any, opts Options, logger *slog.Logger) (any, error) {
	if v, ok := preset[col.Name]; ok {
		value, err := coerce.Preset(col, v)
		if err != nil {
			return nil, fmt.Errorf("preset value for column %s: %w", col.Name, err)
		}
		return value, nil
	}

	for {
		raw, err := prompt(col)
		if err != nil {
			return nil, fmt.Errorf("failed to read value for column %s: %w", col.Name, err)
		}

		value, err := coerce.Value(col, raw)
		if err == nil {
			return value, nil
		}

		var inv *coerce.InvalidInputError
		if !errors.As(err, &inv) {
			return nil, err
		}

		logger.Error("invalid input", "column", col.Name, "ctype", col.CType, "hint", inv.Hint)
		if opts.Strict {
			return nil, err
		}
		if opts.OnInvalid != nil {
			opts.OnInvalid(col, inv)
		}
	}
}

// Package extract writes the values of a binary column to files named after
// other columns of the same row.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"

	"github.com/Rana718/dataorganizer/internal/database/common"
)

// Join selects Columns from Table, joined to the main table on column On.
type Join struct {
	Table   string
	On      string
	Columns []string
}

type Options struct {
	Path       string
	Prefix     string
	Ext        string
	DataColumn string
	Columns    []string
	Table      string
	Joins      []Join
	// Workers bounds concurrent file writes. Values below 1 mean 1.
	Workers int
}

// Querier is the part of a database adapter extract needs.
type Querier interface {
	QuoteIdent(name string) string
	Query(ctx context.Context, query squirrel.Sqlizer) (*common.QueryResult, error)
}

// SplitColumns parses a comma separated column list, ignoring spaces.
func SplitColumns(list string) []string {
	list = strings.ReplaceAll(list, " ", "")
	if list == "" {
		return nil
	}
	return strings.Split(list, ",")
}

// ParseJoins pairs the repeated join flags. All three lists must have the
// same length.
func ParseJoins(tables, on, columns []string) ([]Join, error) {
	if len(tables) != len(on) || len(tables) != len(columns) {
		return nil, fmt.Errorf("--join_tables, --join_on and --join_columns must be passed the same number of times (got %d, %d, %d)",
			len(tables), len(on), len(columns))
	}

	joins := make([]Join, len(tables))
	for i := range tables {
		joins[i] = Join{Table: tables[i], On: on[i], Columns: SplitColumns(columns[i])}
	}
	return joins, nil
}

// BuildQuery selects the data column, the main table columns and every
// join's columns, in that order.
func BuildQuery(q Querier, opts Options) squirrel.SelectBuilder {
	field := func(table, column string) string {
		return q.QuoteIdent(table) + "." + q.QuoteIdent(column)
	}

	cols := []string{field(opts.Table, opts.DataColumn)}
	for _, c := range opts.Columns {
		cols = append(cols, field(opts.Table, c))
	}
	for _, j := range opts.Joins {
		for _, c := range j.Columns {
			cols = append(cols, field(j.Table, c))
		}
	}

	query := squirrel.Select(cols...).From(q.QuoteIdent(opts.Table))
	for _, j := range opts.Joins {
		query = query.Join(fmt.Sprintf("%s ON %s = %s",
			q.QuoteIdent(j.Table), field(opts.Table, j.On), field(j.Table, j.On)))
	}
	return query
}

// FileName is <path>/<prefix>_<v1>_<v2>....<ext>.
func FileName(opts Options, identifiers []any) string {
	parts := make([]string, len(identifiers))
	for i, v := range identifiers {
		parts[i] = formatIdentifier(v)
	}
	return filepath.Join(opts.Path, fmt.Sprintf("%s_%s.%s", opts.Prefix, strings.Join(parts, "_"), opts.Ext))
}

func formatIdentifier(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// Run queries the data and writes one file per row. It returns the process
// exit code: 0 on success, 1 when the query or any write fails.
func Run(ctx context.Context, db Querier, opts Options, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("selecting data", "table", opts.Table)
	for _, j := range opts.Joins {
		logger.Info("joining table", "table", j.Table, "on", j.On)
	}

	query := BuildQuery(db, opts)
	if sql, _, err := query.ToSql(); err == nil {
		logger.Debug("extract query", "sql", sql)
	}

	result, err := db.Query(ctx, query)
	if err != nil {
		if errors.Is(err, common.ErrQueryReturnedNoData) {
			logger.Warn("query returned no rows, nothing to write", "table", opts.Table)
			return 0
		}
		logger.Error("query failed, exiting", "error", err)
		return 1
	}

	if err := writeFiles(ctx, opts, result.Rows, logger); err != nil {
		logger.Error("writing to file failed, exiting", "error", err)
		return 1
	}

	logger.Info("extraction finished", "files", len(result.Rows))
	return 0
}

// writeFiles writes the rows concurrently. Rows that map to the same file
// are written in query order by one goroutine, so the last row wins.
func writeFiles(ctx context.Context, opts Options, rows [][]any, logger *slog.Logger) error {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var names []string
	groups := make(map[string][][]any)
	for _, row := range rows {
		name := FileName(opts, row[1:])
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		} else {
			logger.Warn("rows share a file name, the last one wins", "file", name)
		}
		groups[name] = append(groups[name], row)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, name := range names {
		name := name
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			for _, row := range groups[name] {
				if err := gctx.Err(); err != nil {
					return err
				}

				data, err := payload(row[0])
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}

				logger.Info("writing file", "file", name)
				if err := os.WriteFile(name, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", name, err)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func payload(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		return nil, fmt.Errorf("data column value has type %T, expected binary data", v)
	}
}

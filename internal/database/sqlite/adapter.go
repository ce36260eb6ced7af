package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Rana718/dataorganizer/internal/config"
	"github.com/Rana718/dataorganizer/internal/database/common"
	"github.com/Rana718/dataorganizer/internal/types"
)

type Adapter struct {
	db *sqlx.DB
	qb squirrel.StatementBuilderType
}

var typeMap = map[types.ColumnKind]string{
	types.KindInt:      "INTEGER",
	types.KindFloat:    "REAL",
	types.KindDate:     "TEXT",
	types.KindTime:     "TEXT",
	types.KindInterval: "TEXT",
	types.KindBytea:    "BLOB",
	types.KindSerial:   "INTEGER",
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// DSN points at the database file with foreign keys enforced.
func DSN(cfg config.Database) string {
	path := strings.TrimPrefix(cfg.Database, "sqlite://")
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

func (s *Adapter) Connect(ctx context.Context, dsn string) error {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// a single writer keeps the file free of lock errors
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s.db = db
	return nil
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Adapter) Name() string { return "sqlite" }

func (s *Adapter) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *Adapter) BinaryLiterals() bool { return true }

func (s *Adapter) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }

func (s *Adapter) ColumnDefinition(col types.ColumnSpec, table *types.TableSpec) string {
	if col.Kind == types.KindSerial && col.IsPrimary && primaryCount(table) == 1 {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return MapColumnType(col) + common.NullableSuffix(col)
}

func MapColumnType(col types.ColumnSpec) string {
	if mapped, ok := typeMap[col.Kind]; ok {
		return mapped
	}
	return strings.ToUpper(col.CType)
}

// checkSerial rejects SERIAL columns SQLite cannot fill: only a rowid alias,
// the single INTEGER PRIMARY KEY column, is assigned automatically.
func checkSerial(table *types.TableSpec) error {
	for _, col := range table.Columns {
		if col.Kind != types.KindSerial {
			continue
		}
		if !col.IsPrimary || primaryCount(table) != 1 {
			return fmt.Errorf("%w: table %s: SERIAL column %s must be the only primary key column on sqlite",
				common.ErrUnsupportedColumn, table.Name, col.Name)
		}
	}
	return nil
}

func primaryCount(table *types.TableSpec) int {
	n := 0
	for _, col := range table.Columns {
		if col.IsPrimary {
			n++
		}
	}
	return n
}

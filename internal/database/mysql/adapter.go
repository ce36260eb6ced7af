package mysql

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/Rana718/dataorganizer/internal/config"
	"github.com/Rana718/dataorganizer/internal/database/common"
	"github.com/Rana718/dataorganizer/internal/types"
)

type Adapter struct {
	db *sqlx.DB
	qb squirrel.StatementBuilderType
}

var typeMap = map[types.ColumnKind]string{
	types.KindInt:      "INT",
	types.KindFloat:    "DOUBLE",
	types.KindDate:     "DATE",
	types.KindTime:     "TIME",
	types.KindInterval: "TIME",
	types.KindBytea:    "LONGBLOB",
	types.KindSerial:   "SERIAL",
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// DSN builds a go-sql-driver DSN. appName is sent as the program_name
// connection attribute.
func DSN(cfg config.Database, appName string) string {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dsn.DBName = cfg.Database
	dsn.ConnectionAttributes = "program_name:" + appName
	return dsn.FormatDSN()
}

func (m *Adapter) Connect(ctx context.Context, dsn string) error {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	m.db = db
	return nil
}

func (m *Adapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *Adapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Adapter) Name() string { return "mysql" }

func (m *Adapter) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// BinaryLiterals is false: BYTEA values are stored as sent.
func (m *Adapter) BinaryLiterals() bool { return false }

func (m *Adapter) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }

func (m *Adapter) ColumnDefinition(col types.ColumnSpec, table *types.TableSpec) string {
	return MapColumnType(col) + common.NullableSuffix(col)
}

func MapColumnType(col types.ColumnSpec) string {
	if mapped, ok := typeMap[col.Kind]; ok {
		return mapped
	}
	return strings.ToUpper(col.CType)
}

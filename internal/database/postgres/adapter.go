package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/Rana718/dataorganizer/internal/config"
	"github.com/Rana718/dataorganizer/internal/database/common"
	"github.com/Rana718/dataorganizer/internal/types"
)

type Adapter struct {
	pool *pgxpool.Pool
	qb   squirrel.StatementBuilderType
}

var typeMap = map[types.ColumnKind]string{
	types.KindInt:      "INTEGER",
	types.KindFloat:    "DOUBLE PRECISION",
	types.KindDate:     "DATE",
	types.KindTime:     "TIME",
	types.KindInterval: "INTERVAL",
	types.KindBytea:    "BYTEA",
	types.KindSerial:   "SERIAL",
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// DSN builds a postgres URL. The schema is passed as search_path.
func DSN(cfg config.Database, appName string) string {
	params := url.Values{}
	params.Set("application_name", appName)
	if cfg.Schema != "" {
		params.Set("search_path", cfg.Schema)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: params.Encode(),
	}
	return u.String()
}

func (p *Adapter) Connect(ctx context.Context, dsn string) error {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	// The server types DATE/TIME/INTERVAL literals sent as strings.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	poolConfig.MaxConns = 2
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = 15 * time.Minute
	poolConfig.MaxConnIdleTime = 3 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	p.pool = pool

	if schema := poolConfig.ConnConfig.RuntimeParams["search_path"]; schema != "" {
		if _, err := p.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(schema)); err != nil {
			p.pool.Close()
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}

	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Adapter) Name() string { return "postgres" }

func (p *Adapter) QuoteIdent(name string) string { return pq.QuoteIdentifier(name) }

func (p *Adapter) BinaryLiterals() bool { return true }

func (p *Adapter) Placeholder() squirrel.PlaceholderFormat { return squirrel.Dollar }

func (p *Adapter) ColumnDefinition(col types.ColumnSpec, table *types.TableSpec) string {
	return MapColumnType(col) + common.NullableSuffix(col)
}

// MapColumnType returns the postgres type for col. Text types such as
// VARCHAR(20) pass through uppercased.
func MapColumnType(col types.ColumnSpec) string {
	if mapped, ok := typeMap[col.Kind]; ok {
		return mapped
	}
	return strings.ToUpper(col.CType)
}

package database

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/Rana718/dataorganizer/internal/database/common"
	"github.com/Rana718/dataorganizer/internal/types"
)

type Adapter interface {
	common.Dialect

	Connect(ctx context.Context, dsn string) error
	Close() error
	Ping(ctx context.Context) error

	// Table management
	HasTable(ctx context.Context, name, schema string) (bool, error)
	// CreateTables creates every table that does not exist yet. foreignKeys
	// maps a table name to the parent whose common column it references.
	CreateTables(ctx context.Context, tables []*types.TableSpec, foreignKeys map[string]*types.TableSpec, schema string) error

	// Data operations
	Insert(ctx context.Context, table *types.TableSpec, rows [][]any, schema string) error
	LastValue(ctx context.Context, table, column, schema string) (any, error)
	Query(ctx context.Context, query squirrel.Sqlizer) (*common.QueryResult, error)
}

package database

import (
	"context"
	"fmt"

	"github.com/Rana718/dataorganizer/internal/config"
	"github.com/Rana718/dataorganizer/internal/database/mysql"
	"github.com/Rana718/dataorganizer/internal/database/postgres"
	"github.com/Rana718/dataorganizer/internal/database/sqlite"
)

// NewAdapter connects to the backend named by cfg.Prefix. appName is
// reported to the server where the backend supports it.
func NewAdapter(ctx context.Context, cfg config.Database, appName string) (Adapter, error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, err
	}

	var adapter Adapter
	var dsn string
	switch backend {
	case config.BackendPostgres:
		adapter, dsn = postgres.New(), postgres.DSN(cfg, appName)
	case config.BackendMySQL:
		adapter, dsn = mysql.New(), mysql.DSN(cfg, appName)
	case config.BackendSQLite:
		adapter, dsn = sqlite.New(), sqlite.DSN(cfg)
	}

	if err := adapter.Connect(ctx, dsn); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", backend, err)
	}
	if err := adapter.Ping(ctx); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", backend, err)
	}

	return adapter, nil
}

package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Documents string
	Versions  string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents: fmt.Sprintf("%sdocuments", prefix),
		Versions:  fmt.Sprintf("%sdocument_versions", prefix),
	}
}

// PoolOptions sizes the connection pool
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

// DefaultPoolOptions returns the pool sizing used by the server
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{MaxConns: 25, MinConns: 5}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// Port 6543 is the Supabase transaction pooler (PgBouncer), which does not support
// prepared statements. On that port the pool switches to QueryExecModeCacheDescribe
// unless the connection string already sets default_query_exec_mode.
//
// Table names are interpolated with fmt.Sprintf before the statement is sent, so each
// table prefix gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = opts.MaxConns
	config.MinConns = opts.MinConns

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, WrapError("create connection pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, WrapError("ping database", err)
	}

	return pool, nil
}

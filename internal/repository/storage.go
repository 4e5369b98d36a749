// Package repository selects and opens the Version Store named by configuration.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"promptvault/internal/config"
	"promptvault/internal/domain/repositories"
	versionRepo "promptvault/internal/domain/repositories/versioning"
	"promptvault/internal/repository/memory"
	"promptvault/internal/repository/postgres"
	pgVersioning "promptvault/internal/repository/postgres/versioning"
	"promptvault/internal/repository/sqlite"
)

// Storage bundles the repositories and transaction manager of one backend
type Storage struct {
	Driver    string
	Documents versionRepo.DocumentRepository
	Versions  versionRepo.VersionRepository
	TxManager repositories.TransactionManager

	ping  func(ctx context.Context) error
	reset func(ctx context.Context) error
	close func()
}

// Options adjusts how the backend is prepared
type Options struct {
	// DropSchema drops existing tables before the schema is applied (Postgres only)
	DropSchema bool
}

// Open connects to the backend named by cfg.StorageDriver
func Open(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, opts, logger)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	case config.DriverMemory:
		return openMemory(logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Storage, error) {
	poolOpts := postgres.DefaultPoolOptions()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, poolOpts)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	logger.Info("database connected",
		"driver", config.DriverPostgres,
		"max_conns", poolOpts.MaxConns,
		"min_conns", poolOpts.MinConns,
	)

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if opts.DropSchema {
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Warn("tables dropped", "documents", tables.Documents, "versions", tables.Versions)
	}
	if cfg.AutoMigrate || opts.DropSchema {
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("schema ensured", "documents", tables.Documents, "versions", tables.Versions)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}

	return &Storage{
		Driver:    config.DriverPostgres,
		Documents: pgVersioning.NewDocumentRepository(repoConfig),
		Versions:  pgVersioning.NewVersionRepository(repoConfig),
		TxManager: postgres.NewTransactionManager(pool, logger),
		ping: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return postgres.WrapError("ping database", err)
			}
			return nil
		},
		reset: func(ctx context.Context) error {
			return postgres.TruncateData(ctx, pool, tables)
		},
		close: pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	db, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLitePath), logger)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	return &Storage{
		Driver:    config.DriverSQLite,
		Documents: db.Documents(),
		Versions:  db.Versions(),
		TxManager: db.TxManager(),
		ping:      db.Ping,
		reset:     db.Reset,
		close: func() {
			if err := db.Close(); err != nil {
				logger.Warn("close sqlite", "error", err)
			}
		},
	}, nil
}

func openMemory(logger *slog.Logger) *Storage {
	store := memory.NewStore()
	logger.Warn("using in-memory storage; data is lost on restart")

	return &Storage{
		Driver:    config.DriverMemory,
		Documents: store.Documents(),
		Versions:  store.Versions(),
		TxManager: store.TxManager(),
		ping:      func(context.Context) error { return nil },
		reset: func(context.Context) error {
			store.Reset()
			return nil
		},
		close: func() {},
	}
}

// Ping checks that the backend is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Reset deletes all documents and versions
func (s *Storage) Reset(ctx context.Context) error {
	return s.reset(ctx)
}

// Close releases the backend's connections
func (s *Storage) Close() {
	s.close()
}

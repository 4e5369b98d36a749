// Package sqlite implements the Version Store on an embedded SQLite database.
//
// Every transaction starts with BEGIN IMMEDIATE, so it holds the database
// write lock from its first statement. That serializes read-modify-write
// sequences across all documents, which is the granularity SQLite offers.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"promptvault/internal/domain"
	"promptvault/internal/domain/repositories"
	versionRepo "promptvault/internal/domain/repositories/versioning"
)

// Config configures the database file and pool
type Config struct {
	Path        string
	BusyTimeout time.Duration
	MaxOpen     int
}

// DefaultConfig returns settings suited to a single server process
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		BusyTimeout: 5 * time.Second,
		MaxOpen:     4,
	}
}

// DB wraps the database handle and hands out repositories bound to it
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database file and applies the schema
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w: %v", domain.ErrStorageUnavailable, err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite database opened", "path", cfg.Path)
	return &DB{db: db, logger: logger}, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks that the database file is reachable
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return wrapError("ping", err)
	}
	return nil
}

// Reset deletes every document; versions go with them through the foreign key
func (d *DB) Reset(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return wrapError("reset", err)
	}
	return nil
}

// Documents returns a DocumentRepository on this database
func (d *DB) Documents() versionRepo.DocumentRepository {
	return &DocumentRepository{db: d.db}
}

// Versions returns a VersionRepository on this database
func (d *DB) Versions() versionRepo.VersionRepository {
	return &VersionRepository{db: d.db}
}

// TxManager returns a TransactionManager on this database
func (d *DB) TxManager() repositories.TransactionManager {
	return &TransactionManager{db: d.db, logger: d.logger}
}

func migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			label TEXT NOT NULL,
			change_description TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS document_versions (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			sequence_number INTEGER NOT NULL CHECK (sequence_number > 0),
			user_label TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			change_description TEXT,
			created_at INTEGER NOT NULL,
			UNIQUE (document_id, sequence_number)
		)`,
		`CREATE INDEX IF NOT EXISTS document_versions_document_seq_idx
			ON document_versions (document_id, sequence_number DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Executor and transactions
// ---------------------------------------------------------------------------

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

func getExecutor(ctx context.Context, db *sql.DB) dbtx {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// TransactionManager runs functions inside database/sql transactions
type TransactionManager struct {
	db     *sql.DB
	logger *slog.Logger
}

// ExecTx executes fn within a transaction, joining one already carried by ctx
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if _, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError("begin transaction", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			tm.logger.Warn("rollback failed", "error", err)
		}
	}()

	txCtx, hooks := repositories.WithCommitHooks(context.WithValue(ctx, txContextKey{}, tx))
	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapError("commit transaction", err)
	}
	hooks.Run()
	return nil
}

// ---------------------------------------------------------------------------
// Errors and encoding
// ---------------------------------------------------------------------------

func sqliteCode(err error) (int, bool) {
	var sqlErr *sqlitedrv.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code(), true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

func isForeignKeyViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// wrapError translates SQLite failures into domain sentinels
func wrapError(op string, err error) error {
	code, ok := sqliteCode(err)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConcurrencyConflict, err)
	case ok && (code&0xff == sqlite3.SQLITE_BUSY || code&0xff == sqlite3.SQLITE_LOCKED):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConcurrencyConflict, err)
	case ok && (code&0xff == sqlite3.SQLITE_CANTOPEN || code&0xff == sqlite3.SQLITE_IOERR):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
	case errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the documents and versions tables if they don't exist
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				title TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				label TEXT NOT NULL,
				change_description TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, tables.Documents),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				sequence_number INTEGER NOT NULL CHECK (sequence_number > 0),
				user_label TEXT NOT NULL,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				change_description TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (document_id, sequence_number)
			)
		`, tables.Versions, tables.Documents),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_document_seq_idx
			ON %s (document_id, sequence_number DESC)
		`, tables.Versions, tables.Versions),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return WrapError("ensure schema", err)
		}
	}
	return nil
}

// DropSchema drops both tables. Used by the seeder's --drop-tables flag.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS %s, %s CASCADE`, tables.Versions, tables.Documents)
	if _, err := pool.Exec(ctx, query); err != nil {
		return WrapError("drop schema", err)
	}
	return nil
}

// TruncateData deletes every document and version but keeps the tables
func TruncateData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	query := fmt.Sprintf(`TRUNCATE TABLE %s, %s`, tables.Versions, tables.Documents)
	if _, err := pool.Exec(ctx, query); err != nil {
		return WrapError("truncate data", err)
	}
	return nil
}

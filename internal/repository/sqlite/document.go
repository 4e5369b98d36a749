package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
)

const documentColumns = `id, title, content, label, change_description, created_at, updated_at`

// DocumentRepository implements versioning.DocumentRepository on SQLite
type DocumentRepository struct {
	db *sql.DB
}

// Create inserts a document with a generated UUID
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}
	id := uuid.NewString()

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO documents (id, title, content, label, change_description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, doc.Title, doc.Content, doc.Label, toNullString(doc.ChangeDescription),
		toUnix(doc.CreatedAt), toUnix(doc.UpdatedAt),
	)
	if err != nil {
		return wrapError("create document", err)
	}

	doc.ID = id
	return nil
}

// GetByID retrieves a document
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, wrapError("get document", err)
	}
	return doc, nil
}

// LockByID reads the document. Transactions already hold the database write
// lock (BEGIN IMMEDIATE), so no row-level lock is needed.
func (r *DocumentRepository) LockByID(ctx context.Context, id string) (*models.Document, error) {
	return r.GetByID(ctx, id)
}

// UpdateFields writes the tracked fields of a document
func (r *DocumentRepository) UpdateFields(ctx context.Context, id string, fields models.DocumentFields, updatedAt time.Time) (*models.Document, error) {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE documents
		SET title = ?, content = ?, label = ?, change_description = ?, updated_at = ?
		WHERE id = ?`,
		fields.Title, fields.Content, fields.Label, toNullString(fields.ChangeDescription),
		toUnix(updatedAt), id,
	)
	if err != nil {
		return nil, wrapError("update document", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return r.GetByID(ctx, id)
}

// Delete removes a document; foreign_keys(1) makes the versions cascade
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return wrapError("delete document", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return wrapError("delete document", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var (
		doc                  models.Document
		desc                 sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Label, &desc, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc.ChangeDescription = fromNullString(desc)
	doc.CreatedAt = fromUnix(createdAt)
	doc.UpdatedAt = fromUnix(updatedAt)
	return &doc, nil
}

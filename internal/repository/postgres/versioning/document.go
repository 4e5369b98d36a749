package versioning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
	versionRepo "promptvault/internal/domain/repositories/versioning"
	"promptvault/internal/repository/postgres"
)

const documentColumns = `id, title, content, label, change_description, created_at, updated_at`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) versionRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document. Zero timestamps are set to the current time.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (title, content, label, change_description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Title,
		doc.Content,
		doc.Label,
		doc.ChangeDescription,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return postgres.WrapError("create document", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)
	return r.queryDocument(ctx, "get document", id, query)
}

// LockByID retrieves a document with SELECT ... FOR UPDATE. The row lock is the
// per-document mutual exclusion for read-modify-write sequences; writers on other
// documents are not blocked.
func (r *PostgresDocumentRepository) LockByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, documentColumns, r.tables.Documents)
	return r.queryDocument(ctx, "lock document", id, query)
}

// UpdateFields writes the tracked fields of a document
func (r *PostgresDocumentRepository) UpdateFields(ctx context.Context, id string, fields models.DocumentFields, updatedAt time.Time) (*models.Document, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, content = $2, label = $3, change_description = $4, updated_at = $5
		WHERE id = $6
		RETURNING %s
	`, r.tables.Documents, documentColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query,
		fields.Title,
		fields.Content,
		fields.Label,
		fields.ChangeDescription,
		updatedAt,
		id,
	))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, postgres.WrapError("update document", err)
	}

	return doc, nil
}

// Delete deletes a document; ON DELETE CASCADE removes its versions
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return postgres.WrapError("delete document", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresDocumentRepository) queryDocument(ctx context.Context, op, id, query string) (*models.Document, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, postgres.WrapError(op, err)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&doc.Label,
		&doc.ChangeDescription,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

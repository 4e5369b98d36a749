package versioning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
	versionRepo "promptvault/internal/domain/repositories/versioning"
	"promptvault/internal/repository/postgres"
)

const versionColumns = `id, document_id, sequence_number, user_label, title, content, change_description, created_at`

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *postgres.RepositoryConfig) versionRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Insert stores a new version.
// A duplicate (document_id, sequence_number) surfaces as domain.ErrConcurrencyConflict.
func (r *PostgresVersionRepository) Insert(ctx context.Context, v *models.Version) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, sequence_number, user_label, title, content, change_description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		v.DocumentID,
		v.SequenceNumber,
		v.UserLabel,
		v.Title,
		v.Content,
		v.ChangeDescription,
		v.CreatedAt,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", v.DocumentID, domain.ErrNotFound)
		}
		return postgres.WrapError("insert version", err)
	}

	return nil
}

// GetByID retrieves a version by ID
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, versionColumns, r.tables.Versions)

	var v models.Version
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.DocumentID,
		&v.SequenceNumber,
		&v.UserLabel,
		&v.Title,
		&v.Content,
		&v.ChangeDescription,
		&v.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
		}
		return nil, postgres.WrapError("get version", err)
	}

	return &v, nil
}

// ListDesc lists a document's versions, most recent first
func (r *PostgresVersionRepository) ListDesc(ctx context.Context, documentID string) ([]models.Version, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1
		ORDER BY sequence_number DESC
	`, versionColumns, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, postgres.WrapError("list versions", err)
	}
	defer rows.Close()

	versions := []models.Version{}
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.SequenceNumber,
			&v.UserLabel,
			&v.Title,
			&v.Content,
			&v.ChangeDescription,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.WrapError("iterate versions", err)
	}

	return versions, nil
}

// Count returns the number of versions of a document
func (r *PostgresVersionRepository) Count(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE document_id = $1`, r.tables.Versions)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, documentID).Scan(&count); err != nil {
		return 0, postgres.WrapError("count versions", err)
	}
	return count, nil
}

// MaxSequenceNumber returns the highest sequence number of a document, 0 if none
func (r *PostgresVersionRepository) MaxSequenceNumber(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(sequence_number), 0) FROM %s WHERE document_id = $1`, r.tables.Versions)

	var seq int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, documentID).Scan(&seq); err != nil {
		return 0, postgres.WrapError("max sequence number", err)
	}
	return seq, nil
}

// DeleteAfter removes every version newer than sequenceNumber
func (r *PostgresVersionRepository) DeleteAfter(ctx context.Context, documentID string, sequenceNumber int) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1 AND sequence_number > $2`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID, sequenceNumber)
	if err != nil {
		return 0, postgres.WrapError("delete newer versions", err)
	}
	return int(result.RowsAffected()), nil
}

// DeleteByIDs removes a set of versions of one document in a single statement.
// IDs that are not UUIDs cannot match a row and are skipped.
func (r *PostgresVersionRepository) DeleteByIDs(ctx context.Context, documentID string, ids []string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1 AND id = ANY($2::uuid[])`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID, valid)
	if err != nil {
		return 0, postgres.WrapError("delete versions", err)
	}
	return int(result.RowsAffected()), nil
}

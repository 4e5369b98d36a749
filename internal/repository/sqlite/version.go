package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
)

const versionColumns = `id, document_id, sequence_number, user_label, title, content, change_description, created_at`

// VersionRepository implements versioning.VersionRepository on SQLite
type VersionRepository struct {
	db *sql.DB
}

// Insert stores a version with a generated UUID
func (r *VersionRepository) Insert(ctx context.Context, v *models.Version) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	id := uuid.NewString()

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO document_versions
			(id, document_id, sequence_number, user_label, title, content, change_description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, v.DocumentID, v.SequenceNumber, v.UserLabel, v.Title, v.Content,
		toNullString(v.ChangeDescription), toUnix(v.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("document %s: %w", v.DocumentID, domain.ErrNotFound)
		}
		return wrapError("insert version", err)
	}

	v.ID = id
	return nil
}

// GetByID retrieves a version
func (r *VersionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM document_versions WHERE id = ?`, id)

	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
		}
		return nil, wrapError("get version", err)
	}
	return v, nil
}

// ListDesc lists versions newest first
func (r *VersionRepository) ListDesc(ctx context.Context, documentID string) ([]models.Version, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM document_versions
		WHERE document_id = ?
		ORDER BY sequence_number DESC`, documentID)
	if err != nil {
		return nil, wrapError("list versions", err)
	}
	defer rows.Close()

	versions := []models.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate versions", err)
	}
	return versions, nil
}

// Count returns the number of versions of a document
func (r *VersionRepository) Count(ctx context.Context, documentID string) (int, error) {
	var n int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_versions WHERE document_id = ?`, documentID).Scan(&n)
	if err != nil {
		return 0, wrapError("count versions", err)
	}
	return n, nil
}

// MaxSequenceNumber returns the highest sequence number, 0 without versions
func (r *VersionRepository) MaxSequenceNumber(ctx context.Context, documentID string) (int, error) {
	var n int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM document_versions WHERE document_id = ?`, documentID).Scan(&n)
	if err != nil {
		return 0, wrapError("max sequence number", err)
	}
	return n, nil
}

// DeleteAfter removes versions newer than sequenceNumber
func (r *VersionRepository) DeleteAfter(ctx context.Context, documentID string, sequenceNumber int) (int, error) {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM document_versions WHERE document_id = ? AND sequence_number > ?`,
		documentID, sequenceNumber)
	if err != nil {
		return 0, wrapError("delete newer versions", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, wrapError("delete newer versions", err)
	}
	return int(n), nil
}

// DeleteByIDs removes the given versions of one document.
// The id set is bound as a single JSON array parameter and expanded with json_each.
func (r *VersionRepository) DeleteByIDs(ctx context.Context, documentID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	idSet, err := json.Marshal(ids)
	if err != nil {
		return 0, fmt.Errorf("encode version ids: %w", err)
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		DELETE FROM document_versions
		WHERE document_id = ? AND id IN (SELECT value FROM json_each(?))`,
		documentID, string(idSet))
	if err != nil {
		return 0, wrapError("delete versions", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, wrapError("delete versions", err)
	}
	return int(n), nil
}

func scanVersion(row interface{ Scan(...any) error }) (*models.Version, error) {
	var (
		v         models.Version
		desc      sql.NullString
		createdAt int64
	)
	if err := row.Scan(&v.ID, &v.DocumentID, &v.SequenceNumber, &v.UserLabel,
		&v.Title, &v.Content, &desc, &createdAt); err != nil {
		return nil, err
	}
	v.ChangeDescription = fromNullString(desc)
	v.CreatedAt = fromUnix(createdAt)
	return &v, nil
}

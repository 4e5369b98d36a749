package versioning

import (
	"context"

	models "promptvault/internal/domain/models/versioning"
)

// VersionRepository defines data access operations for version snapshots.
// It holds no business rules; callers check invariants before writing.
type VersionRepository interface {
	// Insert stores a new version, filling ID (and CreatedAt when zero)
	Insert(ctx context.Context, version *models.Version) error

	// GetByID retrieves a version by ID
	GetByID(ctx context.Context, id string) (*models.Version, error)

	// ListDesc lists a document's versions, highest sequence number first
	ListDesc(ctx context.Context, documentID string) ([]models.Version, error)

	// Count returns the number of versions a document has
	Count(ctx context.Context, documentID string) (int, error)

	// MaxSequenceNumber returns the highest sequence number, or 0 without versions
	MaxSequenceNumber(ctx context.Context, documentID string) (int, error)

	// DeleteAfter removes every version with sequence_number > sequenceNumber
	DeleteAfter(ctx context.Context, documentID string, sequenceNumber int) (int, error)

	// DeleteByIDs removes the given versions of a document and returns how many were removed
	DeleteByIDs(ctx context.Context, documentID string, ids []string) (int, error)
}

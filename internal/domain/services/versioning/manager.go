package versioning

import (
	"context"

	models "promptvault/internal/domain/models/versioning"
)

// VersionManager owns a document's version history. Every operation returns
// either its result or one error matching a domain sentinel.
type VersionManager interface {
	// CreateInitialVersion records version 1 for a document with no history
	CreateInitialVersion(ctx context.Context, doc *models.Document) (*models.Version, error)

	// SaveWithVersioning writes fields onto the document, snapshotting the
	// previous state first when any tracked field changes
	SaveWithVersioning(ctx context.Context, documentID string, fields models.DocumentFields) (*models.Document, bool, error)

	// ListVersions returns versions newest first, back-filling version 1 when
	// a labeled document has no history yet
	ListVersions(ctx context.Context, documentID string) ([]models.Version, error)

	// GetVersion retrieves one version of a document
	GetVersion(ctx context.Context, documentID, versionID string) (*models.Version, error)

	// Revert restores the document to a version and discards every newer version
	Revert(ctx context.Context, documentID, versionID string) (*models.Document, error)

	// DeleteVersion deletes a single version, refusing to delete the last one
	DeleteVersion(ctx context.Context, documentID, versionID string) error

	// BatchDeleteVersions deletes the given versions all-or-nothing and
	// returns the number removed
	BatchDeleteVersions(ctx context.Context, documentID string, versionIDs []string) (int, error)

	// CompareVersions diffs two states of a document; models.CurrentRef names the live state
	CompareVersions(ctx context.Context, documentID, fromRef, toRef string) (*models.VersionDiff, error)
}

// Differ computes line diffs
type Differ interface {
	ComputeDiff(oldContent, newContent string) []models.DiffLine
}

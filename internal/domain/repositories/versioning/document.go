package versioning

import (
	"context"
	"time"

	models "promptvault/internal/domain/models/versioning"
)

// DocumentRepository defines data access operations for live documents
type DocumentRepository interface {
	// Create inserts a new document, filling ID, CreatedAt and UpdatedAt
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// LockByID retrieves a document and holds an exclusive lock on it until the
	// surrounding transaction ends. Outside a transaction it behaves like GetByID.
	LockByID(ctx context.Context, id string) (*models.Document, error)

	// UpdateFields writes the tracked fields and refreshes updated_at
	UpdateFields(ctx context.Context, id string, fields models.DocumentFields, updatedAt time.Time) (*models.Document, error)

	// Delete removes a document; its versions are removed with it
	Delete(ctx context.Context, id string) error
}

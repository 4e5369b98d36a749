package versioning

import (
	"context"

	models "promptvault/internal/domain/models/versioning"
)

// DocumentService is the CRUD layer in front of the version manager
type DocumentService interface {
	// CreateDocument creates a document together with its initial version
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error)

	// GetDocument retrieves a document
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)

	// UpdateDocument saves new field values through the version manager
	UpdateDocument(ctx context.Context, documentID string, req *UpdateDocumentRequest) (*SaveResult, error)

	// DeleteDocument deletes a document and its entire history
	DeleteDocument(ctx context.Context, documentID string) error
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	Title   string `json:"title"`   // Required
	Content string `json:"content"` // Versioned payload
	Label   string `json:"label"`   // Required, e.g. "v1.0"
}

// UpdateDocumentRequest represents a full save of the tracked fields
type UpdateDocumentRequest struct {
	Title             string  `json:"title"`
	Content           string  `json:"content"`
	Label             string  `json:"label"`
	ChangeDescription *string `json:"change_description,omitempty"`
}

// Fields converts the request into document fields
func (r *UpdateDocumentRequest) Fields() models.DocumentFields {
	return models.DocumentFields{
		Title:             r.Title,
		Content:           r.Content,
		Label:             r.Label,
		ChangeDescription: r.ChangeDescription,
	}
}

// SaveResult is the outcome of a save
type SaveResult struct {
	Document       *models.Document `json:"document"`
	VersionCreated bool             `json:"version_created"`
}

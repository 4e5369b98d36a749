package versioning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"promptvault/internal/config"
	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
	"promptvault/internal/domain/repositories"
	versionRepo "promptvault/internal/domain/repositories/versioning"
	versionSvc "promptvault/internal/domain/services/versioning"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo   versionRepo.DocumentRepository
	txManager repositories.TransactionManager
	versions  versionSvc.VersionManager
	logger    *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo versionRepo.DocumentRepository,
	txManager repositories.TransactionManager,
	versions versionSvc.VersionManager,
	logger *slog.Logger,
) versionSvc.DocumentService {
	return &documentService{
		docRepo:   docRepo,
		txManager: txManager,
		versions:  versions,
		logger:    logger,
	}
}

// CreateDocument inserts the document and its initial version in one transaction
func (s *documentService) CreateDocument(ctx context.Context, req *versionSvc.CreateDocumentRequest) (*models.Document, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &models.Document{
		Title:     req.Title,
		Content:   req.Content,
		Label:     req.Label,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var initial *models.Version
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		var err error
		initial, err = s.versions.CreateInitialVersion(txCtx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"label", doc.Label,
		"initial_version_id", initial.ID,
	)
	return doc, nil
}

// GetDocument retrieves a document
func (s *documentService) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	return s.docRepo.GetByID(ctx, documentID)
}

// UpdateDocument saves the request's fields through the version manager
func (s *documentService) UpdateDocument(ctx context.Context, documentID string, req *versionSvc.UpdateDocumentRequest) (*versionSvc.SaveResult, error) {
	doc, created, err := s.versions.SaveWithVersioning(ctx, documentID, req.Fields())
	if err != nil {
		return nil, err
	}
	return &versionSvc.SaveResult{Document: doc, VersionCreated: created}, nil
}

// DeleteDocument deletes a document; its versions go with it
func (s *documentService) DeleteDocument(ctx context.Context, documentID string) error {
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.docRepo.LockByID(txCtx, documentID); err != nil {
			return err
		}
		return s.docRepo.Delete(txCtx, documentID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("document deleted", "id", documentID)
	return nil
}

func validateCreateRequest(req *versionSvc.CreateDocumentRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, config.MaxTitleLength),
		),
		validation.Field(&req.Label,
			validation.Required.Error("label is required"),
			validation.RuneLength(1, config.MaxLabelLength),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

package versioning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
	"promptvault/internal/domain/repositories"
	versionRepo "promptvault/internal/domain/repositories/versioning"
	versionSvc "promptvault/internal/domain/services/versioning"
	"promptvault/internal/metrics"
)

// versionManager implements the VersionManager interface.
//
// Every mutation runs inside txManager.ExecTx and locks the document row
// first, so reading max(sequence_number) and writing the snapshot cannot
// interleave with another writer on the same document.
type versionManager struct {
	docRepo     versionRepo.DocumentRepository
	versionRepo versionRepo.VersionRepository
	txManager   repositories.TransactionManager
	differ      versionSvc.Differ
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewVersionManager creates a new version manager
func NewVersionManager(
	docRepo versionRepo.DocumentRepository,
	versionRepo versionRepo.VersionRepository,
	txManager repositories.TransactionManager,
	differ versionSvc.Differ,
	m *metrics.Metrics,
	logger *slog.Logger,
) versionSvc.VersionManager {
	return &versionManager{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		txManager:   txManager,
		differ:      differ,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateInitialVersion records version 1 from the document's state
func (s *versionManager) CreateInitialVersion(ctx context.Context, doc *models.Document) (v *models.Version, err error) {
	defer s.observe("create_initial", time.Now(), &err)

	if err := validateLabel(doc.Label, "label is required to create the initial version"); err != nil {
		return nil, err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		locked, err := s.docRepo.LockByID(txCtx, doc.ID)
		if err != nil {
			return err
		}

		count, err := s.versionRepo.Count(txCtx, doc.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: document %s already has %d versions", domain.ErrValidation, doc.ID, count)
		}

		v, err = s.insertInitial(txCtx, locked)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("initial version created",
		"document_id", doc.ID,
		"version_id", v.ID,
		"label", v.UserLabel,
	)
	return v, nil
}

// SaveWithVersioning snapshots the old state when any tracked field changes,
// then writes the new fields. The document row is written even when nothing
// changed, so re-saving identical content does not grow the history.
func (s *versionManager) SaveWithVersioning(ctx context.Context, documentID string, fields models.DocumentFields) (doc *models.Document, created bool, err error) {
	defer s.observe("save", time.Now(), &err)

	if err := validateFields(&fields); err != nil {
		return nil, false, err
	}

	var snapshot *models.Version
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		current, err := s.docRepo.LockByID(txCtx, documentID)
		if err != nil {
			return err
		}

		now := s.now()
		if current.Differs(fields) {
			maxSeq, err := s.versionRepo.MaxSequenceNumber(txCtx, documentID)
			if err != nil {
				return err
			}

			snapshot = models.Snapshot(current, maxSeq+1, now)
			if err := s.versionRepo.Insert(txCtx, snapshot); err != nil {
				return err
			}
			repositories.OnCommit(txCtx, s.metrics.VersionsCreatedTotal.Inc)
		}

		doc, err = s.docRepo.UpdateFields(txCtx, documentID, fields, now)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if snapshot != nil {
		s.logger.Info("version created",
			"document_id", documentID,
			"version_id", snapshot.ID,
			"sequence_number", snapshot.SequenceNumber,
			"snapshot_label", snapshot.UserLabel,
			"new_label", fields.Label,
		)
	} else {
		s.logger.Debug("document saved without changes", "document_id", documentID)
	}

	return doc, snapshot != nil, nil
}

// ListVersions returns the document's versions, most recent first.
// A labeled document without history gets version 1 back-filled from its
// persisted state before the list is returned.
func (s *versionManager) ListVersions(ctx context.Context, documentID string) (versions []models.Version, err error) {
	defer s.observe("list", time.Now(), &err)

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := validateLabel(doc.Label, "label must be set before versions can be listed"); err != nil {
		return nil, err
	}

	versions, err = s.versionRepo.ListDesc(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(versions) > 0 {
		return versions, nil
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		locked, err := s.docRepo.LockByID(txCtx, documentID)
		if err != nil {
			return err
		}

		// Another request may have back-filled while we waited for the lock
		count, err := s.versionRepo.Count(txCtx, documentID)
		if err != nil {
			return err
		}
		if count == 0 {
			v, err := s.insertInitial(txCtx, locked)
			if err != nil {
				return err
			}
			s.logger.Info("initial version back-filled",
				"document_id", documentID,
				"version_id", v.ID,
			)
		}

		versions, err = s.versionRepo.ListDesc(txCtx, documentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return versions, nil
}

// GetVersion retrieves a version that belongs to the document
func (s *versionManager) GetVersion(ctx context.Context, documentID, versionID string) (v *models.Version, err error) {
	defer s.observe("get", time.Now(), &err)
	return s.ownedVersion(ctx, documentID, versionID)
}

// Revert restores the document to the target version and deletes every newer
// version. Reverting to the latest version leaves the history untouched.
func (s *versionManager) Revert(ctx context.Context, documentID, versionID string) (doc *models.Document, err error) {
	defer s.observe("revert", time.Now(), &err)

	var target *models.Version
	var discarded int
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.docRepo.LockByID(txCtx, documentID); err != nil {
			return err
		}

		target, err = s.ownedVersion(txCtx, documentID, versionID)
		if err != nil {
			return err
		}

		discarded, err = s.versionRepo.DeleteAfter(txCtx, documentID, target.SequenceNumber)
		if err != nil {
			return err
		}

		doc, err = s.docRepo.UpdateFields(txCtx, documentID, target.RestoredFields(), s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.VersionsDeleted("revert", discarded)
	s.logger.Info("document reverted",
		"document_id", documentID,
		"version_id", target.ID,
		"sequence_number", target.SequenceNumber,
		"discarded_versions", discarded,
	)
	return doc, nil
}

// DeleteVersion deletes one version. The last remaining version cannot be deleted.
func (s *versionManager) DeleteVersion(ctx context.Context, documentID, versionID string) (err error) {
	defer s.observe("delete", time.Now(), &err)

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.docRepo.LockByID(txCtx, documentID); err != nil {
			return err
		}

		if _, err := s.ownedVersion(txCtx, documentID, versionID); err != nil {
			return err
		}

		count, err := s.versionRepo.Count(txCtx, documentID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return &domain.InvariantError{DocumentID: documentID, Current: count, Requested: 1}
		}

		n, err := s.versionRepo.DeleteByIDs(txCtx, documentID, []string{versionID})
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.VersionsDeleted("delete", 1)
	s.logger.Info("version deleted",
		"document_id", documentID,
		"version_id", versionID,
	)
	return nil
}

// BatchDeleteVersions deletes every requested version that exists, or none of
// them when that would leave the document without a version. Duplicate and
// unknown ids are ignored.
func (s *versionManager) BatchDeleteVersions(ctx context.Context, documentID string, versionIDs []string) (deleted int, err error) {
	defer s.observe("batch_delete", time.Now(), &err)

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.docRepo.LockByID(txCtx, documentID); err != nil {
			return err
		}

		existing, err := s.versionRepo.ListDesc(txCtx, documentID)
		if err != nil {
			return err
		}

		owned := make(map[string]bool, len(existing))
		for _, v := range existing {
			owned[v.ID] = true
		}

		requested := make(map[string]bool, len(versionIDs))
		matched := make([]string, 0, len(versionIDs))
		for _, id := range versionIDs {
			if requested[id] {
				continue
			}
			requested[id] = true
			if owned[id] {
				matched = append(matched, id)
			}
		}

		if len(matched) == 0 {
			return nil
		}
		if len(existing)-len(matched) < 1 {
			return &domain.InvariantError{DocumentID: documentID, Current: len(existing), Requested: len(matched)}
		}

		deleted, err = s.versionRepo.DeleteByIDs(txCtx, documentID, matched)
		if err != nil {
			return err
		}
		if deleted != len(matched) {
			return fmt.Errorf("%w: deleted %d of %d versions of document %s",
				domain.ErrConcurrencyConflict, deleted, len(matched), documentID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.VersionsDeleted("batch_delete", deleted)
	s.logger.Info("versions batch deleted",
		"document_id", documentID,
		"requested", len(versionIDs),
		"deleted", deleted,
	)
	return deleted, nil
}

// CompareVersions diffs the content of two states of a document
func (s *versionManager) CompareVersions(ctx context.Context, documentID, fromRef, toRef string) (diff *models.VersionDiff, err error) {
	defer s.observe("compare", time.Now(), &err)

	if fromRef == "" || toRef == "" {
		return nil, fmt.Errorf("%w: both versions to compare are required", domain.ErrValidation)
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	resolve := func(ref string) (string, error) {
		if ref == models.CurrentRef {
			return doc.Content, nil
		}
		v, err := s.ownedVersion(ctx, documentID, ref)
		if err != nil {
			return "", err
		}
		return v.Content, nil
	}

	oldContent, err := resolve(fromRef)
	if err != nil {
		return nil, err
	}
	newContent, err := resolve(toRef)
	if err != nil {
		return nil, err
	}

	lines := s.differ.ComputeDiff(oldContent, newContent)
	return &models.VersionDiff{
		DocumentID: documentID,
		From:       fromRef,
		To:         toRef,
		Lines:      lines,
		Stats:      models.Stats(lines),
	}, nil
}

// ownedVersion fetches a version and hides versions of other documents
func (s *versionManager) ownedVersion(ctx context.Context, documentID, versionID string) (*models.Version, error) {
	v, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v.DocumentID != documentID {
		return nil, fmt.Errorf("version %s of document %s: %w", versionID, documentID, domain.ErrNotFound)
	}
	return v, nil
}

// insertInitial writes version 1 for a locked document
func (s *versionManager) insertInitial(ctx context.Context, doc *models.Document) (*models.Version, error) {
	desc := models.InitialChangeDescription
	v := models.Snapshot(doc, 1, s.now())
	v.ChangeDescription = &desc

	if err := s.versionRepo.Insert(ctx, v); err != nil {
		return nil, err
	}
	repositories.OnCommit(ctx, s.metrics.VersionsCreatedTotal.Inc)
	return v, nil
}

func (s *versionManager) observe(operation string, start time.Time, errp *error) {
	err := *errp
	s.metrics.ObserveOperation(operation, start, err)
	if err != nil {
		s.logger.Debug("version operation failed",
			"operation", operation,
			"kind", domain.Kind(err),
			"error", err,
		)
	}
}

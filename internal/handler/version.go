package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"promptvault/internal/config"
	models "promptvault/internal/domain/models/versioning"
	versionSvc "promptvault/internal/domain/services/versioning"
	"promptvault/internal/httputil"
)

// VersionHandler handles version history HTTP requests
type VersionHandler struct {
	versions versionSvc.VersionManager
	logger   *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(versions versionSvc.VersionManager, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		versions: versions,
		logger:   logger,
	}
}

// ListVersionsResponse wraps a document's history
type ListVersionsResponse struct {
	Versions []models.Version `json:"versions"`
	Total    int              `json:"total"`
}

// BatchDeleteRequest names the versions to delete
type BatchDeleteRequest struct {
	VersionIDs []string `json:"version_ids"`
}

// BatchDeleteResponse reports how many versions were removed
type BatchDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// ListVersions lists a document's versions, newest first
// GET /api/documents/{id}/versions
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	docID, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	versions, err := h.versions.ListVersions(r.Context(), docID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ListVersionsResponse{Versions: versions, Total: len(versions)})
}

// GetVersion retrieves one version
// GET /api/documents/{id}/versions/{versionId}
func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	docID, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}
	versionID, ok := pathID(w, r, "versionId", "version")
	if !ok {
		return
	}

	version, err := h.versions.GetVersion(r.Context(), docID, versionID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, version)
}

// RevertVersion restores the document to a version, discarding newer ones
// POST /api/documents/{id}/versions/{versionId}/revert
func (h *VersionHandler) RevertVersion(w http.ResponseWriter, r *http.Request) {
	docID, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}
	versionID, ok := pathID(w, r, "versionId", "version")
	if !ok {
		return
	}

	doc, err := h.versions.Revert(r.Context(), docID, versionID)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("revert applied",
		"document_id", docID,
		"version_id", versionID,
		"user_id", httputil.GetUserID(r),
		"request_id", httputil.GetRequestID(r),
	)

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteVersion deletes one version
// DELETE /api/documents/{id}/versions/{versionId}
func (h *VersionHandler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	docID, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}
	versionID, ok := pathID(w, r, "versionId", "version")
	if !ok {
		return
	}

	if err := h.versions.DeleteVersion(r.Context(), docID, versionID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BatchDeleteVersions deletes several versions at once
// POST /api/documents/{id}/versions/batch-delete
func (h *VersionHandler) BatchDeleteVersions(w http.ResponseWriter, r *http.Request) {
	docID, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	var req BatchDeleteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.VersionIDs) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "version_ids is required")
		return
	}
	if len(req.VersionIDs) > config.MaxBatchDeleteIDs {
		httputil.RespondError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d version_ids per request", config.MaxBatchDeleteIDs))
		return
	}

	deleted, err := h.versions.BatchDeleteVersions(r.Context(), docID, req.VersionIDs)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("batch delete applied",
		"document_id", docID,
		"deleted", deleted,
		"user_id", httputil.GetUserID(r),
		"request_id", httputil.GetRequestID(r),
	)

	httputil.RespondJSON(w, http.StatusOK, BatchDeleteResponse{Deleted: deleted})
}

// CompareVersions diffs two states of a document
// GET /api/documents/{id}/diff?from=<versionId|current>&to=<versionId|current>
func (h *VersionHandler) CompareVersions(w http.ResponseWriter, r *http.Request) {
	docID, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")
	if from == "" || to == "" {
		httputil.RespondError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	diff, err := h.versions.CompareVersions(r.Context(), docID, from, to)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, diff)
}

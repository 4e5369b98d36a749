package handler

import (
	"log/slog"
	"net/http"

	versionSvc "promptvault/internal/domain/services/versioning"
	"promptvault/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService versionSvc.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService versionSvc.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// CreateDocument creates a document and its initial version
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req versionSvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docService.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves a document
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// UpdateDocument saves the document, snapshotting the previous state when it changed
// PUT /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	var req versionSvc.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.docService.UpdateDocument(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// DeleteDocument deletes a document and its history
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	if err := h.docService.DeleteDocument(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("document deleted via API",
		"document_id", id,
		"user_id", httputil.GetUserID(r),
		"request_id", httputil.GetRequestID(r),
	)

	w.WriteHeader(http.StatusNoContent)
}

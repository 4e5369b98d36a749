package handler

import (
	"fmt"
	"net/http"

	"promptvault/internal/config"
	models "promptvault/internal/domain/models/versioning"
	versionSvc "promptvault/internal/domain/services/versioning"
	"promptvault/internal/httputil"
)

// DiffHandler serves ad hoc text diffs
type DiffHandler struct {
	differ versionSvc.Differ
}

// NewDiffHandler creates a new diff handler
func NewDiffHandler(differ versionSvc.Differ) *DiffHandler {
	return &DiffHandler{differ: differ}
}

// DiffRequest holds the two texts to compare
type DiffRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// DiffResponse is a line diff with its summary
type DiffResponse struct {
	Lines []models.DiffLine `json:"lines"`
	Stats models.DiffStats  `json:"stats"`
}

// ComputeDiff diffs two texts line by line
// POST /api/diff
func (h *DiffHandler) ComputeDiff(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Old) > config.MaxDiffInputBytes || len(req.New) > config.MaxDiffInputBytes {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("each text must be at most %d bytes", config.MaxDiffInputBytes))
		return
	}

	lines := h.differ.ComputeDiff(req.Old, req.New)
	if lines == nil {
		lines = []models.DiffLine{}
	}
	httputil.RespondJSON(w, http.StatusOK, DiffResponse{Lines: lines, Stats: models.Stats(lines)})
}

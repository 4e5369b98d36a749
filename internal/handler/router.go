package handler

import (
	"net/http"
)

// Routes groups the handlers mounted on the API mux
type Routes struct {
	Health    *HealthHandler
	Documents *DocumentHandler
	Versions  *VersionHandler
	Diff      *DiffHandler
	Metrics   http.Handler
}

// Register mounts every route on mux. protect wraps API routes, e.g. with
// auth; it is applied per route so the mux still sets r.Pattern on the
// request seen by outer middleware.
func (rt *Routes) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	if protect == nil {
		protect = func(h http.Handler) http.Handler { return h }
	}
	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	mux.HandleFunc("GET /health", rt.Health.HealthCheck)
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	// Document routes
	api("POST /api/documents", rt.Documents.CreateDocument)
	api("GET /api/documents/{id}", rt.Documents.GetDocument)
	api("PUT /api/documents/{id}", rt.Documents.UpdateDocument)
	api("DELETE /api/documents/{id}", rt.Documents.DeleteDocument)

	// Version routes
	api("GET /api/documents/{id}/versions", rt.Versions.ListVersions)
	api("POST /api/documents/{id}/versions/batch-delete", rt.Versions.BatchDeleteVersions)
	api("GET /api/documents/{id}/versions/{versionId}", rt.Versions.GetVersion)
	api("DELETE /api/documents/{id}/versions/{versionId}", rt.Versions.DeleteVersion)
	api("POST /api/documents/{id}/versions/{versionId}/revert", rt.Versions.RevertVersion)
	api("GET /api/documents/{id}/diff", rt.Versions.CompareVersions)

	// Diff routes
	api("POST /api/diff", rt.Diff.ComputeDiff)
}

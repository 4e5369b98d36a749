package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"promptvault/internal/httputil"
)

// Pinger reports whether the storage backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health check
type HealthHandler struct {
	storage Pinger
	driver  string
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storage Pinger, driver string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{storage: storage, driver: driver, logger: logger}
}

// HealthCheck reports service and storage status
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "driver", h.driver, "error", err)
		httputil.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unavailable",
			"storage": h.driver,
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": h.driver,
	})
}

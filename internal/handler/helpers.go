package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"promptvault/internal/domain"
	"promptvault/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var invariantErr *domain.InvariantError
	code := domain.Kind(err)

	switch {
	case errors.As(err, &invariantErr):
		httputil.RespondProblem(w, httputil.NewProblem(http.StatusConflict, code, invariantErr.Error()).
			WithCounts(invariantErr.DocumentID, invariantErr.Current, invariantErr.Requested))
	case errors.Is(err, domain.ErrValidation):
		respondKind(w, http.StatusBadRequest, err.Error(), code)
	case errors.Is(err, domain.ErrNotFound):
		respondKind(w, http.StatusNotFound, err.Error(), code)
	case errors.Is(err, domain.ErrInvariantViolation):
		respondKind(w, http.StatusConflict, err.Error(), code)
	case errors.Is(err, domain.ErrConcurrencyConflict):
		respondKind(w, http.StatusConflict, "document was modified concurrently, retry the request", code)
	case errors.Is(err, domain.ErrStorageUnavailable):
		respondKind(w, http.StatusServiceUnavailable, "storage unavailable", code)
	case errors.Is(err, domain.ErrUnauthorized):
		respondKind(w, http.StatusUnauthorized, err.Error(), code)
	default:
		respondKind(w, http.StatusInternalServerError, "internal server error", code)
	}
}

func respondKind(w http.ResponseWriter, status int, detail, code string) {
	httputil.RespondProblem(w, httputil.NewProblem(status, code, detail))
}

// pathID reads a UUID path parameter. Malformed ids cannot name an existing
// record, so they answer 404 like unknown ones.
func pathID(w http.ResponseWriter, r *http.Request, name, resource string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, resource+" ID is required")
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		respondKind(w, http.StatusNotFound, resource+" "+id+": not found", "not_found")
		return "", false
	}
	return id, true
}

package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON marshals data before writing headers so an encoding failure
// still produces a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondProblem(w, NewProblem(http.StatusInternalServerError, "internal", "failed to encode response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// Problem is an RFC 7807 body. Code is a stable machine-readable error kind;
// the invariant fields are only set for history-invariant rejections.
type Problem struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail,omitempty"`
	Code       string `json:"code,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Current    *int   `json:"current,omitempty"`
	Requested  *int   `json:"requested,omitempty"`
}

// NewProblem builds a problem whose type and title follow from status
func NewProblem(status int, code, detail string) Problem {
	return Problem{
		Type:   typeFromStatus(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

// WithCounts attaches the version counts an invariant check rejected
func (p Problem) WithCounts(documentID string, current, requested int) Problem {
	p.DocumentID = documentID
	p.Current = &current
	p.Requested = &requested
	return p
}

// RespondProblem writes p as application/problem+json
func RespondProblem(w http.ResponseWriter, p Problem) {
	payload, err := json.Marshal(p)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	w.Write(payload)
}

// RespondError writes a problem with the default code for status
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondProblem(w, NewProblem(status, codeFromStatus(status), detail))
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusServiceUnavailable:
		return "storage_unavailable"
	default:
		return "internal"
	}
}

func typeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.1"
	case http.StatusUnauthorized:
		return "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.2"
	case http.StatusNotFound:
		return "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.5"
	case http.StatusConflict:
		return "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.10"
	case http.StatusRequestEntityTooLarge:
		return "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.14"
	case http.StatusInternalServerError:
		return "https://datatracker.ietf.org/doc/html/rfc9110#section-15.6.1"
	case http.StatusServiceUnavailable:
		return "https://datatracker.ietf.org/doc/html/rfc9110#section-15.6.4"
	default:
		return "about:blank"
	}
}

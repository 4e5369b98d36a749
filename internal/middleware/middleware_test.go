package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"promptvault/internal/domain"
	"promptvault/internal/domain/models"
	"promptvault/internal/httputil"
	"promptvault/internal/metrics"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (*models.SupabaseClaims, error) {
	if token != "good" {
		return nil, fmt.Errorf("%w: bad token", domain.ErrUnauthorized)
	}
	claims := &models.SupabaseClaims{Role: models.AuthenticatedRole}
	claims.Subject = "user-1"
	return claims, nil
}

func (stubVerifier) Close() error { return nil }

func TestAuth(t *testing.T) {
	var seenUser string
	h := Auth(stubVerifier{}, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = httputil.GetUserID(r)
	}))

	tests := []struct {
		name   string
		header string
		status int
		user   string
	}{
		{"no header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"good token", "bearer good", http.StatusOK, "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUser = ""
			req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if seenUser != tt.user {
				t.Errorf("user = %q, want %q", seenUser, tt.user)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestObserve(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		if httputil.GetRequestID(r) == "" {
			t.Error("request ID missing from context")
		}
		w.WriteHeader(http.StatusNotFound)
	})
	h := Observe(m, discard)(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/abc", nil))

	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response has no request ID header")
	}
	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET /api/documents/{id}", "404"))
	if got != 1 {
		t.Errorf("requests counter = %v, want 1", got)
	}
}

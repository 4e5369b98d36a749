package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes limits request bodies
const MaxBodyBytes = 4 << 20

// ParseJSON decodes a single JSON value from the request body into dest.
// Unknown fields and trailing data are rejected.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	// Requires w for a proper 413 response
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if decoder.More() {
		return errors.New("invalid JSON: unexpected data after the request object")
	}

	return nil
}

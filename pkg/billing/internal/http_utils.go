// Package internal contains shared helpers for billing providers.
package internal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ErrPayloadTooLarge is returned by ReadBodyStrict when the request body
// exceeds the configured limit.
var ErrPayloadTooLarge = errors.New("billing: payload too large")

// ReadBodyStrict reads the request body enforcing maxBytes. Oversized
// payloads return ErrPayloadTooLarge rather than a truncated body.
func ReadBodyStrict(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, ErrPayloadTooLarge
		}
		return nil, err
	}
	return body, nil
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error response in the {"detail": "..."} shape.
func WriteError(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, map[string]string{"detail": detail})
}

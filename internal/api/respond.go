package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/soochol/flowmart/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "err", err)
	}
}

// handleAPIError writes the generic {error, message} body.
func handleAPIError(w http.ResponseWriter, status int, title string, err error) {
	writeJSON(w, status, map[string]any{
		"error":   title,
		"message": err.Error(),
	})
}

// requireIdentity returns the caller id, or writes a 401 and reports false.
func requireIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Authentication required"})
		return "", false
	}
	return id.UserID, true
}

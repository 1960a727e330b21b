package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soochol/flowmart/internal/gateway"
	"github.com/soochol/flowmart/internal/services"
)

// Client-facing error texts for the gateway route.
const (
	msgUnsupportedContentType = "Unsupported content type. Use application/json or multipart/form-data"
	msgNotConfigured          = "Credentials not configured for this site"
	msgWebhookMissing         = "Webhook URL not configured for this site"
)

// forwardToSite relays the caller's request to their webhook for the site.
// POST /api/portfolio/{siteName}
func (s *Server) forwardToSite(w http.ResponseWriter, r *http.Request) {
	siteName := chi.URLParam(r, "siteName")

	// 1. Identity before anything else.
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	// 2. Body encoding; unsupported types never reach credential lookup.
	payload, err := gateway.Negotiate(w, r, s.maxUploadBytes)
	if errors.Is(err, gateway.ErrUnsupportedContentType) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": msgUnsupportedContentType})
		return
	}
	if err != nil {
		handleAPIError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	// 3. Resolve credentials and forward.
	resp, err := s.gateway.Dispatch(r.Context(), userID, siteName, payload)
	var statusErr *gateway.WebhookStatusError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, services.ErrNotConfigured):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      msgNotConfigured,
			"needsSetup": true,
		})
	case errors.Is(err, gateway.ErrWebhookMissing):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": msgWebhookMissing})
	case errors.As(err, &statusErr):
		slog.Warn("site webhook failed", "site", siteName, "status", statusErr.Status)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":         "Webhook request failed",
			"webhookStatus": statusErr.Status,
			"webhookError":  statusErr.StatusText,
		})
	default:
		slog.Error("gateway request failed", "site", siteName, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":    "Internal server error",
			"message":  err.Error(),
			"siteName": siteName,
		})
	}
}

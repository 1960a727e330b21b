package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soochol/flowmart/internal/flowmart"
	"github.com/soochol/flowmart/internal/services"
)

func (s *Server) listSites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	sites, err := s.credentials.List(r.Context(), userID)
	if err != nil {
		slog.Error("list sites", "user", userID, "err", err)
		handleAPIError(w, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) saveSiteCredentials(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	siteName := chi.URLParam(r, "siteName")

	var bundle flowmart.Bundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		handleAPIError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	safe, err := s.credentials.Save(r.Context(), userID, siteName, bundle)
	if errors.Is(err, services.ErrInvalidWebhook) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("save site credentials", "site", siteName, "err", err)
		handleAPIError(w, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	writeJSON(w, http.StatusOK, safe)
}

func (s *Server) deleteSiteCredentials(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	siteName := chi.URLParam(r, "siteName")

	err := s.credentials.Delete(r.Context(), userID, siteName)
	if errors.Is(err, services.ErrNotConfigured) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("delete site credentials", "site", siteName, "err", err)
		handleAPIError(w, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

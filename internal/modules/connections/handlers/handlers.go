// Package handlers provides HTTP handlers for brokerage connections.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
	"github.com/tradedeck/tradedeck/internal/modules/connections"
)

// Handler provides HTTP handlers for connection endpoints
type Handler struct {
	store *connections.Store
	log   zerolog.Logger
}

// NewHandler creates a new connections handler
func NewHandler(store *connections.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "connections").Logger(),
	}
}

// HandleList handles GET /api/connections
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Fetch(r.Context()); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			http.Error(w, "Not signed in", http.StatusUnauthorized)
			return
		}
		h.log.Warn().Err(err).Msg("Connection fetch failed, serving cached list")
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"connections": h.store.Credentials(),
		"state":       h.store.State(),
	})
}

// HandleCreate handles POST /api/connections
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input backend.CredentialInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cred, err := h.store.Create(r.Context(), input)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			http.Error(w, apiErr.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, h.log, http.StatusCreated, cred)
}

// HandleUpdate handles PUT /api/connections/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input backend.CredentialInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cred, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to update connection")
		http.Error(w, "Failed to update connection", http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusOK, cred)
}

// HandleDelete handles DELETE /api/connections/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Connection id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete connection")
		http.Error(w, "Failed to delete connection", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleVerify handles POST /api/connections/verify
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var input backend.VerifyKeysInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	valid, err := h.store.VerifyKeys(r.Context(), input)
	if err != nil {
		h.log.Error().Err(err).Str("exchange", input.Exchange).Msg("Key verification failed")
		http.Error(w, "Key verification failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]bool{"valid": valid})
}

// writeJSON wraps the payload in the standard response envelope.
func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// Package handlers provides HTTP handlers for authentication and the
// signed-in user's profile.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
	"github.com/tradedeck/tradedeck/internal/modules/session"
)

// Handler provides HTTP handlers for session endpoints
type Handler struct {
	store *session.Store
	log   zerolog.Logger
}

// NewHandler creates a new session handler
func NewHandler(store *session.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "session").Logger(),
	}
}

// HandleLogin handles POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input backend.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.store.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			http.Error(w, apiErr.Error(), http.StatusUnauthorized)
			return
		}
		h.log.Error().Err(err).Msg("Login failed")
		http.Error(w, "Login failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusOK, user)
}

// HandleSignup handles POST /api/auth/signup
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var input backend.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.store.Signup(r.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			http.Error(w, apiErr.Error(), http.StatusBadGateway)
			return
		}
		h.log.Error().Err(err).Msg("Signup failed")
		http.Error(w, "Signup failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusCreated, user)
}

// HandleLogout handles POST /api/auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(); err != nil {
		h.log.Error().Err(err).Msg("Logout failed")
		http.Error(w, "Logout failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /api/auth/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := h.store.CurrentUser()
	if user == nil {
		http.Error(w, "Not signed in", http.StatusUnauthorized)
		return
	}

	writeJSON(w, h.log, http.StatusOK, user)
}

// HandleUpdateProfile handles PUT /api/auth/profile
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update backend.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.store.UpdateProfile(r.Context(), update)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			http.Error(w, "Not signed in", http.StatusUnauthorized)
			return
		}
		h.log.Error().Err(err).Msg("Profile update failed")
		http.Error(w, "Profile update failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusOK, user)
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

// Package handlers provides HTTP handlers for strategy management.
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
	"github.com/tradedeck/tradedeck/internal/modules/strategies"
)

// Handler provides HTTP handlers for strategy endpoints
type Handler struct {
	store *strategies.Store
	log   zerolog.Logger
}

// NewHandler creates a new strategies handler
func NewHandler(store *strategies.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "strategies").Logger(),
	}
}

// HandleList handles GET /api/strategies
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"strategies": h.store.Strategies(),
		"state":      h.store.State(),
	})
}

// HandleGet handles GET /api/strategies/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	strategy, err := h.store.StrategyByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Strategy not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get strategy")
		http.Error(w, "Failed to get strategy", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.log, http.StatusOK, strategy)
}

// HandleRefresh handles POST /api/strategies/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Fetch(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh strategies")
		http.Error(w, "Failed to refresh strategies", http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"strategies": h.store.Strategies(),
	})
}

// HandleCreateGrowthDCA handles POST /api/strategies/growth-dca
func (h *Handler) HandleCreateGrowthDCA(w http.ResponseWriter, r *http.Request) {
	var form strategies.GrowthDCAForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.createFromForm(w, r, form.Build)
}

// HandleCreateGrid handles POST /api/strategies/grid
func (h *Handler) HandleCreateGrid(w http.ResponseWriter, r *http.Request) {
	var form strategies.GridForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.createFromForm(w, r, form.Build)
}

// HandleCreateTrend handles POST /api/strategies/trend
func (h *Handler) HandleCreateTrend(w http.ResponseWriter, r *http.Request) {
	var form strategies.TrendForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.createFromForm(w, r, form.Build)
}

// createFromForm assembles a payload from a form builder and submits it.
// Validation failures surface as 400 with the builder's single message.
func (h *Handler) createFromForm(w http.ResponseWriter, r *http.Request, build func() (*backend.StrategyInput, error)) {
	input, err := build()
	if err != nil {
		var verr *strategies.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Message, http.StatusBadRequest)
			return
		}
		http.Error(w, "Invalid strategy form", http.StatusBadRequest)
		return
	}

	strategy, err := h.store.Create(r.Context(), *input)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create strategy")
		http.Error(w, backendMessage(err, "Failed to create strategy"), http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusCreated, strategy)
}

// HandleUpdate handles PUT /api/strategies/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Strategy id is required", http.StatusBadRequest)
		return
	}

	var patch domain.StrategyPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if patch.Frequency != nil {
		if err := patch.Frequency.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	strategy, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to update strategy")
		http.Error(w, backendMessage(err, "Failed to update strategy"), http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusOK, strategy)
}

// HandleDelete handles DELETE /api/strategies/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Strategy id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete strategy")
		http.Error(w, backendMessage(err, "Failed to delete strategy"), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// backendMessage surfaces the upstream error message when the backend
// rejected the request, falling back otherwise.
func backendMessage(err error, fallback string) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return fallback
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

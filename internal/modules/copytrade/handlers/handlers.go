// Package handlers provides HTTP handlers for the copy-trading
// marketplace: the published catalogue and the user's subscriptions.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
	"github.com/tradedeck/tradedeck/internal/modules/copytrade"
)

// Handler provides HTTP handlers for copy-trading endpoints
type Handler struct {
	store *copytrade.Store
	log   zerolog.Logger
}

// NewHandler creates a new copy-trading handler
func NewHandler(store *copytrade.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "copytrade").Logger(),
	}
}

// HandleCatalogue handles GET /api/copy-trading/published
func (h *Handler) HandleCatalogue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"published": h.store.Published(),
		"state":     h.store.State(),
	})
}

// HandleSubscriptions handles GET /api/copy-trading/subscriptions
func (h *Handler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"subscriptions": h.store.Subscriptions(),
		"state":         h.store.State(),
	})
}

// HandleRefresh handles POST /api/copy-trading/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Fetch(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh copy-trading data")
		http.Error(w, "Failed to refresh copy-trading data", http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"published":     h.store.Published(),
		"subscriptions": h.store.Subscriptions(),
	})
}

// subscribeRequest is the dashboard's subscribe payload
type subscribeRequest struct {
	StrategyID string  `json:"strategyId"`
	Exchange   string  `json:"exchange"`
	Multiplier float64 `json:"multiplier"`
}

// HandleSubscribe handles POST /api/copy-trading/subscribe
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := h.store.Subscribe(r.Context(), req.StrategyID, req.Exchange, req.Multiplier)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOwnStrategy):
			http.Error(w, "You cannot copy your own strategy", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Published strategy not found", http.StatusNotFound)
		default:
			var apiErr *backend.APIError
			if errors.As(err, &apiErr) {
				http.Error(w, apiErr.Error(), http.StatusBadGateway)
				return
			}
			// Remaining failures are local validation (multiplier, exchange)
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	writeJSON(w, h.log, http.StatusCreated, sub)
}

// HandleUnsubscribe handles DELETE /api/copy-trading/subscriptions/{id}
func (h *Handler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Subscription id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Unsubscribe(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to unsubscribe")
		http.Error(w, "Failed to unsubscribe", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePause handles POST /api/copy-trading/subscriptions/{id}/pause
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.store.Pause)
}

// HandleResume handles POST /api/copy-trading/subscriptions/{id}/resume
func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.store.Resume)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Subscription id is required", http.StatusBadRequest)
		return
	}

	if err := op(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to change subscription status")
		http.Error(w, "Failed to change subscription status", http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"subscriptions": h.store.Subscriptions(),
	})
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

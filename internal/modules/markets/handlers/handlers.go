// Package handlers provides HTTP handlers for market data: the symbol
// universe, exchange balances, and manual trade execution.
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
	"github.com/tradedeck/tradedeck/internal/modules/markets"
)

// TradeClient is the slice of the backend API trade execution needs
type TradeClient interface {
	CreateTrade(ctx context.Context, input backend.TradeInput) (*backend.TradeResult, error)
}

// Handler provides HTTP handlers for market endpoints
type Handler struct {
	symbols  *markets.SymbolStore
	balances *markets.BalanceStore
	trades   TradeClient
	log      zerolog.Logger
}

// NewHandler creates a new markets handler
func NewHandler(symbols *markets.SymbolStore, balances *markets.BalanceStore, trades TradeClient, log zerolog.Logger) *Handler {
	return &Handler{
		symbols:  symbols,
		balances: balances,
		trades:   trades,
		log:      log.With().Str("handler", "markets").Logger(),
	}
}

// HandleSymbols handles GET /api/markets/symbols?exchange=X&segment=Y
func (h *Handler) HandleSymbols(w http.ResponseWriter, r *http.Request) {
	exchange := r.URL.Query().Get("exchange")
	segment := r.URL.Query().Get("segment")
	if exchange == "" || segment == "" {
		http.Error(w, "exchange and segment are required", http.StatusBadRequest)
		return
	}

	// Fetch is TTL-guarded; a fresh cache makes this a no-op
	if err := h.symbols.Fetch(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Symbol fetch failed, serving cached universe")
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"symbols": h.symbols.SymbolsByExchange(exchange, domain.Segment(segment)),
		"state":   h.symbols.State(),
	})
}

// HandleUniverse handles GET /api/markets/symbols/universe
func (h *Handler) HandleUniverse(w http.ResponseWriter, r *http.Request) {
	if err := h.symbols.Fetch(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Symbol fetch failed, serving cached universe")
	}

	writeJSON(w, h.log, http.StatusOK, h.symbols.Universe())
}

// HandleBalances handles GET /api/markets/balances?exchange=X&segment=Y.
// A backend failure leaves an empty list and the error in state; the
// response is still 200, matching the fire-and-forget balance flow.
func (h *Handler) HandleBalances(w http.ResponseWriter, r *http.Request) {
	exchange := r.URL.Query().Get("exchange")
	segment := r.URL.Query().Get("segment")
	if exchange == "" || segment == "" {
		http.Error(w, "exchange and segment are required", http.StatusBadRequest)
		return
	}

	h.balances.Fetch(r.Context(), exchange, domain.Segment(segment))

	list, gotExchange, gotSegment := h.balances.Balances()
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"balances": list,
		"exchange": gotExchange,
		"segment":  gotSegment,
		"state":    h.balances.State(),
	})
}

// HandleBalanceByAsset handles GET /api/markets/balances/{asset}
func (h *Handler) HandleBalanceByAsset(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")

	balance := h.balances.BalanceByAsset(asset)
	if balance == nil {
		http.Error(w, "Balance not found", http.StatusNotFound)
		return
	}

	writeJSON(w, h.log, http.StatusOK, balance)
}

// HandleExecuteTrade handles POST /api/markets/trade
func (h *Handler) HandleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var input backend.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.trades.CreateTrade(r.Context(), input)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", input.Symbol).Msg("Trade execution failed")

		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			http.Error(w, apiErr.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, "Trade execution failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, h.log, http.StatusCreated, result)
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

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/markets", func(r chi.Router) {
		r.Get("/symbols", h.HandleSymbols)
		r.Get("/symbols/universe", h.HandleUniverse)

		r.Get("/balances", h.HandleBalances)
		r.Get("/balances/{asset}", h.HandleBalanceByAsset)

		r.Post("/trade", h.HandleExecuteTrade)
	})
}

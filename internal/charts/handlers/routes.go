package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all chart routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/charts", func(r chi.Router) {
		r.Get("/symbols", h.HandleSymbols)
		r.Get("/{symbol}/prices", h.HandlePrices)
		r.Get("/{symbol}/indicator", h.HandleIndicator)
		r.Get("/{symbol}/summary", h.HandleSummary)
	})
}

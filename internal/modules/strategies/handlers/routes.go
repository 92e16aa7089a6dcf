package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all strategy routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/strategies", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/refresh", h.HandleRefresh)

		// Typed builders, one per strategy kind
		r.Post("/growth-dca", h.HandleCreateGrowthDCA)
		r.Post("/grid", h.HandleCreateGrid)
		r.Post("/trend", h.HandleCreateTrend)

		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

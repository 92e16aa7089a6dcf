package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all copy-trading routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/copy-trading", func(r chi.Router) {
		r.Get("/published", h.HandleCatalogue)
		r.Post("/refresh", h.HandleRefresh)
		r.Post("/subscribe", h.HandleSubscribe)

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", h.HandleSubscriptions)
			r.Delete("/{id}", h.HandleUnsubscribe)
			r.Post("/{id}/pause", h.HandlePause)
			r.Post("/{id}/resume", h.HandleResume)
		})
	})
}

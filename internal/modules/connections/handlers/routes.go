package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all connection routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/connections", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/verify", h.HandleVerify)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all session routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/signup", h.HandleSignup)
		r.Post("/logout", h.HandleLogout)
		r.Get("/me", h.HandleMe)
		r.Put("/profile", h.HandleUpdateProfile)
	})
}

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all lot routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/lots", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

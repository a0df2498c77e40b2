package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all price snapshot routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Get("/{code}/latest", h.HandleGetLatest)
		r.Get("/{code}/history", h.HandleGetHistory)
		r.Post("/refresh", h.HandleRefresh)
	})
}

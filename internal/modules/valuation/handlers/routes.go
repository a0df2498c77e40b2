package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all valuation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/valuation", func(r chi.Router) {
		r.Post("/reconstruct", h.HandleReconstruct)
		r.Get("/{owner}/history", h.HandleHistory)
	})
}

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all fx routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/fx", func(r chi.Router) {
		r.Post("/convert", h.HandleConvert)
		r.Get("/rates/{quote}/latest", h.HandleGetLatestRate)
		r.Post("/sync", h.HandleSync)
	})
}

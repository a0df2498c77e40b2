// Package handlers provides HTTP handlers for portfolio valuation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dferran/hoard/internal/modules/valuation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles valuation HTTP requests
type Handler struct {
	service *valuation.Service
	log     zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(service *valuation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "valuation").Logger(),
	}
}

// ReconstructRequest represents an explicit reconstruction request
type ReconstructRequest struct {
	OwnerID         string   `json:"owner_id"`
	DisplayCurrency string   `json:"display_currency"`
	Checkpoints     []string `json:"checkpoints"` // YYYY-MM-DD, ascending
}

// HandleReconstruct handles POST /api/valuation/reconstruct
func (h *Handler) HandleReconstruct(w http.ResponseWriter, r *http.Request) {
	var req ReconstructRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Checkpoints) == 0 {
		http.Error(w, "checkpoints are required", http.StatusBadRequest)
		return
	}

	points, err := h.service.Reconstruct(r.Context(), req.OwnerID, req.DisplayCurrency, req.Checkpoints)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"owner_id":         req.OwnerID,
			"display_currency": req.DisplayCurrency,
			"points":           points,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleHistory handles GET /api/valuation/{owner}/history?currency=
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "owner")
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = "EUR"
	}

	result, err := h.service.History(r.Context(), ownerID, currency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"owner_id":         ownerID,
			"display_currency": currency,
			"timestamp":        time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

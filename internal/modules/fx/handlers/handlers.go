// Package handlers provides HTTP handlers for currency conversion.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/dferran/hoard/internal/modules/fx"
	"github.com/dferran/hoard/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles fx HTTP requests
type Handler struct {
	service *fx.Service
	repo    *fx.Repository
	syncJob scheduler.Job
	log     zerolog.Logger
}

// NewHandler creates a new fx handler
func NewHandler(service *fx.Service, repo *fx.Repository, syncJob scheduler.Job, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		syncJob: syncJob,
		log:     log.With().Str("handler", "fx").Logger(),
	}
}

// ConvertRequest represents a conversion request
type ConvertRequest struct {
	Amount string `json:"amount"`
	From   string `json:"from"`
	To     string `json:"to"`
	AsOf   string `json:"as_of,omitempty"` // RFC3339; empty means now
}

// HandleConvert handles POST /api/fx/convert
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "Invalid amount", http.StatusBadRequest)
		return
	}

	asOf := time.Now()
	if req.AsOf != "" {
		asOf, err = time.Parse(time.RFC3339, req.AsOf)
		if err != nil {
			http.Error(w, "Invalid as_of timestamp, want RFC3339", http.StatusBadRequest)
			return
		}
	}

	converted, err := h.service.Convert(amount, req.From, req.To, asOf)
	if err != nil {
		if errors.Is(err, domain.ErrUndefinedConversion) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"amount":    req.Amount,
			"from":      req.From,
			"to":        req.To,
			"converted": converted.String(),
		},
		"metadata": map[string]interface{}{
			"as_of": asOf.UTC().Format(time.RFC3339),
			"pivot": h.service.Pivot(),
		},
	})
}

// HandleGetLatestRate handles GET /api/fx/rates/{quote}/latest
func (h *Handler) HandleGetLatestRate(w http.ResponseWriter, r *http.Request) {
	quote := chi.URLParam(r, "quote")
	if !fx.ValidCode(quote) {
		http.Error(w, "Invalid quote currency", http.StatusBadRequest)
		return
	}

	rate, err := h.repo.LatestAtOrBefore(quote, time.Now())
	if err != nil {
		h.log.Error().Err(err).Str("quote", quote).Msg("Failed to get latest rate")
		http.Error(w, "Failed to retrieve rate", http.StatusInternalServerError)
		return
	}
	if rate == nil {
		http.Error(w, "No rate recorded for "+quote, http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": rate,
	})
}

// HandleSync handles POST /api/fx/sync - run the rate sync immediately
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if err := h.syncJob.Run(); err != nil {
		h.log.Error().Err(err).Msg("FX sync failed")
		http.Error(w, "Sync failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"status": "completed",
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

// Package handlers provides HTTP handlers for price snapshot operations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dferran/hoard/internal/modules/prices"
	"github.com/dferran/hoard/internal/modules/prices/jobs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles price snapshot HTTP requests
type Handler struct {
	repo     *prices.Repository
	refresh  *prices.RefreshService
	holdings jobs.HoldingsSource
	log      zerolog.Logger
}

// NewHandler creates a new prices handler
func NewHandler(repo *prices.Repository, refresh *prices.RefreshService, holdings jobs.HoldingsSource, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		refresh:  refresh,
		holdings: holdings,
		log:      log.With().Str("handler", "prices").Logger(),
	}
}

// HandleGetLatest handles GET /api/prices/{code}/latest
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	snapshot, err := h.repo.LatestAtOrBefore(code, time.Now())
	if err != nil {
		h.log.Error().Err(err).Str("asset", code).Msg("Failed to get latest snapshot")
		http.Error(w, "Failed to retrieve snapshot", http.StatusInternalServerError)
		return
	}
	if snapshot == nil {
		http.Error(w, "No snapshot recorded for "+code, http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": snapshot,
	})
}

// HandleGetHistory handles GET /api/prices/{code}/history?limit=
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > 10000 {
			http.Error(w, "Invalid limit. Must be 1-10000", http.StatusBadRequest)
			return
		}
		limit = l
	}

	snapshots, err := h.repo.History(code, limit)
	if err != nil {
		h.log.Error().Err(err).Str("asset", code).Msg("Failed to get snapshot history")
		http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"asset_code": code,
			"snapshots":  snapshots,
			"count":      len(snapshots),
		},
	})
}

// RefreshRequest optionally narrows a manual refresh to specific codes
type RefreshRequest struct {
	AssetCodes []string `json:"asset_codes,omitempty"`
}

// HandleRefresh handles POST /api/prices/refresh - refresh now, on demand
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	codes := req.AssetCodes
	if len(codes) == 0 {
		held, err := h.holdings.HeldAssetCodes()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to list held assets")
			http.Error(w, "Failed to list held assets", http.StatusInternalServerError)
			return
		}
		codes = held
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := h.refresh.Refresh(ctx, codes)
	if err != nil {
		h.log.Error().Err(err).Msg("Refresh failed")
		http.Error(w, "Refresh failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
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

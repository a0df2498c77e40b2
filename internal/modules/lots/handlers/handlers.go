// Package handlers provides HTTP handlers for purchase lot CRUD.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dferran/hoard/internal/domain"
	"github.com/dferran/hoard/internal/modules/lots"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles lot HTTP requests
type Handler struct {
	repo *lots.Repository
	log  zerolog.Logger
}

// NewHandler creates a new lots handler
func NewHandler(repo *lots.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "lots").Logger(),
	}
}

// CreateLotRequest represents a lot recording request
type CreateLotRequest struct {
	OwnerID      string `json:"owner_id"`
	Family       string `json:"family"`
	AssetCode    string `json:"asset_code"`
	Quantity     string `json:"quantity"`
	Unit         string `json:"unit"`
	UnitPrice    string `json:"unit_price"`
	TotalPrice   string `json:"total_price"`
	Currency     string `json:"currency"`
	PurchaseDate string `json:"purchase_date"`
}

// UpdateLotRequest carries the bounded set of editable fields
type UpdateLotRequest struct {
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
	Currency   string `json:"currency"`
}

// HandleCreate handles POST /api/lots
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
		return
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		http.Error(w, "Invalid unit_price", http.StatusBadRequest)
		return
	}
	totalPrice, err := decimal.NewFromString(req.TotalPrice)
	if err != nil {
		http.Error(w, "Invalid total_price", http.StatusBadRequest)
		return
	}

	lot := &domain.PurchaseLot{
		OwnerID:      req.OwnerID,
		Family:       domain.AssetFamily(req.Family),
		AssetCode:    req.AssetCode,
		Quantity:     quantity,
		Unit:         req.Unit,
		UnitPrice:    unitPrice,
		TotalPrice:   totalPrice,
		Currency:     req.Currency,
		PurchaseDate: req.PurchaseDate,
	}

	if err := lots.Validate(lot); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.repo.Create(lot); err != nil {
		h.log.Error().Err(err).Msg("Failed to create lot")
		http.Error(w, "Failed to create lot", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": lot,
	})
}

// HandleList handles GET /api/lots?owner_id=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		http.Error(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	owned, err := h.repo.GetByOwner(ownerID)
	if err != nil {
		h.log.Error().Err(err).Str("owner", ownerID).Msg("Failed to list lots")
		http.Error(w, "Failed to retrieve lots", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"lots":  owned,
			"count": len(owned),
		},
	})
}

// HandleUpdate handles PUT /api/lots/{id} - bounded editable fields only
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("lot", id).Msg("Failed to load lot")
		http.Error(w, "Failed to load lot", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Lot not found", http.StatusNotFound)
		return
	}

	var req UpdateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		http.Error(w, "Invalid unit_price", http.StatusBadRequest)
		return
	}
	totalPrice, err := decimal.NewFromString(req.TotalPrice)
	if err != nil {
		http.Error(w, "Invalid total_price", http.StatusBadRequest)
		return
	}

	updated := *existing
	updated.UnitPrice = unitPrice
	updated.TotalPrice = totalPrice
	updated.Currency = req.Currency
	if err := lots.Validate(&updated); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdatePrices(id, unitPrice, totalPrice, req.Currency); err != nil {
		h.log.Error().Err(err).Str("lot", id).Msg("Failed to update lot")
		http.Error(w, "Failed to update lot", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": updated,
	})
}

// HandleDelete handles DELETE /api/lots/{id} - hard delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("lot", id).Msg("Failed to load lot")
		http.Error(w, "Failed to load lot", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Lot not found", http.StatusNotFound)
		return
	}

	if err := h.repo.Delete(id); err != nil {
		h.log.Error().Err(err).Str("lot", id).Msg("Failed to delete lot")
		http.Error(w, "Failed to delete lot", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

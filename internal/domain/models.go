// Package domain holds the core types shared across Hoard's modules.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the storage format for calendar dates (no time-of-day).
const DateFormat = "2006-01-02"

// TimestampFormat is the storage format for observation timestamps (UTC).
const TimestampFormat = "2006-01-02 15:04:05"

// AssetFamily classifies what kind of asset a purchase lot holds
type AssetFamily string

const (
	FamilyMetal  AssetFamily = "metal"
	FamilyCrypto AssetFamily = "crypto"
	FamilyEquity AssetFamily = "equity"
	FamilyNote   AssetFamily = "note"
)

// Valid reports whether f is one of the known asset families
func (f AssetFamily) Valid() bool {
	switch f {
	case FamilyMetal, FamilyCrypto, FamilyEquity, FamilyNote:
		return true
	}
	return false
}

// PurchaseLot represents one purchase event of one asset by one user.
// Lots are immutable after creation except for a bounded set of price
// fields; deletion is a hard delete.
type PurchaseLot struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Family       AssetFamily     `json:"family"`
	AssetCode    string          `json:"asset_code"` // e.g. "XAU", "BTC", "AAPL"
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Currency     string          `json:"currency"`
	PurchaseDate string          `json:"purchase_date"` // YYYY-MM-DD
	CreatedAt    time.Time       `json:"created_at"`
}

// PriceSnapshot is one observed price of one asset code at one instant.
// Snapshots describe market state, not any one user's holdings, and the
// snapshot store is append-only.
type PriceSnapshot struct {
	ID         int64           `json:"id,omitempty"`
	AssetCode  string          `json:"asset_code"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	ObservedAt time.Time       `json:"observed_at"`
}

// FxRate is one observed exchange rate from the pivot currency to a quote
// currency: 1 base-unit = Rate quote-units. Append-only; the most recent
// rate at or before a query time is authoritative, never interpolated.
type FxRate struct {
	ID         int64           `json:"id,omitempty"`
	Base       string          `json:"base"` // always the pivot currency
	Quote      string          `json:"quote"`
	Rate       decimal.Decimal `json:"rate"`
	ObservedAt time.Time       `json:"observed_at"`
}

// ValuationPoint is the engine's output: the portfolio's total value in the
// requested display currency at one checkpoint date. Computed fresh on each
// reconstruction, never persisted.
type ValuationPoint struct {
	Date  string          `json:"date"` // YYYY-MM-DD
	Value decimal.Decimal `json:"value"`
}

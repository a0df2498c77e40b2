package lots

import (
	"fmt"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/dferran/hoard/internal/modules/fx"
	"github.com/dferran/hoard/internal/modules/units"
	"github.com/shopspring/decimal"
)

// priceTolerance is how far total_price may drift from quantity x unit_price
// at creation time, to absorb rounding on user-entered values.
var priceTolerance = decimal.RequireFromString("0.01")

// Validate checks a lot at creation time. The valuation engine does not
// re-validate lots on read.
func Validate(lot *domain.PurchaseLot) error {
	if lot.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if !lot.Family.Valid() {
		return fmt.Errorf("unknown asset family %q", lot.Family)
	}
	if !fx.ValidCode(lot.AssetCode) {
		return fmt.Errorf("invalid asset code %q", lot.AssetCode)
	}
	if !fx.ValidCode(lot.Currency) {
		return fmt.Errorf("invalid currency %q", lot.Currency)
	}
	if !lot.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be positive, got %s", lot.Quantity)
	}
	if !units.ValidUnit(lot.Unit, lot.Family) {
		return fmt.Errorf("%w: %q for family %q", domain.ErrInvalidUnit, lot.Unit, lot.Family)
	}
	if !lot.UnitPrice.IsPositive() {
		return fmt.Errorf("unit_price must be positive, got %s", lot.UnitPrice)
	}
	if !lot.TotalPrice.IsPositive() {
		return fmt.Errorf("total_price must be positive, got %s", lot.TotalPrice)
	}
	if _, err := time.Parse(domain.DateFormat, lot.PurchaseDate); err != nil {
		return fmt.Errorf("invalid purchase_date %q, want YYYY-MM-DD", lot.PurchaseDate)
	}

	expected := lot.Quantity.Mul(lot.UnitPrice)
	if lot.TotalPrice.Sub(expected).Abs().GreaterThan(priceTolerance) {
		return fmt.Errorf("total_price %s does not match quantity x unit_price = %s",
			lot.TotalPrice, expected)
	}

	return nil
}

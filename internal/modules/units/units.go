// Package units normalizes heterogeneous physical quantities to one
// canonical unit per asset family.
package units

import (
	"fmt"

	"github.com/dferran/hoard/internal/domain"
	"github.com/shopspring/decimal"
)

// GramsPerTroyOunce is the exact conversion constant for precious metals.
var GramsPerTroyOunce = decimal.RequireFromString("31.1034768")

// CanonicalUnit returns the canonical unit name for an asset family.
// Metals are valued per gram; every other family trades in its native unit.
func CanonicalUnit(family domain.AssetFamily) string {
	if family == domain.FamilyMetal {
		return "g"
	}
	return ""
}

// ToCanonical converts a quantity to the canonical unit of its asset family.
// Unknown unit strings are a configuration error, not a runtime fallback.
func ToCanonical(quantity decimal.Decimal, unit string, family domain.AssetFamily) (decimal.Decimal, error) {
	switch family {
	case domain.FamilyMetal:
		switch unit {
		case "g", "gram", "grams":
			return quantity, nil
		case "oz", "ozt", "troy_ounce":
			return quantity.Mul(GramsPerTroyOunce), nil
		}
	case domain.FamilyCrypto, domain.FamilyEquity, domain.FamilyNote:
		// Native unit only. The empty string and the generic "unit" marker
		// both mean "as purchased".
		if unit == "" || unit == "unit" {
			return quantity, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %q for family %q", domain.ErrInvalidUnit, unit, family)
}

// ValidUnit reports whether unit is accepted for the given family.
func ValidUnit(unit string, family domain.AssetFamily) bool {
	_, err := ToCanonical(decimal.Zero, unit, family)
	return err == nil
}

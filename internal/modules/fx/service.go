// Package fx converts monetary amounts between tracked currency and
// commodity codes through a single pivot currency.
package fx

import (
	"fmt"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service resolves conversions through the pivot currency. All stored rates
// are "1 pivot-unit = rate quote-units" triples, so every conversion is a
// closed case analysis: identity, from-pivot, to-pivot, or a two-leg bridge.
type Service struct {
	repo  *Repository
	pivot string
	log   zerolog.Logger
}

// NewService creates a new conversion service for the given pivot currency
func NewService(repo *Repository, pivot string, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		pivot: pivot,
		log:   log.With().Str("service", "fx").Logger(),
	}
}

// Pivot returns the pivot currency code
func (s *Service) Pivot() string {
	return s.pivot
}

// Convert converts an amount from one code to another using the latest rate
// observations at or before asOf. A missing leg makes the conversion
// undefined (domain.ErrUndefinedConversion); there is no fallback rate map.
func (s *Service) Convert(amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error) {
	if !ValidCode(from) {
		return decimal.Zero, fmt.Errorf("invalid currency code %q", from)
	}
	if !ValidCode(to) {
		return decimal.Zero, fmt.Errorf("invalid currency code %q", to)
	}

	// Identity covers degenerate same-currency requests without any stored rate.
	if from == to {
		return amount, nil
	}

	if from == s.pivot {
		rate, err := s.rateFor(to, asOf)
		if err != nil {
			return decimal.Zero, err
		}
		return amount.Mul(rate), nil
	}

	if to == s.pivot {
		rate, err := s.rateFor(from, asOf)
		if err != nil {
			return decimal.Zero, err
		}
		// Stored rate is "1 pivot = rate from-units"; invert for pivot per from-unit.
		return amount.Div(rate), nil
	}

	// Bridge: from -> pivot -> to. Both legs must resolve.
	fromRate, err := s.rateFor(from, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := s.rateFor(to, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Div(fromRate).Mul(toRate), nil
}

// ConvertNow converts using the most recent known rates. This is the
// steady-state query used by live dashboards.
func (s *Service) ConvertNow(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	return s.Convert(amount, from, to, time.Now())
}

// rateFor resolves the pivot->quote rate at or before asOf
func (s *Service) rateFor(quote string, asOf time.Time) (decimal.Decimal, error) {
	rate, err := s.repo.LatestAtOrBefore(quote, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	if rate == nil || !rate.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s->%s as of %s",
			domain.ErrUndefinedConversion, s.pivot, quote, asOf.UTC().Format(domain.TimestampFormat))
	}
	return rate.Rate, nil
}

// ValidCode reports whether code looks like a currency or commodity code
// (2-6 uppercase letters or digits, e.g. "USD", "XAU", "BTC").
func ValidCode(code string) bool {
	if len(code) < 2 || len(code) > 6 {
		return false
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

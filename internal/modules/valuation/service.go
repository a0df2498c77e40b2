// Package valuation reconstructs what a portfolio was worth at arbitrary
// past points in time, given only discrete purchase events and discrete
// price snapshots.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/dferran/hoard/internal/modules/fx"
	"github.com/dferran/hoard/internal/modules/units"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxParallelCheckpoints bounds concurrent checkpoint computations.
const maxParallelCheckpoints = 8

// LotSource provides the owner's purchase history
type LotSource interface {
	GetByOwnerOnOrBefore(ownerID, date string) ([]domain.PurchaseLot, error)
	FirstPurchaseDate(ownerID string) (string, error)
}

// SnapshotSource resolves price observations
type SnapshotSource interface {
	LatestAtOrBefore(assetCode string, asOf time.Time) (*domain.PriceSnapshot, error)
}

// Converter converts amounts between currency codes at a point in time
type Converter interface {
	Convert(amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error)
}

// Service is the reconstruction engine. It is a pure function of its three
// inputs (lots, snapshots, rates) at call time; no state survives between
// calls, so concurrent calls need no coordination.
type Service struct {
	lots      LotSource
	snapshots SnapshotSource
	converter Converter
	log       zerolog.Logger
}

// NewService creates a new valuation service
func NewService(lots LotSource, snapshots SnapshotSource, converter Converter, log zerolog.Logger) *Service {
	return &Service{
		lots:      lots,
		snapshots: snapshots,
		converter: converter,
		log:       log.With().Str("service", "valuation").Logger(),
	}
}

// Reconstruct computes the portfolio's value at each checkpoint date, in
// ascending date order. Checkpoints before the owner's first purchase are
// omitted entirely, not emitted as zeros. Missing snapshots or rates degrade
// a single asset's contribution to zero; only malformed caller input aborts.
func (s *Service) Reconstruct(ctx context.Context, ownerID, displayCurrency string, checkpoints []string) ([]domain.ValuationPoint, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}
	if !fx.ValidCode(displayCurrency) {
		return nil, fmt.Errorf("invalid display currency %q", displayCurrency)
	}

	prev := ""
	for _, d := range checkpoints {
		if _, err := time.Parse(domain.DateFormat, d); err != nil {
			return nil, fmt.Errorf("invalid checkpoint date %q, want YYYY-MM-DD", d)
		}
		if prev != "" && d < prev {
			return nil, fmt.Errorf("checkpoint dates must be ascending, got %s after %s", d, prev)
		}
		prev = d
	}

	firstDate, err := s.lots.FirstPurchaseDate(ownerID)
	if err != nil {
		return nil, err
	}
	if firstDate == "" {
		// Owner has no purchase history at all.
		return []domain.ValuationPoint{}, nil
	}

	// ISO dates compare lexically, so the pre-history cut is a string compare.
	var dates []string
	for _, d := range checkpoints {
		if d >= firstDate {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return []domain.ValuationPoint{}, nil
	}

	// Each checkpoint is independent; compute them concurrently and
	// reassemble in input order.
	type result struct {
		value   decimal.Decimal
		covered bool
	}
	results := make([]result, len(dates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCheckpoints)
	for i, d := range dates {
		i, d := i, d
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, covered, err := s.valueAt(ownerID, displayCurrency, d)
			if err != nil {
				return err
			}
			results[i] = result{value: value, covered: covered}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]domain.ValuationPoint, 0, len(dates))
	for i, d := range dates {
		if !results[i].covered {
			continue
		}
		points = append(points, domain.ValuationPoint{Date: d, Value: results[i].value})
	}
	return points, nil
}

// valueAt computes the portfolio's value on one checkpoint date. covered is
// false when no held asset had any snapshot at or before the date; such
// checkpoints carry no market information and are omitted from the output.
func (s *Service) valueAt(ownerID, displayCurrency, date string) (decimal.Decimal, bool, error) {
	// Lots purchased after the checkpoint contribute nothing: a lot cannot
	// retroactively appear in the past.
	owned, err := s.lots.GetByOwnerOnOrBefore(ownerID, date)
	if err != nil {
		return decimal.Zero, false, err
	}
	if len(owned) == 0 {
		return decimal.Zero, false, nil
	}

	// Canonical quantity held per asset code.
	holdings := make(map[string]decimal.Decimal)
	for _, lot := range owned {
		qty, err := units.ToCanonical(lot.Quantity, lot.Unit, lot.Family)
		if err != nil {
			// A misconfigured unit is fatal to this computation.
			return decimal.Zero, false, fmt.Errorf("lot %s: %w", lot.ID, err)
		}
		holdings[lot.AssetCode] = holdings[lot.AssetCode].Add(qty)
	}

	asOf := endOfDay(date)

	// Price each holding in its snapshot's native currency. No observation
	// at or before the checkpoint means the market didn't exist for us yet:
	// that asset contributes zero, the checkpoint still values the rest.
	totals := make(map[string]decimal.Decimal)
	covered := false
	for code, qty := range holdings {
		snapshot, err := s.snapshots.LatestAtOrBefore(code, asOf)
		if err != nil {
			return decimal.Zero, false, err
		}
		if snapshot == nil {
			s.log.Debug().Str("asset", code).Str("date", date).Msg("No snapshot coverage")
			continue
		}
		covered = true
		totals[snapshot.Currency] = totals[snapshot.Currency].Add(qty.Mul(snapshot.Price))
	}

	// Convert each native-currency total with period-appropriate rates.
	// Reconstructing history must not use present-day FX rates.
	value := decimal.Zero
	for currency, total := range totals {
		converted, err := s.converter.Convert(total, currency, displayCurrency, asOf)
		if err != nil {
			if errors.Is(err, domain.ErrUndefinedConversion) {
				s.log.Debug().Str("currency", currency).Str("date", date).
					Msg("No conversion coverage, contribution dropped")
				continue
			}
			return decimal.Zero, false, err
		}
		value = value.Add(converted)
	}

	return value, covered, nil
}

// endOfDay returns the last instant of a calendar date, so snapshots and
// rates observed any time that day qualify for the checkpoint.
func endOfDay(date string) time.Time {
	t, _ := time.Parse(domain.DateFormat, date)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

// WeeklyCheckpoints returns one date per calendar week from start through
// end inclusive, plus end itself if it does not fall on the weekly grid.
func WeeklyCheckpoints(start, end string) ([]string, error) {
	from, err := time.Parse(domain.DateFormat, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(domain.DateFormat, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 7) {
		dates = append(dates, d.Format(domain.DateFormat))
	}
	if len(dates) > 0 && dates[len(dates)-1] != end {
		dates = append(dates, end)
	}
	return dates, nil
}

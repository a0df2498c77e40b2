package prices

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// QuoteProvider is the external market-data collaborator. Any entry may be
// missing from the returned map and values may be non-finite; both must be
// tolerated.
type QuoteProvider interface {
	CurrentPrices(ctx context.Context, assetCodes []string, currency string) (map[string]float64, error)
}

// RefreshResult reports which asset codes got a new snapshot and which were
// skipped. A partial success is the expected common case, not an error.
type RefreshResult struct {
	Inserted []string `json:"inserted"`
	Skipped  []string `json:"skipped"`
}

// RefreshService appends fresh snapshots from the quote provider. It is the
// only writer of the price_snapshots table.
type RefreshService struct {
	repo     *Repository
	provider QuoteProvider
	currency string // currency snapshots are quoted in
	log      zerolog.Logger
}

// NewRefreshService creates a new snapshot refresh service
func NewRefreshService(repo *Repository, provider QuoteProvider, currency string, log zerolog.Logger) *RefreshService {
	return &RefreshService{
		repo:     repo,
		provider: provider,
		currency: currency,
		log:      log.With().Str("service", "price_refresh").Logger(),
	}
}

// Refresh fetches current prices for the given asset codes and appends one
// snapshot per valid numeric price. Codes without a provider mapping, or
// with a non-finite or non-positive price, land in Skipped. A full provider
// outage yields zero insertions and everything skipped, not an error, so a
// scheduled refresh never hard-fails on a transient outage.
func (s *RefreshService) Refresh(ctx context.Context, assetCodes []string) (RefreshResult, error) {
	result := RefreshResult{
		Inserted: []string{},
		Skipped:  []string{},
	}
	if len(assetCodes) == 0 {
		return result, nil
	}

	quotes, err := s.provider.CurrentPrices(ctx, assetCodes, s.currency)
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			s.log.Warn().Err(err).Int("requested", len(assetCodes)).
				Msg("Provider unavailable, skipping full batch")
			result.Skipped = append(result.Skipped, assetCodes...)
			sort.Strings(result.Skipped)
			return result, nil
		}
		return result, err
	}

	observedAt := time.Now().UTC()

	for _, code := range assetCodes {
		if err := ctx.Err(); err != nil {
			// Treat cancellation mid-batch like an outage for the remainder.
			result.Skipped = append(result.Skipped, code)
			continue
		}

		price, ok := quotes[code]
		if !ok {
			s.log.Debug().Str("asset", code).Msg("No provider mapping")
			result.Skipped = append(result.Skipped, code)
			continue
		}
		if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
			s.log.Warn().Str("asset", code).Float64("price", price).Msg("Skipping invalid price")
			result.Skipped = append(result.Skipped, code)
			continue
		}

		snapshot := &domain.PriceSnapshot{
			AssetCode:  code,
			Price:      decimal.NewFromFloat(price),
			Currency:   s.currency,
			ObservedAt: observedAt,
		}
		if err := s.repo.Insert(snapshot); err != nil {
			// One asset's failure must not cancel the batch.
			s.log.Error().Err(err).Str("asset", code).Msg("Failed to insert snapshot")
			result.Skipped = append(result.Skipped, code)
			continue
		}
		result.Inserted = append(result.Inserted, code)
	}

	sort.Strings(result.Inserted)
	sort.Strings(result.Skipped)

	s.log.Info().
		Int("inserted", len(result.Inserted)).
		Int("skipped", len(result.Skipped)).
		Msg("Snapshot refresh completed")

	return result, nil
}

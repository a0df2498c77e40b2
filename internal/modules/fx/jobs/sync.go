// Package jobs contains the scheduled FX rate synchronization.
package jobs

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/dferran/hoard/internal/modules/fx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RateProvider fetches the quote->rate map for a base currency
type RateProvider interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

// SyncJob periodically appends pivot->quote rate observations. It is the
// only writer of the fx_rates table.
type SyncJob struct {
	repo     *fx.Repository
	provider RateProvider
	pivot    string
	quotes   []string
	log      zerolog.Logger
}

// NewSyncJob creates a new FX sync job
func NewSyncJob(repo *fx.Repository, provider RateProvider, pivot string, quotes []string, log zerolog.Logger) *SyncJob {
	return &SyncJob{
		repo:     repo,
		provider: provider,
		pivot:    pivot,
		quotes:   quotes,
		log:      log.With().Str("job", "fx_sync").Logger(),
	}
}

// Name returns the job name
func (j *SyncJob) Name() string {
	return "fx_sync"
}

// Run fetches current rates for every configured quote currency and appends
// one observation per valid rate. Per-currency gaps are logged and skipped;
// only a full provider outage fails the run.
func (j *SyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rates, err := j.provider.Rates(ctx, j.pivot)
	if err != nil {
		return fmt.Errorf("failed to fetch rates for %s: %w", j.pivot, err)
	}

	observedAt := time.Now().UTC()
	synced := 0

	for _, quote := range j.quotes {
		value, ok := rates[quote]
		if !ok {
			j.log.Warn().Str("quote", quote).Msg("No rate in provider response")
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
			j.log.Warn().Str("quote", quote).Float64("rate", value).Msg("Skipping invalid rate")
			continue
		}

		rate := &domain.FxRate{
			Base:       j.pivot,
			Quote:      quote,
			Rate:       decimal.NewFromFloat(value),
			ObservedAt: observedAt,
		}
		if err := j.repo.Insert(rate); err != nil {
			j.log.Error().Err(err).Str("quote", quote).Msg("Failed to insert rate")
			continue
		}
		synced++
	}

	j.log.Info().
		Str("base", j.pivot).
		Int("synced", synced).
		Int("requested", len(j.quotes)).
		Msg("FX sync completed")

	return nil
}

// Package jobs contains the scheduled price snapshot refresh.
package jobs

import (
	"context"
	"time"

	"github.com/dferran/hoard/internal/modules/prices"
	"github.com/rs/zerolog"
)

// HoldingsSource lists the asset codes currently held by any user
type HoldingsSource interface {
	HeldAssetCodes() ([]string, error)
}

// RefreshJob runs the snapshot refresh for every currently held asset
type RefreshJob struct {
	service  *prices.RefreshService
	holdings HoldingsSource
	log      zerolog.Logger
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(service *prices.RefreshService, holdings HoldingsSource, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service:  service,
		holdings: holdings,
		log:      log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "price_refresh"
}

// Run refreshes snapshots for every held asset code
func (j *RefreshJob) Run() error {
	codes, err := j.holdings.HeldAssetCodes()
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		j.log.Debug().Msg("No held assets, nothing to refresh")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := j.service.Refresh(ctx, codes)
	if err != nil {
		return err
	}

	j.log.Info().
		Strs("inserted", result.Inserted).
		Strs("skipped", result.Skipped).
		Msg("Scheduled refresh finished")

	return nil
}

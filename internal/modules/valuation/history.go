package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// PerformanceSummary describes the reconstructed value series
type PerformanceSummary struct {
	MeanWeeklyReturn   float64 `json:"mean_weekly_return"`
	WeeklyReturnStddev float64 `json:"weekly_return_stddev"`
	MinValue           string  `json:"min_value"`
	MaxValue           string  `json:"max_value"`
}

// HistoryResult is a weekly valuation series with summary statistics
type HistoryResult struct {
	Points  []domain.ValuationPoint `json:"points"`
	Summary *PerformanceSummary     `json:"summary,omitempty"`
}

// History reconstructs the owner's portfolio value at weekly checkpoints
// from the first purchase through today
func (s *Service) History(ctx context.Context, ownerID, displayCurrency string) (*HistoryResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	firstDate, err := s.lots.FirstPurchaseDate(ownerID)
	if err != nil {
		return nil, err
	}
	if firstDate == "" {
		return &HistoryResult{Points: []domain.ValuationPoint{}}, nil
	}

	checkpoints, err := WeeklyCheckpoints(firstDate, time.Now().UTC().Format(domain.DateFormat))
	if err != nil {
		return nil, err
	}

	points, err := s.Reconstruct(ctx, ownerID, displayCurrency, checkpoints)
	if err != nil {
		return nil, err
	}

	return &HistoryResult{
		Points:  points,
		Summary: summarize(points),
	}, nil
}

// summarize computes summary statistics over the value series. Returns nil
// when the series is too short to say anything.
func summarize(points []domain.ValuationPoint) *PerformanceSummary {
	if len(points) < 2 {
		return nil
	}

	min := points[0].Value
	max := points[0].Value
	var returns []float64
	for i := 1; i < len(points); i++ {
		if points[i].Value.LessThan(min) {
			min = points[i].Value
		}
		if points[i].Value.GreaterThan(max) {
			max = points[i].Value
		}
		// Zero-valued checkpoints (no market coverage yet) produce no
		// meaningful return observation.
		if points[i-1].Value.IsZero() {
			continue
		}
		prev, _ := points[i-1].Value.Float64()
		cur, _ := points[i].Value.Float64()
		returns = append(returns, cur/prev-1)
	}

	summary := &PerformanceSummary{
		MinValue: min.String(),
		MaxValue: max.String(),
	}
	if len(returns) > 0 {
		summary.MeanWeeklyReturn = stat.Mean(returns, nil)
	}
	if len(returns) > 1 {
		summary.WeeklyReturnStddev = stat.StdDev(returns, nil)
	}
	return summary
}

package valuation

import (
	"testing"

	"github.com/dferran/hoard/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(date, value string) domain.ValuationPoint {
	return domain.ValuationPoint{Date: date, Value: decimal.RequireFromString(value)}
}

func TestSummarize(t *testing.T) {
	points := []domain.ValuationPoint{
		point("2024-01-01", "1000"),
		point("2024-01-08", "1100"),
		point("2024-01-15", "990"),
	}

	summary := summarize(points)
	require.NotNil(t, summary)

	// Returns: +10% then -10%.
	assert.InDelta(t, 0.0, summary.MeanWeeklyReturn, 1e-9)
	assert.InDelta(t, 0.1414213562, summary.WeeklyReturnStddev, 1e-9)
	assert.Equal(t, "990", summary.MinValue)
	assert.Equal(t, "1100", summary.MaxValue)
}

func TestSummarize_TooShort(t *testing.T) {
	assert.Nil(t, summarize(nil))
	assert.Nil(t, summarize([]domain.ValuationPoint{point("2024-01-01", "100")}))
}

func TestSummarize_SkipsZeroDenominators(t *testing.T) {
	points := []domain.ValuationPoint{
		point("2024-01-01", "0"),
		point("2024-01-08", "500"),
		point("2024-01-15", "550"),
	}

	summary := summarize(points)
	require.NotNil(t, summary)

	// Only the 500->550 transition yields a return observation.
	assert.InDelta(t, 0.1, summary.MeanWeeklyReturn, 1e-9)
	assert.Equal(t, "0", summary.MinValue)
	assert.Equal(t, "550", summary.MaxValue)
}

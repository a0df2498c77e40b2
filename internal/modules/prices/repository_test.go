package prices

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSchema(db))

	return NewRepository(db, zerolog.Nop())
}

func mustSnapshot(t *testing.T, repo *Repository, code, price string, observedAt time.Time) *domain.PriceSnapshot {
	t.Helper()
	s := &domain.PriceSnapshot{
		AssetCode:  code,
		Price:      decimal.RequireFromString(price),
		Currency:   "EUR",
		ObservedAt: observedAt,
	}
	require.NoError(t, repo.Insert(s))
	return s
}

func TestLatestAtOrBefore(t *testing.T) {
	repo := setupTestRepo(t)

	day1 := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	mustSnapshot(t, repo, "XAU", "55", day1)
	mustSnapshot(t, repo, "XAU", "57", day2)
	mustSnapshot(t, repo, "XAG", "0.70", day1)

	// Between the two observations the older one resolves.
	got, err := repo.LatestAtOrBefore("XAU", day1.Add(24*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("55")))

	// Exactly at an observation time, that observation resolves.
	got, err = repo.LatestAtOrBefore("XAU", day2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("57")))

	// Other assets never bleed in.
	got, err = repo.LatestAtOrBefore("XAG", day2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("0.70")))
}

func TestLatestAtOrBefore_Absent(t *testing.T) {
	repo := setupTestRepo(t)

	// Nothing recorded at all.
	got, err := repo.LatestAtOrBefore("XAU", time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)

	// Only later observations exist.
	mustSnapshot(t, repo, "XAU", "55", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))
	got, err = repo.LatestAtOrBefore("XAU", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMonotonicResolution(t *testing.T) {
	repo := setupTestRepo(t)

	asOf := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mustSnapshot(t, repo, "BTC", "40000", asOf.Add(-time.Hour))

	before, err := repo.LatestAtOrBefore("BTC", asOf)
	require.NoError(t, err)
	require.NotNil(t, before)

	// Inserting a snapshot with timestamp > asOf never changes the result.
	mustSnapshot(t, repo, "BTC", "45000", asOf.Add(time.Hour))

	after, err := repo.LatestAtOrBefore("BTC", asOf)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, before.ID, after.ID)
	assert.True(t, before.Price.Equal(after.Price))
}

func TestSameDayObservations(t *testing.T) {
	repo := setupTestRepo(t)

	morning := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC)
	mustSnapshot(t, repo, "XAU", "54", morning)
	mustSnapshot(t, repo, "XAU", "56", evening)

	// Multiple snapshots on the same calendar day: timestamp order decides.
	got, err := repo.LatestAtOrBefore("XAU", evening.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("56")))
}

func TestHistory(t *testing.T) {
	repo := setupTestRepo(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		mustSnapshot(t, repo, "AAPL", decimal.NewFromInt(int64(180+i)).String(), base.AddDate(0, 0, i))
	}

	history, err := repo.History("AAPL", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Price.Equal(decimal.RequireFromString("184")), "newest first")
	assert.True(t, history[0].ObservedAt.After(history[1].ObservedAt))
}

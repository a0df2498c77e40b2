package fx

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestRepo(t *testing.T) (*Repository, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSchema(db))

	return NewRepository(db, zerolog.Nop()), db
}

func mustInsert(t *testing.T, repo *Repository, quote, rate string, observedAt time.Time) {
	t.Helper()
	require.NoError(t, repo.Insert(&domain.FxRate{
		Base:       "EUR",
		Quote:      quote,
		Rate:       decimal.RequireFromString(rate),
		ObservedAt: observedAt,
	}))
}

func TestConvert_Identity(t *testing.T) {
	repo, _ := setupTestRepo(t)
	service := NewService(repo, "EUR", zerolog.Nop())

	// No stored rates at all: identity must still hold for any code.
	for _, code := range []string{"EUR", "USD", "XAU", "BTC"} {
		amount := decimal.RequireFromString("123.45")
		got, err := service.Convert(amount, code, code, time.Now())
		require.NoError(t, err)
		assert.True(t, got.Equal(amount), "identity failed for %s", code)
	}
}

func TestConvert_FromPivot(t *testing.T) {
	repo, _ := setupTestRepo(t)
	service := NewService(repo, "EUR", zerolog.Nop())

	asOf := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	mustInsert(t, repo, "USD", "1.08", asOf.Add(-time.Hour))

	got, err := service.Convert(decimal.RequireFromString("100"), "EUR", "USD", asOf)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("108")), "got %s", got)
}

func TestConvert_ToPivot(t *testing.T) {
	repo, _ := setupTestRepo(t)
	service := NewService(repo, "EUR", zerolog.Nop())

	asOf := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	mustInsert(t, repo, "USD", "1.25", asOf.Add(-time.Hour))

	got, err := service.Convert(decimal.RequireFromString("125"), "USD", "EUR", asOf)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("100")), "got %s", got)
}

func TestConvert_Bridge(t *testing.T) {
	repo, _ := setupTestRepo(t)
	service := NewService(repo, "EUR", zerolog.Nop())

	asOf := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	mustInsert(t, repo, "USD", "1.25", asOf.Add(-time.Hour))
	mustInsert(t, repo, "GBP", "0.875", asOf.Add(-time.Hour))

	// 125 USD -> 100 EUR -> 87.5 GBP
	got, err := service.Convert(decimal.RequireFromString("125"), "USD", "GBP", asOf)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("87.5")), "got %s", got)
}

func TestConvert_RoundTripStability(t *testing.T) {
	repo, _ := setupTestRepo(t)
	service := NewService(repo, "EUR", zerolog.Nop())

	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mustInsert(t, repo, "USD", "1.0843", asOf.Add(-time.Minute))

	amount := decimal.RequireFromString("1234.56")
	inPivot, err := service.Convert(amount, "USD", "EUR", asOf)
	require.NoError(t, err)
	back, err := service.Convert(inPivot, "EUR", "USD", asOf)
	require.NoError(t, err)

	diff := back.Sub(amount).Abs()
	assert.True(t, diff.LessThan(decimal.RequireFromString("0.0000001")),
		"round trip drifted by %s", diff)
}

func TestConvert_PivotTransitivity(t *testing.T) {
	repo, _ := setupTestRepo(t)
	service := NewService(repo, "EUR", zerolog.Nop())

	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mustInsert(t, repo, "USD", "1.0843", asOf.Add(-time.Minute))
	mustInsert(t, repo, "CHF", "0.9612", asOf.Add(-time.Minute))

	amount := decimal.RequireFromString("500")

	direct, err := service.Convert(amount, "USD", "CHF", asOf)
	require.NoError(t, err)

	viaPivot, err := service.Convert(amount, "USD", "EUR", asOf)
	require.NoError(t, err)
	viaPivot, err = service.Convert(viaPivot, "EUR", "CHF", asOf)
	require.NoError(t, err)

	diff := direct.Sub(viaPivot).Abs()
	assert.True(t, diff.LessThan(decimal.RequireFromString("0.0000001")),
		"bridge differs from explicit two-step by %s", diff)
}

func TestConvert_UsesLatestRateAtOrBefore(t *testing.T) {
	repo, _ := setupTestRepo(t)
	service := NewService(repo, "EUR", zerolog.Nop())

	jan := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	mustInsert(t, repo, "USD", "1.10", jan)
	mustInsert(t, repo, "USD", "1.20", feb)

	// A query between the two observations resolves to the January rate;
	// the later observation must not leak backwards.
	got, err := service.Convert(decimal.RequireFromString("100"), "EUR", "USD",
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("110")), "got %s", got)

	// At or after the February observation, the newer rate wins.
	got, err = service.Convert(decimal.RequireFromString("100"), "EUR", "USD", feb)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("120")), "got %s", got)
}

func TestConvert_UndefinedConversion(t *testing.T) {
	repo, _ := setupTestRepo(t)
	service := NewService(repo, "EUR", zerolog.Nop())

	asOf := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	mustInsert(t, repo, "USD", "1.08", asOf.Add(time.Hour)) // only a later observation exists

	// No rate at or before asOf.
	_, err := service.Convert(decimal.RequireFromString("1"), "EUR", "USD", asOf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUndefinedConversion))

	// Bridge with one missing leg is undefined as a whole.
	mustInsert(t, repo, "GBP", "0.875", asOf.Add(-time.Hour))
	_, err = service.Convert(decimal.RequireFromString("1"), "GBP", "USD", asOf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUndefinedConversion))
}

func TestConvert_RejectsMalformedCodes(t *testing.T) {
	repo, _ := setupTestRepo(t)
	service := NewService(repo, "EUR", zerolog.Nop())

	for _, code := range []string{"", "e", "usd", "TOOLONGCODE", "U$D"} {
		_, err := service.Convert(decimal.RequireFromString("1"), code, "EUR", time.Now())
		assert.Error(t, err, "code %q should be rejected", code)
		assert.False(t, errors.Is(err, domain.ErrUndefinedConversion),
			"malformed code %q is a caller error, not a missing rate", code)
	}
}

func TestRepository_AppendOnlyResolution(t *testing.T) {
	repo, _ := setupTestRepo(t)

	when := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	mustInsert(t, repo, "USD", "1.07", when)

	before, err := repo.LatestAtOrBefore("USD", when.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, before)

	// Appending a newer observation never changes an earlier resolution.
	mustInsert(t, repo, "USD", "1.09", when.Add(time.Hour))

	after, err := repo.LatestAtOrBefore("USD", when.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.True(t, before.Rate.Equal(after.Rate))
	assert.Equal(t, before.ID, after.ID)
}

func TestRepository_LatestAtOrBefore_Absent(t *testing.T) {
	repo, _ := setupTestRepo(t)

	rate, err := repo.LatestAtOrBefore("USD", time.Now())
	require.NoError(t, err)
	assert.Nil(t, rate)
}

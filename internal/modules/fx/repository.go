package fx

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository handles exchange rate persistence. The table is an append-only
// time series: Insert is the only write path.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new fx rate repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "fx").Logger(),
	}
}

// Insert appends one rate observation
func (r *Repository) Insert(rate *domain.FxRate) error {
	query := `
		INSERT INTO fx_rates (base, quote, rate, observed_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Exec(
		query,
		rate.Base,
		rate.Quote,
		rate.Rate.String(),
		rate.ObservedAt.UTC().Format(domain.TimestampFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fx rate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	rate.ID = id

	return nil
}

// LatestAtOrBefore returns the most recent rate observation for a quote
// currency not exceeding asOf, or (nil, nil) if none has been recorded.
// Rates are never interpolated between observations.
func (r *Repository) LatestAtOrBefore(quote string, asOf time.Time) (*domain.FxRate, error) {
	query := `
		SELECT id, base, quote, rate, observed_at
		FROM fx_rates
		WHERE quote = ? AND observed_at <= ?
		ORDER BY observed_at DESC, id DESC
		LIMIT 1
	`

	var rate domain.FxRate
	var rateStr, observedAt string

	err := r.db.QueryRow(query, quote, asOf.UTC().Format(domain.TimestampFormat)).Scan(
		&rate.ID,
		&rate.Base,
		&rate.Quote,
		&rateStr,
		&observedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query fx rate: %w", err)
	}

	rate.Rate, err = decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored rate %q: %w", rateStr, err)
	}
	rate.ObservedAt, err = time.Parse(domain.TimestampFormat, observedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored timestamp %q: %w", observedAt, err)
	}

	return &rate, nil
}

// Quotes returns the distinct quote currencies with at least one observation
func (r *Repository) Quotes() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT quote FROM fx_rates ORDER BY quote")
	if err != nil {
		return nil, fmt.Errorf("failed to query quote currencies: %w", err)
	}
	defer rows.Close()

	var quotes []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan quote currency: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quote currencies: %w", err)
	}

	return quotes, nil
}

// Package prices stores periodic price observations for assets that have no
// continuous market feed.
package prices

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository handles price snapshot persistence. Append-only: Insert is the
// only write path, refreshes never mutate or delete existing rows.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "prices").Logger(),
	}
}

// Insert appends one price observation
func (r *Repository) Insert(snapshot *domain.PriceSnapshot) error {
	query := `
		INSERT INTO price_snapshots (asset_code, price, currency, observed_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Exec(
		query,
		snapshot.AssetCode,
		snapshot.Price.String(),
		snapshot.Currency,
		snapshot.ObservedAt.UTC().Format(domain.TimestampFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert price snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	snapshot.ID = id

	return nil
}

// LatestAtOrBefore returns the observation with the greatest timestamp not
// exceeding asOf for an asset code, or (nil, nil) if none has ever been
// recorded at or before that time.
func (r *Repository) LatestAtOrBefore(assetCode string, asOf time.Time) (*domain.PriceSnapshot, error) {
	query := `
		SELECT id, asset_code, price, currency, observed_at
		FROM price_snapshots
		WHERE asset_code = ? AND observed_at <= ?
		ORDER BY observed_at DESC, id DESC
		LIMIT 1
	`

	row := r.db.QueryRow(query, assetCode, asOf.UTC().Format(domain.TimestampFormat))
	return r.scanSnapshot(row)
}

// History returns the most recent observations for an asset code, newest first
func (r *Repository) History(assetCode string, limit int) ([]domain.PriceSnapshot, error) {
	query := `
		SELECT id, asset_code, price, currency, observed_at
		FROM price_snapshots
		WHERE asset_code = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, assetCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.PriceSnapshot
	for rows.Next() {
		var s domain.PriceSnapshot
		var priceStr, observedAt string

		if err := rows.Scan(&s.ID, &s.AssetCode, &priceStr, &s.Currency, &observedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Price, err = decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored price %q: %w", priceStr, err)
		}
		s.ObservedAt, err = time.Parse(domain.TimestampFormat, observedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored timestamp %q: %w", observedAt, err)
		}

		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

func (r *Repository) scanSnapshot(row *sql.Row) (*domain.PriceSnapshot, error) {
	var s domain.PriceSnapshot
	var priceStr, observedAt string

	err := row.Scan(&s.ID, &s.AssetCode, &priceStr, &s.Currency, &observedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	s.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored price %q: %w", priceStr, err)
	}
	s.ObservedAt, err = time.Parse(domain.TimestampFormat, observedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored timestamp %q: %w", observedAt, err)
	}

	return &s, nil
}

// Package lots stores purchase lots, the user-recorded acquisition events
// the valuation engine reconstructs history from.
package lots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository handles purchase lot persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new lot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "lots").Logger(),
	}
}

const lotColumns = "id, owner_id, family, asset_code, quantity, unit, unit_price, total_price, currency, purchase_date, created_at"

// Create inserts a new lot, assigning its ID and creation timestamp
func (r *Repository) Create(lot *domain.PurchaseLot) error {
	if lot.ID == "" {
		lot.ID = uuid.NewString()
	}
	lot.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(
		query,
		lot.ID,
		lot.OwnerID,
		string(lot.Family),
		lot.AssetCode,
		lot.Quantity.String(),
		lot.Unit,
		lot.UnitPrice.String(),
		lot.TotalPrice.String(),
		lot.Currency,
		lot.PurchaseDate,
		lot.CreatedAt.Format(domain.TimestampFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lot: %w", err)
	}

	return nil
}

// GetByID retrieves a lot by ID, or (nil, nil) if it does not exist
func (r *Repository) GetByID(id string) (*domain.PurchaseLot, error) {
	row := r.db.QueryRow("SELECT "+lotColumns+" FROM lots WHERE id = ?", id)

	lot, err := scanLot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}
	return lot, nil
}

// GetByOwner retrieves all lots for an owner, oldest purchase first
func (r *Repository) GetByOwner(ownerID string) ([]domain.PurchaseLot, error) {
	return r.queryLots(
		"SELECT "+lotColumns+" FROM lots WHERE owner_id = ? ORDER BY purchase_date ASC, created_at ASC",
		ownerID,
	)
}

// GetByOwnerOnOrBefore retrieves lots purchased on or before a calendar date
func (r *Repository) GetByOwnerOnOrBefore(ownerID, date string) ([]domain.PurchaseLot, error) {
	return r.queryLots(
		"SELECT "+lotColumns+" FROM lots WHERE owner_id = ? AND purchase_date <= ? ORDER BY purchase_date ASC, created_at ASC",
		ownerID, date,
	)
}

// UpdatePrices updates the bounded set of editable fields on a lot
func (r *Repository) UpdatePrices(id string, unitPrice, totalPrice decimal.Decimal, currency string) error {
	result, err := r.db.Exec(
		"UPDATE lots SET unit_price = ?, total_price = ?, currency = ? WHERE id = ?",
		unitPrice.String(), totalPrice.String(), currency, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update lot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lot %s not found", id)
	}

	return nil
}

// Delete removes a lot permanently
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM lots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete lot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lot %s not found", id)
	}

	return nil
}

// HeldAssetCodes returns the distinct asset codes currently held by any user
func (r *Repository) HeldAssetCodes() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT asset_code FROM lots ORDER BY asset_code")
	if err != nil {
		return nil, fmt.Errorf("failed to query held assets: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan asset code: %w", err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset codes: %w", err)
	}

	return codes, nil
}

// FirstPurchaseDate returns the owner's earliest purchase date, or "" if the
// owner has no lots
func (r *Repository) FirstPurchaseDate(ownerID string) (string, error) {
	var date sql.NullString
	err := r.db.QueryRow("SELECT MIN(purchase_date) FROM lots WHERE owner_id = ?", ownerID).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query first purchase date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

func (r *Repository) queryLots(query string, args ...interface{}) ([]domain.PurchaseLot, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	var lots []domain.PurchaseLot
	for rows.Next() {
		lot, err := scanLot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		lots = append(lots, *lot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}

	return lots, nil
}

func scanLot(scan func(...interface{}) error) (*domain.PurchaseLot, error) {
	var lot domain.PurchaseLot
	var family, quantity, unitPrice, totalPrice, createdAt string

	err := scan(
		&lot.ID,
		&lot.OwnerID,
		&family,
		&lot.AssetCode,
		&quantity,
		&lot.Unit,
		&unitPrice,
		&totalPrice,
		&lot.Currency,
		&lot.PurchaseDate,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	lot.Family = domain.AssetFamily(family)
	if lot.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, fmt.Errorf("failed to parse stored quantity %q: %w", quantity, err)
	}
	if lot.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return nil, fmt.Errorf("failed to parse stored unit price %q: %w", unitPrice, err)
	}
	if lot.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
		return nil, fmt.Errorf("failed to parse stored total price %q: %w", totalPrice, err)
	}
	if lot.CreatedAt, err = time.Parse(domain.TimestampFormat, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse stored timestamp %q: %w", createdAt, err)
	}

	return &lot, nil
}

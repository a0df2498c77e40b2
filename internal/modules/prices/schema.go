package prices

import "database/sql"

// PriceSnapshotsSchema defines the append-only price observation table.
// A refresh only ever inserts rows; multiple observations per asset per
// calendar day are expected, only timestamp order matters.
const PriceSnapshotsSchema = `
CREATE TABLE IF NOT EXISTS price_snapshots (
    id INTEGER PRIMARY KEY,
    asset_code TEXT NOT NULL,
    price TEXT NOT NULL,
    currency TEXT NOT NULL,
    observed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_price_snapshots_asset_observed ON price_snapshots(asset_code, observed_at);
`

// InitSchema ensures the price_snapshots table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(PriceSnapshotsSchema)
	return err
}

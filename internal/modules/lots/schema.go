package lots

import "database/sql"

// LotsSchema defines the purchase lot table. Lots are immutable after
// creation except for the bounded editable price fields; deletes are hard.
const LotsSchema = `
CREATE TABLE IF NOT EXISTS lots (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    family TEXT NOT NULL,
    asset_code TEXT NOT NULL,
    quantity TEXT NOT NULL,
    unit TEXT NOT NULL,
    unit_price TEXT NOT NULL,
    total_price TEXT NOT NULL,
    currency TEXT NOT NULL,
    purchase_date TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lots_owner_date ON lots(owner_id, purchase_date);
CREATE INDEX IF NOT EXISTS idx_lots_asset ON lots(asset_code);
`

// InitSchema ensures the lots table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(LotsSchema)
	return err
}

package fx

import "database/sql"

// FxRatesSchema defines the append-only exchange rate observations table.
// Rates are stored as "1 base-unit = rate quote-units" where base is always
// the configured pivot currency. Rows are never updated or deleted.
const FxRatesSchema = `
CREATE TABLE IF NOT EXISTS fx_rates (
    id INTEGER PRIMARY KEY,
    base TEXT NOT NULL,
    quote TEXT NOT NULL,
    rate TEXT NOT NULL,
    observed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fx_rates_quote_observed ON fx_rates(quote, observed_at);
`

// InitSchema ensures the fx_rates table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(FxRatesSchema)
	return err
}

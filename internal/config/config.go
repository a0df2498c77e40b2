package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port                 int
	DatabasePath         string
	PivotCurrency        string
	QuoteCurrencies      []string // currencies the FX sync job keeps rates for
	PriceRefreshSchedule string   // cron spec for the snapshot refresh job
	FxSyncSchedule       string   // cron spec for the FX rate sync job
	SpotgridURL          string
	SpotgridAPIKey       string
	ExchangeRateURL      string
	LogLevel             string
	DevMode              bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnvAsInt("HOARD_PORT", 8080),
		DatabasePath:         getEnv("DATABASE_PATH", "./data/hoard.db"),
		PivotCurrency:        getEnv("PIVOT_CURRENCY", "EUR"),
		QuoteCurrencies:      getEnvAsList("QUOTE_CURRENCIES", []string{"USD", "GBP", "CHF"}),
		PriceRefreshSchedule: getEnv("PRICE_REFRESH_SCHEDULE", "@every 6h"),
		FxSyncSchedule:       getEnv("FX_SYNC_SCHEDULE", "@every 12h"),
		SpotgridURL:          getEnv("SPOTGRID_URL", "https://api.spotgrid.io/v1"),
		SpotgridAPIKey:       getEnv("SPOTGRID_API_KEY", ""),
		ExchangeRateURL:      getEnv("EXCHANGERATE_URL", "https://api.exchangerate-api.com/v4/latest"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DevMode:              getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if len(c.PivotCurrency) != 3 {
		return fmt.Errorf("PIVOT_CURRENCY must be a 3-letter code, got %q", c.PivotCurrency)
	}
	for _, q := range c.QuoteCurrencies {
		if q == c.PivotCurrency {
			return fmt.Errorf("QUOTE_CURRENCIES must not contain the pivot currency %s", c.PivotCurrency)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

package domain

import "errors"

// Error taxonomy for the valuation engine. Callers match with errors.Is;
// wrapping sites add context with fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidUnit means a lot's stored quantity unit is not recognized
	// for its asset family. Fatal to the computation that touched it.
	ErrInvalidUnit = errors.New("invalid quantity unit")

	// ErrUndefinedConversion means no rate path exists between two
	// currencies as of the requested time.
	ErrUndefinedConversion = errors.New("undefined currency conversion")

	// ErrMissingSnapshot means no price observation exists for an asset at
	// or before the requested time.
	ErrMissingSnapshot = errors.New("no price snapshot")

	// ErrProviderUnavailable means the external market-data provider failed
	// entirely or timed out.
	ErrProviderUnavailable = errors.New("market data provider unavailable")
)

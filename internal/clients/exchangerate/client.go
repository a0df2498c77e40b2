// Package exchangerate fetches currency exchange rates from
// exchangerate-api.com.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/rs/zerolog"
)

// Client for exchangerate-api.com
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new exchangerate-api.com client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "exchangerate-api").Logger(),
	}
}

// Rates fetches the full quote->rate map for a base currency. Each rate is
// "1 base-unit = rate quote-units". Persistence of the observations is the
// caller's job; this client is a thin fetch.
func (c *Client) Rates(ctx context.Context, base string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, base)
	c.log.Debug().Str("url", url).Msg("Fetching rates")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rates response for base %s", domain.ErrProviderUnavailable, base)
	}

	c.log.Info().Str("base", base).Int("rates", len(result.Rates)).Msg("Fetched rates")

	return result.Rates, nil
}

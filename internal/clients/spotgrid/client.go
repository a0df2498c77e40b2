// Package spotgrid is the HTTP client for the Spotgrid market-data service,
// which quotes spot prices for metals, crypto and listed equities.
package spotgrid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dferran/hoard/internal/domain"
	"github.com/rs/zerolog"
)

// Client is a Spotgrid API client
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Spotgrid client
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "spotgrid").Logger(),
	}
}

// Asset is one search candidate from the provider
type Asset struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Kind     string `json:"kind"` // metal, crypto, equity
	Exchange string `json:"exchange,omitempty"`
}

// Search looks up candidate assets by free-text query
func (c *Client) Search(ctx context.Context, query string) ([]Asset, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(query))

	var result struct {
		Results []Asset `json:"results"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	c.log.Debug().Str("query", query).Int("results", len(result.Results)).Msg("Search completed")

	return result.Results, nil
}

// CurrentPrices fetches current prices for a set of asset codes, quoted in
// the given currency. The returned map may be missing any requested code and
// values are passed through as-is, non-finite included; callers must
// tolerate both.
func (c *Client) CurrentPrices(ctx context.Context, assetCodes []string, currency string) (map[string]float64, error) {
	endpoint := fmt.Sprintf("%s/spot?codes=%s&currency=%s",
		c.baseURL, url.QueryEscape(strings.Join(assetCodes, ",")), url.QueryEscape(currency))

	var result struct {
		Prices map[string]float64 `json:"prices"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	c.log.Debug().
		Int("requested", len(assetCodes)).
		Int("quoted", len(result.Prices)).
		Str("currency", currency).
		Msg("Fetched spot prices")

	return result.Prices, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: API returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// Package derivatives fetches futures-market metrics (funding rate, open
// interest change, long/short account ratio) from a Binance-compatible
// futures API. The metrics feed the derivatives evaluators as extra feature
// keys; every fetch here is best effort and a missing metric simply means
// those evaluators abstain.
package derivatives

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to a Binance-compatible futures API.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a derivatives client.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://fapi.binance.com"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("client", "derivatives").Logger(),
	}
}

// GetAllDerivativesMetrics returns the available metrics for the symbol as
// feature keys. Each metric is fetched independently; a partial map is a
// normal outcome, an empty map with a nil error means the symbol has no
// futures market.
func (c *Client) GetAllDerivativesMetrics(ctx context.Context, symbol string) (map[string]float64, error) {
	pair := strings.ToUpper(symbol) + "USDT"
	metrics := make(map[string]float64, 3)

	if rate, err := c.fundingRate(ctx, pair); err != nil {
		c.log.Debug().Err(err).Str("pair", pair).Msg("Funding rate unavailable")
	} else {
		metrics["funding_rate"] = rate
	}

	if change, err := c.openInterestChange(ctx, pair); err != nil {
		c.log.Debug().Err(err).Str("pair", pair).Msg("Open interest unavailable")
	} else {
		metrics["open_interest_change"] = change
	}

	if ratio, err := c.longShortRatio(ctx, pair); err != nil {
		c.log.Debug().Err(err).Str("pair", pair).Msg("Long/short ratio unavailable")
	} else {
		metrics["long_short_ratio"] = ratio
	}

	return metrics, nil
}

// fundingRate returns the latest funding rate of the pair.
func (c *Client) fundingRate(ctx context.Context, pair string) (float64, error) {
	var result struct {
		LastFundingRate string `json:"lastFundingRate"`
	}
	if err := c.getJSON(ctx, "/fapi/v1/premiumIndex?symbol="+url.QueryEscape(pair), &result); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(result.LastFundingRate, 64)
}

// openInterestChange returns the fractional change of open interest over the
// last two daily samples.
func (c *Client) openInterestChange(ctx context.Context, pair string) (float64, error) {
	var rows []struct {
		SumOpenInterest string `json:"sumOpenInterest"`
	}
	path := "/futures/data/openInterestHist?period=1d&limit=2&symbol=" + url.QueryEscape(pair)
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return 0, err
	}
	if len(rows) < 2 {
		return 0, fmt.Errorf("not enough open interest history")
	}

	prev, err := strconv.ParseFloat(rows[0].SumOpenInterest, 64)
	if err != nil {
		return 0, err
	}
	curr, err := strconv.ParseFloat(rows[1].SumOpenInterest, 64)
	if err != nil {
		return 0, err
	}
	if prev == 0 {
		return 0, fmt.Errorf("zero previous open interest")
	}
	return (curr - prev) / prev, nil
}

// longShortRatio returns the latest global long/short account ratio.
func (c *Client) longShortRatio(ctx context.Context, pair string) (float64, error) {
	var rows []struct {
		LongShortRatio string `json:"longShortRatio"`
	}
	path := "/futures/data/globalLongShortAccountRatio?period=1d&limit=1&symbol=" + url.QueryEscape(pair)
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no long/short ratio data")
	}
	return strconv.ParseFloat(rows[0].LongShortRatio, 64)
}

// getJSON performs a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

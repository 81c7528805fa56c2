// Package coingecko provides the market data client for the CoinGecko API:
// coin universe listing and per-coin daily candle history.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coinscan/internal/domain"
	"coinscan/internal/storage"
)

// marketsPageSize is the CoinGecko maximum per_page for /coins/markets.
const marketsPageSize = 250

// ohlcWindows are the day windows the /ohlc endpoint accepts. Requests are
// snapped up to the nearest allowed window and trimmed afterwards.
var ohlcWindows = []int{1, 7, 14, 30, 90, 180, 365}

// Client talks to the CoinGecko API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *storage.CandleCache
	log     zerolog.Logger

	mu      sync.RWMutex
	coinIDs map[string]string // upper symbol -> coingecko id
}

// NewClient creates a CoinGecko client. cache is optional; nil disables
// candle caching. apiKey is optional; the free tier works without one at a
// lower rate limit.
func NewClient(baseURL, apiKey string, cache *storage.CandleCache, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
		log:     log.With().Str("client", "coingecko").Logger(),
		coinIDs: make(map[string]string),
	}
}

type marketEntry struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
}

// GetAllCoins returns up to maxCoins coins ordered by market cap descending.
// It also refreshes the symbol-to-id mapping used by history fetches.
func (c *Client) GetAllCoins(ctx context.Context, maxCoins int) ([]domain.Coin, error) {
	if maxCoins <= 0 {
		maxCoins = marketsPageSize
	}

	coins := make([]domain.Coin, 0, maxCoins)
	for page := 1; len(coins) < maxCoins; page++ {
		perPage := maxCoins - len(coins)
		if perPage > marketsPageSize {
			perPage = marketsPageSize
		}

		q := url.Values{}
		q.Set("vs_currency", "usd")
		q.Set("order", "market_cap_desc")
		q.Set("per_page", fmt.Sprintf("%d", perPage))
		q.Set("page", fmt.Sprintf("%d", page))

		var entries []marketEntry
		if err := c.getJSON(ctx, "/coins/markets?"+q.Encode(), &entries); err != nil {
			return nil, fmt.Errorf("failed to fetch coin markets page %d: %w", page, err)
		}
		if len(entries) == 0 {
			break
		}

		c.mu.Lock()
		for _, e := range entries {
			symbol := strings.ToUpper(e.Symbol)
			if _, ok := c.coinIDs[symbol]; !ok {
				// First occurrence wins; market-cap order means the real
				// asset beats same-ticker imitators
				c.coinIDs[symbol] = e.ID
			}
			coins = append(coins, domain.Coin{
				Symbol: symbol,
				Name:   e.Name,
				Price:  e.CurrentPrice,
			})
		}
		c.mu.Unlock()

		if len(entries) < perPage {
			break
		}
	}

	c.log.Info().Int("coins", len(coins)).Msg("Fetched coin universe")
	return coins, nil
}

// GetHistoricalData returns daily candles for the symbol, oldest first. The
// OHLC endpoint supplies prices and /market_chart supplies volumes; both go
// through the candle cache.
func (c *Client) GetHistoricalData(ctx context.Context, symbol string, days int) ([]domain.Candle, error) {
	symbol = strings.ToUpper(symbol)

	if c.cache != nil {
		if candles, ok := c.cache.Get(symbol, days); ok {
			c.log.Debug().Str("symbol", symbol).Int("days", days).Msg("Candle cache hit")
			return candles, nil
		}
	}

	id := c.coinID(symbol)
	window := snapWindow(days)

	ohlc, err := c.fetchOHLC(ctx, id, window)
	if err != nil {
		return nil, err
	}

	volumes, err := c.fetchVolumes(ctx, id, window)
	if err != nil {
		// Candles without volume still feed most indicators
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Volume fetch failed, candles carry zero volume")
		volumes = nil
	}

	candles := mergeVolumes(ohlc, volumes)
	if len(candles) > days {
		candles = candles[len(candles)-days:]
	}

	if c.cache != nil {
		if err := c.cache.Store(symbol, days, candles); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache candles")
		}
	}

	return candles, nil
}

// fetchOHLC returns daily OHLC candles for the coin id, oldest first.
func (c *Client) fetchOHLC(ctx context.Context, id string, days int) ([]domain.Candle, error) {
	// Rows are [timestamp_ms, open, high, low, close]
	var rows [][5]float64
	path := fmt.Sprintf("/coins/%s/ohlc?vs_currency=usd&days=%d", url.PathEscape(id), days)
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch ohlc for %s: %w", id, err)
	}

	// The endpoint returns sub-daily granularity for short windows; keep
	// the last candle of each UTC day
	byDay := make(map[string]domain.Candle, days)
	dayKeys := make([]string, 0, days)
	for _, row := range rows {
		ts := time.UnixMilli(int64(row[0])).UTC()
		key := ts.Format("2006-01-02")

		candle, seen := byDay[key]
		if !seen {
			dayKeys = append(dayKeys, key)
			candle = domain.Candle{Timestamp: ts, Open: row[1], High: row[2], Low: row[3], Close: row[4]}
		} else {
			if row[2] > candle.High {
				candle.High = row[2]
			}
			if row[3] < candle.Low {
				candle.Low = row[3]
			}
			candle.Close = row[4]
			candle.Timestamp = ts
		}
		byDay[key] = candle
	}

	sort.Strings(dayKeys)
	candles := make([]domain.Candle, 0, len(dayKeys))
	for _, key := range dayKeys {
		candles = append(candles, byDay[key])
	}
	return candles, nil
}

// fetchVolumes returns daily traded volume keyed by UTC date.
func (c *Client) fetchVolumes(ctx context.Context, id string, days int) (map[string]float64, error) {
	var result struct {
		TotalVolumes [][2]float64 `json:"total_volumes"`
	}
	path := fmt.Sprintf("/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily", url.PathEscape(id), days)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch market chart for %s: %w", id, err)
	}

	volumes := make(map[string]float64, len(result.TotalVolumes))
	for _, row := range result.TotalVolumes {
		key := time.UnixMilli(int64(row[0])).UTC().Format("2006-01-02")
		volumes[key] = row[1]
	}
	return volumes, nil
}

// mergeVolumes attaches daily volumes to candles by UTC date.
func mergeVolumes(candles []domain.Candle, volumes map[string]float64) []domain.Candle {
	if volumes == nil {
		return candles
	}
	for i := range candles {
		key := candles[i].Timestamp.Format("2006-01-02")
		candles[i].Volume = volumes[key]
	}
	return candles
}

// coinID resolves a symbol to a CoinGecko coin id. Falls back to the
// lowercased symbol when the universe has not been fetched this process.
func (c *Client) coinID(symbol string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if id, ok := c.coinIDs[symbol]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// snapWindow rounds a day count up to the nearest window /ohlc accepts.
func snapWindow(days int) int {
	for _, w := range ohlcWindows {
		if days <= w {
			return w
		}
	}
	return ohlcWindows[len(ohlcWindows)-1]
}

// getJSON performs a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited by API (status 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Package regime classifies the overall crypto market regime from bitcoin's
// recent price action. The classification is attached to persisted
// predictions as analytics metadata; it never gates the scan itself.
package regime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coinscan/internal/domain"
)

// benchmarkSymbol is the proxy for the whole market. Crypto regimes are
// bitcoin regimes; altcoins follow.
const benchmarkSymbol = "BTC"

// cacheTTL bounds how often the benchmark history is refetched. Daily
// candles make anything finer pointless.
const cacheTTL = time.Hour

// Classifier derives the market regime from benchmark candle history.
type Classifier struct {
	market domain.MarketDataClient
	log    zerolog.Logger

	mu       sync.Mutex
	cached   domain.MarketRegime
	cachedAt time.Time
}

// NewClassifier creates a regime classifier.
func NewClassifier(market domain.MarketDataClient, log zerolog.Logger) *Classifier {
	return &Classifier{
		market: market,
		log:    log.With().Str("component", "regime").Logger(),
	}
}

// Classify returns the current market regime. Results are cached for an
// hour; a fetch failure returns RegimeUnknown with the error so callers can
// decide how loudly to complain.
func (c *Classifier) Classify(ctx context.Context) (domain.MarketRegime, error) {
	c.mu.Lock()
	if !c.cachedAt.IsZero() && time.Since(c.cachedAt) < cacheTTL {
		regime := c.cached
		c.mu.Unlock()
		return regime, nil
	}
	c.mu.Unlock()

	candles, err := c.market.GetHistoricalData(ctx, benchmarkSymbol, 90)
	if err != nil {
		return domain.RegimeUnknown, err
	}
	if len(candles) < 50 {
		c.log.Warn().Int("candles", len(candles)).Msg("Not enough benchmark history for regime classification")
		return domain.RegimeUnknown, nil
	}

	regime := classify(candles)

	c.mu.Lock()
	c.cached = regime
	c.cachedAt = time.Now()
	c.mu.Unlock()

	c.log.Info().Str("regime", string(regime)).Msg("Market regime classified")
	return regime, nil
}

// classify labels the regime from the benchmark's position against its
// 50-day average and its 30-day change. Both signals must agree for a
// directional label; anything mixed is sideways.
func classify(candles []domain.Candle) domain.MarketRegime {
	last := candles[len(candles)-1].Close

	var sum float64
	for _, c := range candles[len(candles)-50:] {
		sum += c.Close
	}
	sma50 := sum / 50

	monthAgo := candles[len(candles)-30].Close
	change30d := 0.0
	if monthAgo != 0 {
		change30d = (last - monthAgo) / monthAgo
	}

	switch {
	case last > sma50 && change30d > 0.05:
		return domain.RegimeBull
	case last < sma50 && change30d < -0.05:
		return domain.RegimeBear
	default:
		return domain.RegimeSideways
	}
}

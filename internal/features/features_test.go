package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinscan/internal/domain"
)

// candles builds n synthetic daily candles with a gentle uptrend.
func candles(n int) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		price := 100 + float64(i)*0.5 + math.Sin(float64(i)/5)*2
		out[i] = domain.Candle{
			Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:      price - 0.4,
			High:      price + 1.2,
			Low:       price - 1.1,
			Close:     price,
			Volume:    80_000 + float64(i)*500,
		}
	}
	return out
}

func TestComputeRejectsShortHistory(t *testing.T) {
	_, err := Compute(candles(MinHistory-1), nil)
	assert.Error(t, err)

	_, err = Compute(nil, nil)
	assert.Error(t, err)
}

func TestComputeCoreKeys(t *testing.T) {
	f, err := Compute(candles(90), nil)
	require.NoError(t, err)

	for _, key := range []string{
		"current_price",
		"sma_20", "sma_50",
		"ema_12", "ema_26",
		"rsi_14",
		"macd", "macd_signal", "macd_hist",
		"bb_upper", "bb_middle", "bb_lower",
		"atr_14",
		"stoch_k", "stoch_d",
		"obv", "obv_prev",
		"volume_24h", "volume_sma_20",
		"price_change_24h", "price_change_7d", "price_change_30d",
		"volatility_30d",
		"trend_slope_10",
		"high_30d", "low_30d",
	} {
		assert.Contains(t, f, key, "missing feature %s", key)
		assert.False(t, math.IsNaN(f[key]), "feature %s is NaN", key)
	}

	// 90 candles cannot produce a 200-day average
	assert.NotContains(t, f, "sma_200")
}

func TestComputeLongHistoryHasSMA200(t *testing.T) {
	f, err := Compute(candles(250), nil)
	require.NoError(t, err)
	assert.Contains(t, f, "sma_200")
}

func TestComputeValueSanity(t *testing.T) {
	cs := candles(90)
	f, err := Compute(cs, nil)
	require.NoError(t, err)

	assert.Equal(t, cs[len(cs)-1].Close, f["current_price"])
	assert.Greater(t, f["rsi_14"], 0.0)
	assert.Less(t, f["rsi_14"], 100.0)
	assert.Greater(t, f["bb_upper"], f["bb_middle"])
	assert.Greater(t, f["bb_middle"], f["bb_lower"])
	assert.GreaterOrEqual(t, f["high_30d"], f["low_30d"])
	assert.Equal(t, cs[len(cs)-1].Volume, f["volume_24h"])

	// The uptrend must show in the slope and the 30d change
	assert.Greater(t, f["trend_slope_10"], 0.0)
	assert.Greater(t, f["price_change_30d"], 0.0)
}

func TestComputeDerivativesMergeIsAdditive(t *testing.T) {
	f, err := Compute(candles(60), map[string]float64{
		"funding_rate":  0.0003,
		"current_price": 1, // must not overwrite the real price
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0003, f["funding_rate"])
	assert.NotEqual(t, 1.0, f["current_price"])
}

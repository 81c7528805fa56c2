package bots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinscan/internal/domain"
)

// fullFeatures returns a feature map carrying every key any evaluator reads,
// with internally consistent bullish values.
func fullFeatures() domain.FeatureMap {
	return domain.FeatureMap{
		"current_price":        105,
		"sma_20":               100,
		"sma_50":               95,
		"sma_200":              85,
		"ema_12":               103,
		"ema_26":               99,
		"rsi_14":               62,
		"macd":                 1.8,
		"macd_signal":          1.2,
		"macd_hist":            0.6,
		"bb_upper":             112,
		"bb_middle":            100,
		"bb_lower":             88,
		"atr_14":               3.5,
		"stoch_k":              70,
		"stoch_d":              62,
		"obv":                  1_500_000,
		"obv_prev":             1_350_000,
		"volume_24h":           900_000,
		"volume_sma_20":        600_000,
		"price_change_24h":     0.02,
		"price_change_7d":      0.06,
		"price_change_30d":     0.15,
		"volatility_30d":       0.04,
		"trend_slope_10":       0.004,
		"high_30d":             110,
		"low_30d":              82,
		"funding_rate":         0.0004,
		"open_interest_change": 0.08,
		"long_short_ratio":     1.6,
		"sentiment_score":      0.5,
	}
}

func TestEvaluatorContract(t *testing.T) {
	registry := NewRegistry()
	features := fullFeatures()

	before := features.Clone()
	produced := 0

	for _, entry := range registry.All() {
		evaluator := entry.Evaluator

		t.Run(evaluator.Name(), func(t *testing.T) {
			result := evaluator.Evaluate(features)
			if result == nil {
				return
			}
			produced++

			assert.Equal(t, evaluator.Name(), result.BotName)
			assert.GreaterOrEqual(t, result.Confidence, 1, "confidence below range")
			assert.LessOrEqual(t, result.Confidence, 10, "confidence above range")
			assert.Contains(t, []domain.Direction{domain.DirectionLong, domain.DirectionShort}, result.Direction)
			assert.Equal(t, features.CurrentPrice(), result.Entry)
			assert.Greater(t, result.TakeProfit, 0.0)
			assert.Greater(t, result.StopLoss, 0.0)
			assert.NotEmpty(t, result.Rationale)
		})
	}

	// The map must come out exactly as it went in
	assert.Equal(t, before, features, "an evaluator mutated the feature map")

	// With every feature present, the bulk of the fleet should have an
	// opinion
	assert.GreaterOrEqual(t, produced, 40, "too few evaluators produced results")
}

func TestEvaluatorsReturnNilOnMissingFeatures(t *testing.T) {
	registry := NewRegistry()

	// Only a price: everything that needs an indicator must abstain, and
	// nothing may panic
	bare := domain.FeatureMap{"current_price": 100}

	for _, entry := range registry.All() {
		evaluator := entry.Evaluator
		t.Run(evaluator.Name(), func(t *testing.T) {
			assert.NotPanics(t, func() {
				evaluator.Evaluate(bare)
			})
		})
	}
}

func TestSMACrossLongSignal(t *testing.T) {
	f := domain.FeatureMap{
		"current_price": 105,
		"sma_20":        102,
		"sma_50":        98,
	}

	result := SMACrossBot{}.Evaluate(f)
	require.NotNil(t, result)

	assert.Equal(t, domain.DirectionLong, result.Direction)
	assert.GreaterOrEqual(t, result.Confidence, 5)
	assert.Greater(t, result.TakeProfit, result.Entry)
	assert.Less(t, result.StopLoss, result.Entry)
}

func TestSMACrossShortSignal(t *testing.T) {
	f := domain.FeatureMap{
		"current_price": 90,
		"sma_20":        92,
		"sma_50":        99,
	}

	result := SMACrossBot{}.Evaluate(f)
	require.NotNil(t, result)

	assert.Equal(t, domain.DirectionShort, result.Direction)
	assert.Less(t, result.TakeProfit, result.Entry)
	assert.Greater(t, result.StopLoss, result.Entry)
}

func TestRSIBotRequiresRSI(t *testing.T) {
	f := domain.FeatureMap{
		"current_price": 100,
		"sma_20":        100,
		"sma_50":        100,
	}

	assert.Nil(t, RSIBot{}.Evaluate(f), "rsi bot must abstain without rsi_14")
}

func TestConfidenceClampedOnExtremeInputs(t *testing.T) {
	// A 300% SMA spread would push raw confidence far past 10
	f := domain.FeatureMap{
		"current_price": 400,
		"sma_20":        400,
		"sma_50":        100,
	}

	result := SMACrossBot{}.Evaluate(f)
	require.NotNil(t, result)
	assert.Equal(t, 10, result.Confidence)
}

func TestNewResultTargetGeometry(t *testing.T) {
	long := newResult("x", domain.DirectionLong, 100, 5, 0.10, "r")
	assert.InDelta(t, 110, long.TakeProfit, 1e-9)
	assert.InDelta(t, 95, long.StopLoss, 1e-9)
	assert.InDelta(t, 102.5, long.Predicted24h, 1e-9)
	assert.InDelta(t, 105, long.Predicted48h, 1e-9)
	assert.InDelta(t, 110, long.Predicted7d, 1e-9)

	short := newResult("x", domain.DirectionShort, 100, 5, 0.10, "r")
	assert.InDelta(t, 90, short.TakeProfit, 1e-9)
	assert.InDelta(t, 105, short.StopLoss, 1e-9)

	// A negative move fraction is treated as its magnitude
	neg := newResult("x", domain.DirectionLong, 100, 5, -0.10, "r")
	assert.InDelta(t, 110, neg.TakeProfit, 1e-9)
}

func TestRegistryComposition(t *testing.T) {
	registry := NewRegistry()

	assert.Equal(t, 51, registry.Count())
	assert.Len(t, registry.Cheap(), 49, "enrichment bots must not run in the bulk pass")
	assert.Len(t, registry.Enrichment(), 2)

	names := map[string]bool{}
	for _, entry := range registry.All() {
		name := entry.Evaluator.Name()
		assert.False(t, names[name], "duplicate bot name %s", name)
		names[name] = true
	}

	assert.NotNil(t, registry.Get("sma_cross"))
	assert.Nil(t, registry.Get("no_such_bot"))
	assert.Len(t, registry.Names(), 51)
}

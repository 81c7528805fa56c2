package bots

import (
	"math"

	"coinscan/internal/domain"
)

// Volatility and range evaluators (Bollinger bands, ATR, 30-day channel).

// BollingerReversalBot fades closes outside the bands.
type BollingerReversalBot struct{}

func (BollingerReversalBot) Name() string { return "bollinger_reversal" }

func (BollingerReversalBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("bb_upper", "bb_lower", "bb_middle", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	upper, lower, middle := f["bb_upper"], f["bb_lower"], f["bb_middle"]
	if upper <= lower {
		return nil
	}

	switch {
	case price <= lower:
		return newResult("bollinger_reversal", domain.DirectionLong, price, 7, 0.045,
			rationalef("close %.4f at/below lower band %.4f", price, lower))
	case price >= upper:
		return newResult("bollinger_reversal", domain.DirectionShort, price, 7, 0.045,
			rationalef("close %.4f at/above upper band %.4f", price, upper))
	case price >= middle:
		return newResult("bollinger_reversal", domain.DirectionShort, price, 2, 0.015, "upper half of bands")
	default:
		return newResult("bollinger_reversal", domain.DirectionLong, price, 2, 0.015, "lower half of bands")
	}
}

// BollingerBreakoutBot trades band breaks as continuation instead of fading
// them.
type BollingerBreakoutBot struct{}

func (BollingerBreakoutBot) Name() string { return "bollinger_breakout" }

func (BollingerBreakoutBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("bb_upper", "bb_lower", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	upper, lower := f["bb_upper"], f["bb_lower"]
	if upper <= lower {
		return nil
	}

	switch {
	case price > upper:
		overshoot := (price - upper) / upper
		return newResult("bollinger_breakout", domain.DirectionLong, price, 6+int(overshoot*200), 0.05,
			rationalef("breakout %.2f%% above upper band", overshoot*100))
	case price < lower:
		overshoot := (lower - price) / lower
		return newResult("bollinger_breakout", domain.DirectionShort, price, 6+int(overshoot*200), 0.05,
			rationalef("breakdown %.2f%% below lower band", overshoot*100))
	default:
		// Inside the bands: no edge, lean on band midpoint
		mid := (upper + lower) / 2
		dir := domain.DirectionLong
		if price < mid {
			dir = domain.DirectionShort
		}
		return newResult("bollinger_breakout", dir, price, 2, 0.015, "inside bands, no breakout")
	}
}

// BollingerSqueezeBot measures band width; a tight squeeze anticipates an
// expansion in the direction of the short-term trend.
type BollingerSqueezeBot struct{}

func (BollingerSqueezeBot) Name() string { return "bollinger_squeeze" }

func (BollingerSqueezeBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("bb_upper", "bb_lower", "bb_middle", "trend_slope_10", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	upper, lower, middle := f["bb_upper"], f["bb_lower"], f["bb_middle"]
	slope := f["trend_slope_10"]
	if middle == 0 {
		return nil
	}

	width := (upper - lower) / middle
	dir := domain.DirectionLong
	if slope < 0 {
		dir = domain.DirectionShort
	}

	if width < 0.08 {
		return newResult("bollinger_squeeze", dir, price, 7, 0.06,
			rationalef("band width %.1f%% squeezed, expansion expected", width*100))
	}
	return newResult("bollinger_squeeze", dir, price, 2, 0.02,
		rationalef("band width %.1f%%, no squeeze", width*100))
}

// ATRPositionBot sizes the expected move by ATR and picks the side of the
// short-term trend.
type ATRPositionBot struct{}

func (ATRPositionBot) Name() string { return "atr_position" }

func (ATRPositionBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("atr_14", "trend_slope_10", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	atr := f["atr_14"]
	slope := f["trend_slope_10"]
	if price == 0 {
		return nil
	}

	atrPct := atr / price
	dir := domain.DirectionLong
	if slope < 0 {
		dir = domain.DirectionShort
	}
	conf := 4
	if atrPct > 0.05 {
		conf = 6 // High-range coin, moves travel further
	}
	return newResult("atr_position", dir, price, conf, math.Min(atrPct*2, 0.1),
		rationalef("ATR %.2f%% of price", atrPct*100))
}

// ChannelPositionBot locates price inside the 30-day high/low channel and
// fades the extremes.
type ChannelPositionBot struct{}

func (ChannelPositionBot) Name() string { return "channel_position" }

func (ChannelPositionBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("high_30d", "low_30d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	high, low := f["high_30d"], f["low_30d"]
	if high <= low {
		return nil
	}

	pos := (price - low) / (high - low)
	switch {
	case pos <= 0.15:
		return newResult("channel_position", domain.DirectionLong, price, 7, 0.05,
			rationalef("price in bottom %.0f%% of 30d channel", pos*100))
	case pos >= 0.85:
		return newResult("channel_position", domain.DirectionShort, price, 7, 0.05,
			rationalef("price in top %.0f%% of 30d channel", pos*100))
	case pos >= 0.5:
		return newResult("channel_position", domain.DirectionLong, price, 3, 0.02, "upper half of channel")
	default:
		return newResult("channel_position", domain.DirectionShort, price, 3, 0.02, "lower half of channel")
	}
}

// RangeBreakoutBot trades pushes through the 30-day extremes.
type RangeBreakoutBot struct{}

func (RangeBreakoutBot) Name() string { return "range_breakout" }

func (RangeBreakoutBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("high_30d", "low_30d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	high, low := f["high_30d"], f["low_30d"]
	if high <= low {
		return nil
	}

	switch {
	case price >= high*0.995:
		return newResult("range_breakout", domain.DirectionLong, price, 8, 0.06,
			rationalef("testing 30d high %.4f", high))
	case price <= low*1.005:
		return newResult("range_breakout", domain.DirectionShort, price, 8, 0.06,
			rationalef("testing 30d low %.4f", low))
	default:
		mid := (high + low) / 2
		dir := domain.DirectionLong
		if price < mid {
			dir = domain.DirectionShort
		}
		return newResult("range_breakout", dir, price, 2, 0.015, "mid-range, no breakout")
	}
}

// VolatilityRegimeBot prefers calm coins for longs and treats violent ones
// with lower conviction.
type VolatilityRegimeBot struct{}

func (VolatilityRegimeBot) Name() string { return "volatility_regime" }

func (VolatilityRegimeBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("volatility_30d", "trend_slope_10", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	vol := f["volatility_30d"]
	slope := f["trend_slope_10"]

	dir := domain.DirectionLong
	if slope < 0 {
		dir = domain.DirectionShort
	}

	conf := 6
	if vol > 0.08 {
		conf = 3 // Chop: trend reads are unreliable
	}
	return newResult("volatility_regime", dir, price, conf, math.Min(vol*4+0.01, 0.08),
		rationalef("30d log-return vol %.2f%%", vol*100))
}

// ATRStopHunterBot places wider targets on high-ATR coins in the direction
// of the monthly trend.
type ATRStopHunterBot struct{}

func (ATRStopHunterBot) Name() string { return "atr_stop_hunter" }

func (ATRStopHunterBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("atr_14", "price_change_30d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	atr := f["atr_14"]
	monthly := f["price_change_30d"]
	if price == 0 {
		return nil
	}

	dir := domain.DirectionLong
	if monthly < 0 {
		dir = domain.DirectionShort
	}
	atrPct := atr / price
	conf := 4 + int(math.Abs(monthly)*10)
	return newResult("atr_stop_hunter", dir, price, conf, math.Min(atrPct*3, 0.12),
		rationalef("ATR %.2f%%, 30d trend %.1f%%", atrPct*100, monthly*100))
}

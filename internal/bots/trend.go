package bots

import (
	"math"

	"coinscan/internal/domain"
)

// Trend-following evaluators. All of them read moving averages or slope
// features and side with the prevailing direction.

// SMACrossBot goes long when the 20-day SMA is above the 50-day SMA.
type SMACrossBot struct{}

func (SMACrossBot) Name() string { return "sma_cross" }

func (SMACrossBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sma_20", "sma_50", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	sma20, sma50 := f["sma_20"], f["sma_50"]
	if sma50 == 0 {
		return nil
	}

	spread := (sma20 - sma50) / sma50
	dir := domain.DirectionLong
	if spread < 0 {
		dir = domain.DirectionShort
	}

	// Wider spread, stronger conviction
	conf := 5 + int(math.Abs(spread)*100)
	move := 0.03 + math.Min(math.Abs(spread), 0.05)
	return newResult("sma_cross", dir, price, conf, move,
		rationalef("SMA20 %.4f vs SMA50 %.4f (spread %.2f%%)", sma20, sma50, spread*100))
}

// GoldenCrossBot reads the 50/200 SMA relationship.
type GoldenCrossBot struct{}

func (GoldenCrossBot) Name() string { return "golden_cross" }

func (GoldenCrossBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sma_50", "sma_200", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	sma50, sma200 := f["sma_50"], f["sma_200"]
	if sma200 == 0 {
		return nil
	}

	spread := (sma50 - sma200) / sma200
	dir := domain.DirectionLong
	if spread < 0 {
		dir = domain.DirectionShort
	}
	conf := 6 + int(math.Abs(spread)*50)
	return newResult("golden_cross", dir, price, conf, 0.05,
		rationalef("SMA50/SMA200 spread %.2f%%", spread*100))
}

// EMACrossBot reads the 12/26 EMA relationship.
type EMACrossBot struct{}

func (EMACrossBot) Name() string { return "ema_cross" }

func (EMACrossBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("ema_12", "ema_26", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	ema12, ema26 := f["ema_12"], f["ema_26"]
	if ema26 == 0 {
		return nil
	}

	spread := (ema12 - ema26) / ema26
	dir := domain.DirectionLong
	if spread < 0 {
		dir = domain.DirectionShort
	}
	conf := 5 + int(math.Abs(spread)*120)
	return newResult("ema_cross", dir, price, conf, 0.025+math.Min(math.Abs(spread), 0.04),
		rationalef("EMA12 %.4f vs EMA26 %.4f", ema12, ema26))
}

// PriceAboveSMABot compares price to its 20-day SMA.
type PriceAboveSMABot struct{}

func (PriceAboveSMABot) Name() string { return "price_vs_sma20" }

func (PriceAboveSMABot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sma_20", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	sma20 := f["sma_20"]
	if sma20 == 0 {
		return nil
	}

	dist := (price - sma20) / sma20
	dir := domain.DirectionLong
	if dist < 0 {
		dir = domain.DirectionShort
	}
	conf := 4 + int(math.Abs(dist)*80)
	return newResult("price_vs_sma20", dir, price, conf, 0.02,
		rationalef("price %.2f%% from SMA20", dist*100))
}

// LongTermTrendBot compares price to its 200-day SMA.
type LongTermTrendBot struct{}

func (LongTermTrendBot) Name() string { return "long_term_trend" }

func (LongTermTrendBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sma_200", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	sma200 := f["sma_200"]
	if sma200 == 0 {
		return nil
	}

	dist := (price - sma200) / sma200
	dir := domain.DirectionLong
	if dist < 0 {
		dir = domain.DirectionShort
	}
	conf := 6 + int(math.Abs(dist)*20)
	return newResult("long_term_trend", dir, price, conf, 0.06,
		rationalef("price %.1f%% from SMA200", dist*100))
}

// TrendSlopeBot reads the normalized 10-day regression slope.
type TrendSlopeBot struct{}

func (TrendSlopeBot) Name() string { return "trend_slope" }

func (TrendSlopeBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("trend_slope_10", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	slope := f["trend_slope_10"]

	dir := domain.DirectionLong
	if slope < 0 {
		dir = domain.DirectionShort
	}
	conf := 4 + int(math.Abs(slope)*400)
	return newResult("trend_slope", dir, price, conf, 0.02+math.Min(math.Abs(slope)*7, 0.05),
		rationalef("10d slope %.3f%%/day", slope*100))
}

// TrendAlignmentBot requires price, SMA20, and SMA50 stacked in order and
// scores by how cleanly they are aligned.
type TrendAlignmentBot struct{}

func (TrendAlignmentBot) Name() string { return "trend_alignment" }

func (TrendAlignmentBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sma_20", "sma_50", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	sma20, sma50 := f["sma_20"], f["sma_50"]

	if price > sma20 && sma20 > sma50 {
		return newResult("trend_alignment", domain.DirectionLong, price, 7, 0.045,
			"price > SMA20 > SMA50, clean bullish stack")
	}
	if price < sma20 && sma20 < sma50 {
		return newResult("trend_alignment", domain.DirectionShort, price, 7, 0.045,
			"price < SMA20 < SMA50, clean bearish stack")
	}

	// Mixed stack: weak signal in the direction of the 20/50 spread
	dir := domain.DirectionLong
	if sma20 < sma50 {
		dir = domain.DirectionShort
	}
	return newResult("trend_alignment", dir, price, 2, 0.015, "mixed moving-average stack")
}

// MomentumContinuationBot extrapolates the 7-day change.
type MomentumContinuationBot struct{}

func (MomentumContinuationBot) Name() string { return "momentum_continuation" }

func (MomentumContinuationBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("price_change_7d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	change := f["price_change_7d"]

	dir := domain.DirectionLong
	if change < 0 {
		dir = domain.DirectionShort
	}
	conf := 4 + int(math.Abs(change)*40)
	return newResult("momentum_continuation", dir, price, conf, math.Min(math.Abs(change)*0.6+0.01, 0.08),
		rationalef("7d change %.1f%%, expecting continuation", change*100))
}

// MonthlyTrendBot reads the 30-day change.
type MonthlyTrendBot struct{}

func (MonthlyTrendBot) Name() string { return "monthly_trend" }

func (MonthlyTrendBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("price_change_30d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	change := f["price_change_30d"]

	dir := domain.DirectionLong
	if change < 0 {
		dir = domain.DirectionShort
	}
	conf := 4 + int(math.Abs(change)*15)
	return newResult("monthly_trend", dir, price, conf, 0.04,
		rationalef("30d change %.1f%%", change*100))
}

// PullbackEntryBot looks for a dip inside an uptrend: price below SMA20 while
// SMA20 remains above SMA50.
type PullbackEntryBot struct{}

func (PullbackEntryBot) Name() string { return "pullback_entry" }

func (PullbackEntryBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sma_20", "sma_50", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	sma20, sma50 := f["sma_20"], f["sma_50"]

	uptrend := sma20 > sma50
	belowFast := price < sma20

	if uptrend && belowFast {
		return newResult("pullback_entry", domain.DirectionLong, price, 7, 0.04,
			"pullback below SMA20 inside SMA20>SMA50 uptrend")
	}
	if !uptrend && !belowFast {
		return newResult("pullback_entry", domain.DirectionShort, price, 7, 0.04,
			"rally above SMA20 inside SMA20<SMA50 downtrend")
	}

	dir := domain.DirectionLong
	if !uptrend {
		dir = domain.DirectionShort
	}
	return newResult("pullback_entry", dir, price, 3, 0.02, "no pullback setup, following trend")
}

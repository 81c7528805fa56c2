package bots

import (
	"math"

	"coinscan/internal/domain"
)

// Oscillator-driven evaluators (RSI, stochastic, MACD, rate of change).

// RSIBot buys oversold and sells overbought readings.
type RSIBot struct{}

func (RSIBot) Name() string { return "rsi" }

func (RSIBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("rsi_14", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	rsi := f["rsi_14"]

	switch {
	case rsi <= 30:
		conf := 6 + int((30-rsi)/5)
		return newResult("rsi", domain.DirectionLong, price, conf, 0.05,
			rationalef("RSI %.1f oversold", rsi))
	case rsi >= 70:
		conf := 6 + int((rsi-70)/5)
		return newResult("rsi", domain.DirectionShort, price, conf, 0.05,
			rationalef("RSI %.1f overbought", rsi))
	case rsi >= 50:
		return newResult("rsi", domain.DirectionLong, price, 3, 0.02,
			rationalef("RSI %.1f above midline", rsi))
	default:
		return newResult("rsi", domain.DirectionShort, price, 3, 0.02,
			rationalef("RSI %.1f below midline", rsi))
	}
}

// RSIMomentumBot follows RSI strength rather than fading extremes.
type RSIMomentumBot struct{}

func (RSIMomentumBot) Name() string { return "rsi_momentum" }

func (RSIMomentumBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("rsi_14", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	rsi := f["rsi_14"]

	dir := domain.DirectionLong
	if rsi < 50 {
		dir = domain.DirectionShort
	}
	conf := 3 + int(math.Abs(rsi-50)/8)
	return newResult("rsi_momentum", dir, price, conf, 0.03,
		rationalef("RSI %.1f, momentum side", rsi))
}

// MACDCrossBot reads the MACD line against its signal line.
type MACDCrossBot struct{}

func (MACDCrossBot) Name() string { return "macd_cross" }

func (MACDCrossBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("macd", "macd_signal", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	macd, signal := f["macd"], f["macd_signal"]

	dir := domain.DirectionLong
	if macd < signal {
		dir = domain.DirectionShort
	}

	gap := math.Abs(macd - signal)
	conf := 5
	if price > 0 {
		conf = 5 + int(gap/price*1000)
	}
	return newResult("macd_cross", dir, price, conf, 0.035,
		rationalef("MACD %.4f vs signal %.4f", macd, signal))
}

// MACDHistogramBot reads histogram sign and magnitude.
type MACDHistogramBot struct{}

func (MACDHistogramBot) Name() string { return "macd_histogram" }

func (MACDHistogramBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("macd_hist", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	hist := f["macd_hist"]

	dir := domain.DirectionLong
	if hist < 0 {
		dir = domain.DirectionShort
	}
	conf := 4
	if price > 0 {
		conf = 4 + int(math.Abs(hist)/price*800)
	}
	return newResult("macd_histogram", dir, price, conf, 0.03,
		rationalef("MACD histogram %.4f", hist))
}

// MACDZeroLineBot reads the MACD line against zero.
type MACDZeroLineBot struct{}

func (MACDZeroLineBot) Name() string { return "macd_zero_line" }

func (MACDZeroLineBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("macd", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	macd := f["macd"]

	dir := domain.DirectionLong
	if macd < 0 {
		dir = domain.DirectionShort
	}
	return newResult("macd_zero_line", dir, price, 4, 0.03,
		rationalef("MACD %.4f relative to zero", macd))
}

// StochasticBot fades stochastic extremes.
type StochasticBot struct{}

func (StochasticBot) Name() string { return "stochastic" }

func (StochasticBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("stoch_k", "stoch_d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	k, d := f["stoch_k"], f["stoch_d"]

	switch {
	case k <= 20 && d <= 20:
		return newResult("stochastic", domain.DirectionLong, price, 7, 0.045,
			rationalef("stochastic oversold K %.1f D %.1f", k, d))
	case k >= 80 && d >= 80:
		return newResult("stochastic", domain.DirectionShort, price, 7, 0.045,
			rationalef("stochastic overbought K %.1f D %.1f", k, d))
	case k > d:
		return newResult("stochastic", domain.DirectionLong, price, 3, 0.02,
			rationalef("K %.1f above D %.1f", k, d))
	default:
		return newResult("stochastic", domain.DirectionShort, price, 3, 0.02,
			rationalef("K %.1f below D %.1f", k, d))
	}
}

// StochasticCrossBot follows the K/D cross only.
type StochasticCrossBot struct{}

func (StochasticCrossBot) Name() string { return "stochastic_cross" }

func (StochasticCrossBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("stoch_k", "stoch_d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	k, d := f["stoch_k"], f["stoch_d"]

	dir := domain.DirectionLong
	if k < d {
		dir = domain.DirectionShort
	}
	conf := 3 + int(math.Abs(k-d)/5)
	return newResult("stochastic_cross", dir, price, conf, 0.025,
		rationalef("stochastic cross, K-D %.1f", k-d))
}

// DailyMomentumBot extrapolates the 24h change.
type DailyMomentumBot struct{}

func (DailyMomentumBot) Name() string { return "daily_momentum" }

func (DailyMomentumBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("price_change_24h", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	change := f["price_change_24h"]

	dir := domain.DirectionLong
	if change < 0 {
		dir = domain.DirectionShort
	}
	conf := 3 + int(math.Abs(change)*60)
	return newResult("daily_momentum", dir, price, conf, math.Min(math.Abs(change)+0.01, 0.05),
		rationalef("24h change %.2f%%", change*100))
}

// MomentumDivergenceBot compares 24h momentum against the 7d trend and fades
// short-term moves that run against the weekly direction.
type MomentumDivergenceBot struct{}

func (MomentumDivergenceBot) Name() string { return "momentum_divergence" }

func (MomentumDivergenceBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("price_change_24h", "price_change_7d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	daily, weekly := f["price_change_24h"], f["price_change_7d"]

	// Divergent: side with the weekly trend
	if daily*weekly < 0 {
		dir := domain.DirectionLong
		if weekly < 0 {
			dir = domain.DirectionShort
		}
		return newResult("momentum_divergence", dir, price, 6, 0.04,
			rationalef("24h %.1f%% against 7d %.1f%%, siding with weekly", daily*100, weekly*100))
	}

	dir := domain.DirectionLong
	if weekly < 0 {
		dir = domain.DirectionShort
	}
	return newResult("momentum_divergence", dir, price, 3, 0.02, "daily and weekly momentum agree")
}

// RSIStochComboBot needs both oscillators agreeing at an extreme.
type RSIStochComboBot struct{}

func (RSIStochComboBot) Name() string { return "rsi_stoch_combo" }

func (RSIStochComboBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("rsi_14", "stoch_k", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	rsi, k := f["rsi_14"], f["stoch_k"]

	if rsi <= 35 && k <= 25 {
		return newResult("rsi_stoch_combo", domain.DirectionLong, price, 8, 0.055,
			rationalef("RSI %.1f and stochastic %.1f both washed out", rsi, k))
	}
	if rsi >= 65 && k >= 75 {
		return newResult("rsi_stoch_combo", domain.DirectionShort, price, 8, 0.055,
			rationalef("RSI %.1f and stochastic %.1f both stretched", rsi, k))
	}

	dir := domain.DirectionLong
	if rsi < 50 {
		dir = domain.DirectionShort
	}
	return newResult("rsi_stoch_combo", dir, price, 2, 0.015, "no oscillator agreement")
}

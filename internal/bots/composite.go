package bots

import (
	"math"

	"coinscan/internal/domain"
)

// Composite evaluators combine several feature families before committing to
// a side. They tend to carry higher conviction when the inputs agree and
// very little when they do not.

// ConfluenceBot counts agreeing signals across trend, momentum, and volume.
type ConfluenceBot struct{}

func (ConfluenceBot) Name() string { return "confluence" }

func (ConfluenceBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sma_20", "sma_50", "rsi_14", "macd_hist", "current_price") {
		return nil
	}
	price := f.CurrentPrice()

	bullish, bearish := 0, 0
	vote := func(cond bool) {
		if cond {
			bullish++
		} else {
			bearish++
		}
	}

	vote(f["sma_20"] > f["sma_50"])
	vote(f["rsi_14"] > 50)
	vote(f["macd_hist"] > 0)
	vote(price > f["sma_20"])
	if obv, ok := f["obv"]; ok {
		if prev, ok := f["obv_prev"]; ok {
			vote(obv > prev)
		}
	}

	dir := domain.DirectionLong
	votesFor := bullish
	if bearish > bullish {
		dir = domain.DirectionShort
		votesFor = bearish
	}
	total := bullish + bearish

	conf := 2 + (votesFor*8)/total
	return newResult("confluence", dir, price, conf, 0.02+float64(votesFor)/float64(total)*0.04,
		rationalef("%d of %d signals agree", votesFor, total))
}

// TripleScreenBot needs the weekly trend, a daily oscillator dip, and a
// short-term trigger all pointing the same way.
type TripleScreenBot struct{}

func (TripleScreenBot) Name() string { return "triple_screen" }

func (TripleScreenBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("price_change_7d", "stoch_k", "trend_slope_10", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	weekly := f["price_change_7d"]
	k := f["stoch_k"]
	slope := f["trend_slope_10"]

	if weekly > 0 && k < 40 && slope > 0 {
		return newResult("triple_screen", domain.DirectionLong, price, 8, 0.055,
			"weekly uptrend, oscillator dip, rising short-term slope")
	}
	if weekly < 0 && k > 60 && slope < 0 {
		return newResult("triple_screen", domain.DirectionShort, price, 8, 0.055,
			"weekly downtrend, oscillator rally, falling short-term slope")
	}

	dir := domain.DirectionLong
	if weekly < 0 {
		dir = domain.DirectionShort
	}
	return newResult("triple_screen", dir, price, 2, 0.015, "screens disagree")
}

// TrendMomentumComboBot multiplies trend and momentum agreement into
// conviction.
type TrendMomentumComboBot struct{}

func (TrendMomentumComboBot) Name() string { return "trend_momentum_combo" }

func (TrendMomentumComboBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sma_20", "sma_50", "rsi_14", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	trendUp := f["sma_20"] > f["sma_50"]
	rsi := f["rsi_14"]

	if trendUp && rsi > 55 {
		return newResult("trend_momentum_combo", domain.DirectionLong, price, 7, 0.05,
			rationalef("uptrend with RSI %.1f", rsi))
	}
	if !trendUp && rsi < 45 {
		return newResult("trend_momentum_combo", domain.DirectionShort, price, 7, 0.05,
			rationalef("downtrend with RSI %.1f", rsi))
	}

	dir := domain.DirectionLong
	if !trendUp {
		dir = domain.DirectionShort
	}
	return newResult("trend_momentum_combo", dir, price, 3, 0.02, "trend and momentum disagree")
}

// BreakoutConfirmationBot wants a 30-day breakout backed by a volume spike.
type BreakoutConfirmationBot struct{}

func (BreakoutConfirmationBot) Name() string { return "breakout_confirmation" }

func (BreakoutConfirmationBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("high_30d", "low_30d", "volume_24h", "volume_sma_20", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	high, low := f["high_30d"], f["low_30d"]
	vol, avg := f["volume_24h"], f["volume_sma_20"]
	if avg == 0 || high <= low {
		return nil
	}

	volumeBacked := vol/avg >= 1.5
	if price >= high*0.995 && volumeBacked {
		return newResult("breakout_confirmation", domain.DirectionLong, price, 9, 0.07,
			rationalef("30d high break on %.1fx volume", vol/avg))
	}
	if price <= low*1.005 && volumeBacked {
		return newResult("breakout_confirmation", domain.DirectionShort, price, 9, 0.07,
			rationalef("30d low break on %.1fx volume", vol/avg))
	}

	mid := (high + low) / 2
	dir := domain.DirectionLong
	if price < mid {
		dir = domain.DirectionShort
	}
	return newResult("breakout_confirmation", dir, price, 2, 0.015, "no confirmed breakout")
}

// DipBuyerBot buys controlled dips in coins still above their long average.
type DipBuyerBot struct{}

func (DipBuyerBot) Name() string { return "dip_buyer" }

func (DipBuyerBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("price_change_24h", "sma_50", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	daily := f["price_change_24h"]
	sma50 := f["sma_50"]

	if daily <= -0.03 && daily >= -0.12 && price > sma50 {
		return newResult("dip_buyer", domain.DirectionLong, price, 7+int(-daily*40), 0.05,
			rationalef("%.1f%% dip above SMA50", daily*100))
	}
	if daily >= 0.03 && daily <= 0.12 && price < sma50 {
		return newResult("dip_buyer", domain.DirectionShort, price, 7+int(daily*40), 0.05,
			rationalef("%.1f%% pop below SMA50", daily*100))
	}

	dir := domain.DirectionLong
	if price < sma50 {
		dir = domain.DirectionShort
	}
	return newResult("dip_buyer", dir, price, 2, 0.015, "no dip setup")
}

// RiskRewardBot scores how far price sits from the 30-day extremes and takes
// the side with more room.
type RiskRewardBot struct{}

func (RiskRewardBot) Name() string { return "risk_reward" }

func (RiskRewardBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("high_30d", "low_30d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	high, low := f["high_30d"], f["low_30d"]
	if high <= low || price <= 0 {
		return nil
	}

	upside := (high - price) / price
	downside := (price - low) / price

	if upside > downside*1.5 {
		return newResult("risk_reward", domain.DirectionLong, price, 5+int(upside*20), math.Min(upside, 0.1),
			rationalef("upside %.1f%% vs downside %.1f%%", upside*100, downside*100))
	}
	if downside > upside*1.5 {
		return newResult("risk_reward", domain.DirectionShort, price, 5+int(downside*20), math.Min(downside, 0.1),
			rationalef("downside %.1f%% vs upside %.1f%%", downside*100, upside*100))
	}

	dir := domain.DirectionLong
	if downside > upside {
		dir = domain.DirectionShort
	}
	return newResult("risk_reward", dir, price, 3, 0.02, "risk and reward balanced")
}

// SwingBot looks for an oscillator turn inside a band-defined range.
type SwingBot struct{}

func (SwingBot) Name() string { return "swing" }

func (SwingBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("bb_upper", "bb_lower", "stoch_k", "stoch_d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	upper, lower := f["bb_upper"], f["bb_lower"]
	k, d := f["stoch_k"], f["stoch_d"]
	if upper <= lower {
		return nil
	}

	pos := (price - lower) / (upper - lower)
	if pos < 0.3 && k > d {
		return newResult("swing", domain.DirectionLong, price, 7, 0.045,
			"low in the bands with stochastic turning up")
	}
	if pos > 0.7 && k < d {
		return newResult("swing", domain.DirectionShort, price, 7, 0.045,
			"high in the bands with stochastic turning down")
	}

	dir := domain.DirectionLong
	if pos > 0.5 {
		dir = domain.DirectionShort
	}
	return newResult("swing", dir, price, 2, 0.015, "no swing setup")
}

// GapAndGoBot continues strong daily moves that close near the extreme of a
// wide ATR day.
type GapAndGoBot struct{}

func (GapAndGoBot) Name() string { return "gap_and_go" }

func (GapAndGoBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("price_change_24h", "atr_14", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	daily := f["price_change_24h"]
	atr := f["atr_14"]
	if price <= 0 {
		return nil
	}

	atrPct := atr / price
	if math.Abs(daily) > atrPct*1.5 && atrPct > 0 {
		dir := domain.DirectionLong
		if daily < 0 {
			dir = domain.DirectionShort
		}
		return newResult("gap_and_go", dir, price, 7, math.Min(math.Abs(daily), 0.08),
			rationalef("%.1f%% day vs %.1f%% ATR, expansion day", daily*100, atrPct*100))
	}

	dir := domain.DirectionLong
	if daily < 0 {
		dir = domain.DirectionShort
	}
	return newResult("gap_and_go", dir, price, 2, 0.015, "ordinary range day")
}

// StochRSIDivergenceBot flags oscillators disagreeing with each other as a
// warning of an unstable move.
type StochRSIDivergenceBot struct{}

func (StochRSIDivergenceBot) Name() string { return "stoch_rsi_divergence" }

func (StochRSIDivergenceBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("rsi_14", "stoch_k", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	rsi, k := f["rsi_14"], f["stoch_k"]

	rsiBull := rsi > 50
	stochBull := k > 50

	if rsiBull != stochBull {
		// Oscillators split: lean on RSI, lightly
		dir := domain.DirectionLong
		if !rsiBull {
			dir = domain.DirectionShort
		}
		return newResult("stoch_rsi_divergence", dir, price, 3, 0.02,
			rationalef("RSI %.1f and stochastic %.1f disagree", rsi, k))
	}

	dir := domain.DirectionLong
	if !rsiBull {
		dir = domain.DirectionShort
	}
	conf := 5 + int(math.Abs(rsi-50)/10)
	return newResult("stoch_rsi_divergence", dir, price, conf, 0.035,
		rationalef("RSI %.1f and stochastic %.1f aligned", rsi, k))
}

package bots

import (
	"math"

	"coinscan/internal/domain"
)

// Contrarian and reversal evaluators. The sentiment-aware variants read the
// sentiment_score feature when an enrichment pass has added it, and fall
// back to a pure rule-based read when it is absent. They never call external
// services themselves.

// MeanReversionBot fades the distance from the 20-day mean.
type MeanReversionBot struct{}

func (MeanReversionBot) Name() string { return "mean_reversion" }

func (MeanReversionBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sma_20", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	sma20 := f["sma_20"]
	if sma20 == 0 {
		return nil
	}

	dist := (price - sma20) / sma20
	// Stretched: expect a snap back toward the mean
	if math.Abs(dist) > 0.1 {
		dir := domain.DirectionShort
		if dist < 0 {
			dir = domain.DirectionLong
		}
		return newResult("mean_reversion", dir, price, 6+int(math.Abs(dist)*20), math.Min(math.Abs(dist)/2, 0.08),
			rationalef("price %.1f%% from SMA20, reversion expected", dist*100))
	}

	dir := domain.DirectionLong
	if dist < 0 {
		dir = domain.DirectionShort
	}
	return newResult("mean_reversion", dir, price, 2, 0.015, "price near its mean")
}

// OverextensionFadeBot fades violent weekly moves.
type OverextensionFadeBot struct{}

func (OverextensionFadeBot) Name() string { return "overextension_fade" }

func (OverextensionFadeBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("price_change_7d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	weekly := f["price_change_7d"]

	if weekly >= 0.25 {
		return newResult("overextension_fade", domain.DirectionShort, price, 7, 0.06,
			rationalef("up %.0f%% in 7d, overextended", weekly*100))
	}
	if weekly <= -0.25 {
		return newResult("overextension_fade", domain.DirectionLong, price, 7, 0.06,
			rationalef("down %.0f%% in 7d, capitulation fade", -weekly*100))
	}

	dir := domain.DirectionLong
	if weekly < 0 {
		dir = domain.DirectionShort
	}
	return newResult("overextension_fade", dir, price, 2, 0.015, "no overextension")
}

// CapitulationReversalBot wants a washed-out RSI plus a volume spike before
// calling a bottom (or a blow-off top).
type CapitulationReversalBot struct{}

func (CapitulationReversalBot) Name() string { return "capitulation_reversal" }

func (CapitulationReversalBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("rsi_14", "volume_24h", "volume_sma_20", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	rsi := f["rsi_14"]
	vol, avg := f["volume_24h"], f["volume_sma_20"]
	if avg == 0 {
		return nil
	}

	spike := vol/avg >= 1.8
	if rsi <= 25 && spike {
		return newResult("capitulation_reversal", domain.DirectionLong, price, 9, 0.08,
			rationalef("RSI %.1f with %.1fx volume, capitulation", rsi, vol/avg))
	}
	if rsi >= 75 && spike {
		return newResult("capitulation_reversal", domain.DirectionShort, price, 9, 0.08,
			rationalef("RSI %.1f with %.1fx volume, blow-off", rsi, vol/avg))
	}

	dir := domain.DirectionLong
	if rsi < 50 {
		dir = domain.DirectionShort
	}
	return newResult("capitulation_reversal", dir, price, 1, 0.01, "no capitulation signature")
}

// SentimentContrarianBot fades extreme sentiment when the enrichment pass has
// supplied a sentiment_score; without it, it falls back to fading the RSI.
type SentimentContrarianBot struct{}

func (SentimentContrarianBot) Name() string { return "sentiment_contrarian" }

func (SentimentContrarianBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("current_price") {
		return nil
	}
	price := f.CurrentPrice()

	if score, ok := f["sentiment_score"]; ok {
		if score >= 0.6 {
			return newResult("sentiment_contrarian", domain.DirectionShort, price, 6+int(score*3), 0.05,
				rationalef("crowd sentiment %.2f euphoric, fading", score))
		}
		if score <= -0.6 {
			return newResult("sentiment_contrarian", domain.DirectionLong, price, 6+int(-score*3), 0.05,
				rationalef("crowd sentiment %.2f despondent, fading", score))
		}
		dir := domain.DirectionLong
		if score < 0 {
			dir = domain.DirectionShort
		}
		return newResult("sentiment_contrarian", dir, price, 2, 0.015, "sentiment unremarkable")
	}

	// Rule-based fallback without enrichment data
	rsi, ok := f["rsi_14"]
	if !ok {
		return nil
	}
	if rsi >= 70 {
		return newResult("sentiment_contrarian", domain.DirectionShort, price, 5, 0.04,
			rationalef("no sentiment data, fading RSI %.1f", rsi))
	}
	if rsi <= 30 {
		return newResult("sentiment_contrarian", domain.DirectionLong, price, 5, 0.04,
			rationalef("no sentiment data, fading RSI %.1f", rsi))
	}
	dir := domain.DirectionLong
	if rsi < 50 {
		dir = domain.DirectionShort
	}
	return newResult("sentiment_contrarian", dir, price, 2, 0.015, "no extreme to fade")
}

// WeekendReversalBot fades small drifts against the monthly trend.
type WeekendReversalBot struct{}

func (WeekendReversalBot) Name() string { return "drift_reversal" }

func (WeekendReversalBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("price_change_24h", "price_change_30d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	daily, monthly := f["price_change_24h"], f["price_change_30d"]

	// Small counter-trend drift: expect the monthly trend to reassert
	if daily*monthly < 0 && math.Abs(daily) < 0.03 && math.Abs(monthly) > 0.1 {
		dir := domain.DirectionLong
		if monthly < 0 {
			dir = domain.DirectionShort
		}
		return newResult("drift_reversal", dir, price, 6, 0.04,
			rationalef("%.1f%% drift against %.0f%% monthly trend", daily*100, monthly*100))
	}

	dir := domain.DirectionLong
	if monthly < 0 {
		dir = domain.DirectionShort
	}
	return newResult("drift_reversal", dir, price, 2, 0.015, "no counter-trend drift")
}

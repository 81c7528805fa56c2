package bots

import (
	"math"

	"coinscan/internal/domain"
)

// Derivatives-driven evaluators. These require metrics the derivatives
// client merges into the feature map (funding_rate, open_interest_change,
// long_short_ratio); without a derivatives feed they simply return nil.

// FundingRateBot fades extreme perpetual funding.
type FundingRateBot struct{}

func (FundingRateBot) Name() string { return "funding_rate" }

func (FundingRateBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("funding_rate", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	funding := f["funding_rate"]

	// Heavily positive funding = crowded longs paying shorts
	if funding >= 0.0005 {
		return newResult("funding_rate", domain.DirectionShort, price, 6+int(funding*4000), 0.04,
			rationalef("funding %.4f%% crowded long", funding*100))
	}
	if funding <= -0.0005 {
		return newResult("funding_rate", domain.DirectionLong, price, 6+int(-funding*4000), 0.04,
			rationalef("funding %.4f%% crowded short", funding*100))
	}

	dir := domain.DirectionLong
	if funding > 0 {
		dir = domain.DirectionShort
	}
	return newResult("funding_rate", dir, price, 2, 0.015, "funding near neutral")
}

// OpenInterestBot reads open-interest change together with price direction:
// rising OI confirms the move, falling OI suggests a squeeze-driven one.
type OpenInterestBot struct{}

func (OpenInterestBot) Name() string { return "open_interest" }

func (OpenInterestBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("open_interest_change", "price_change_24h", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	oiChange := f["open_interest_change"]
	priceChange := f["price_change_24h"]

	dir := domain.DirectionLong
	if priceChange < 0 {
		dir = domain.DirectionShort
	}

	if oiChange > 0.05 {
		// New money behind the move
		return newResult("open_interest", dir, price, 7, 0.045,
			rationalef("OI up %.1f%% confirming %.1f%% move", oiChange*100, priceChange*100))
	}
	if oiChange < -0.05 {
		// Position closing: move likely to stall, take the other side
		if dir == domain.DirectionLong {
			dir = domain.DirectionShort
		} else {
			dir = domain.DirectionLong
		}
		return newResult("open_interest", dir, price, 5, 0.03,
			rationalef("OI down %.1f%%, move is unwinding", -oiChange*100))
	}

	return newResult("open_interest", dir, price, 2, 0.015, "open interest flat")
}

// LongShortRatioBot fades lopsided retail positioning.
type LongShortRatioBot struct{}

func (LongShortRatioBot) Name() string { return "long_short_ratio" }

func (LongShortRatioBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("long_short_ratio", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	ratio := f["long_short_ratio"]
	if ratio <= 0 {
		return nil
	}

	if ratio >= 2.5 {
		return newResult("long_short_ratio", domain.DirectionShort, price, 6+int(math.Min(ratio-2.5, 3)), 0.04,
			rationalef("longs outnumber shorts %.1f:1, crowded", ratio))
	}
	if ratio <= 0.4 {
		return newResult("long_short_ratio", domain.DirectionLong, price, 6+int(math.Min(1/ratio-2.5, 3)), 0.04,
			rationalef("shorts outnumber longs %.1f:1, crowded", 1/ratio))
	}

	dir := domain.DirectionLong
	if ratio > 1 {
		dir = domain.DirectionShort
	}
	return newResult("long_short_ratio", dir, price, 2, 0.015, "positioning balanced")
}

package bots

import (
	"math"

	"coinscan/internal/domain"
)

// Volume-driven evaluators (OBV, volume spikes, accumulation).

// OBVTrendBot reads the on-balance-volume direction over the last five days.
type OBVTrendBot struct{}

func (OBVTrendBot) Name() string { return "obv_trend" }

func (OBVTrendBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("obv", "obv_prev", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	obv, prev := f["obv"], f["obv_prev"]

	dir := domain.DirectionLong
	if obv < prev {
		dir = domain.DirectionShort
	}

	conf := 4
	if prev != 0 {
		conf = 4 + int(math.Min(math.Abs((obv-prev)/math.Abs(prev))*10, 4))
	}
	return newResult("obv_trend", dir, price, conf, 0.03,
		rationalef("OBV %.0f vs %.0f five days ago", obv, prev))
}

// VolumeSpikeBot reads the last day's volume against its 20-day average and
// sides with the day's price direction on a spike.
type VolumeSpikeBot struct{}

func (VolumeSpikeBot) Name() string { return "volume_spike" }

func (VolumeSpikeBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("volume_24h", "volume_sma_20", "price_change_24h", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	vol, avg := f["volume_24h"], f["volume_sma_20"]
	change := f["price_change_24h"]
	if avg == 0 {
		return nil
	}

	ratio := vol / avg
	dir := domain.DirectionLong
	if change < 0 {
		dir = domain.DirectionShort
	}

	if ratio >= 2.0 {
		return newResult("volume_spike", dir, price, 7+int(math.Min(ratio-2, 2)), 0.05,
			rationalef("volume %.1fx 20d average on a %.1f%% day", ratio, change*100))
	}
	return newResult("volume_spike", dir, price, 2, 0.015,
		rationalef("volume %.1fx average, no spike", ratio))
}

// VolumeDivergenceBot distrusts rallies on shrinking volume and breakdowns on
// shrinking volume alike.
type VolumeDivergenceBot struct{}

func (VolumeDivergenceBot) Name() string { return "volume_divergence" }

func (VolumeDivergenceBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("volume_24h", "volume_sma_20", "price_change_24h", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	vol, avg := f["volume_24h"], f["volume_sma_20"]
	change := f["price_change_24h"]
	if avg == 0 {
		return nil
	}

	thinVolume := vol < avg*0.6

	// Thin-volume move: fade it
	if thinVolume && math.Abs(change) > 0.02 {
		dir := domain.DirectionShort
		if change < 0 {
			dir = domain.DirectionLong
		}
		return newResult("volume_divergence", dir, price, 6, 0.035,
			rationalef("%.1f%% move on %.1fx volume, fading", change*100, vol/avg))
	}

	dir := domain.DirectionLong
	if change < 0 {
		dir = domain.DirectionShort
	}
	return newResult("volume_divergence", dir, price, 3, 0.02, "volume confirms price")
}

// AccumulationBot looks for rising OBV against flat price, an accumulation
// footprint.
type AccumulationBot struct{}

func (AccumulationBot) Name() string { return "accumulation" }

func (AccumulationBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("obv", "obv_prev", "price_change_7d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	obv, prev := f["obv"], f["obv_prev"]
	weekly := f["price_change_7d"]

	obvRising := obv > prev
	priceFlat := math.Abs(weekly) < 0.02

	if obvRising && priceFlat {
		return newResult("accumulation", domain.DirectionLong, price, 7, 0.05,
			"OBV rising against flat price, accumulation")
	}
	if !obvRising && priceFlat {
		return newResult("accumulation", domain.DirectionShort, price, 7, 0.05,
			"OBV falling against flat price, distribution")
	}

	dir := domain.DirectionLong
	if weekly < 0 {
		dir = domain.DirectionShort
	}
	return newResult("accumulation", dir, price, 2, 0.015, "no accumulation footprint")
}

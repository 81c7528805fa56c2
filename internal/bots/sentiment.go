package bots

import (
	"math"

	"coinscan/internal/domain"
)

// Enrichment-dependent evaluators. These only fire on feature maps that an
// enrichment pass has extended with sentiment keys, so the registry marks
// them RequiresEnrichment and Pass 1 skips them entirely.

// SentimentTrendBot sides with enriched sentiment when it agrees with the
// price trend.
type SentimentTrendBot struct{}

func (SentimentTrendBot) Name() string { return "sentiment_trend" }

func (SentimentTrendBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sentiment_score", "price_change_7d", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	score := f["sentiment_score"]
	weekly := f["price_change_7d"]

	if score > 0.2 && weekly > 0 {
		return newResult("sentiment_trend", domain.DirectionLong, price, 6+int(score*4), 0.05,
			rationalef("sentiment %.2f confirms %.1f%% weekly trend", score, weekly*100))
	}
	if score < -0.2 && weekly < 0 {
		return newResult("sentiment_trend", domain.DirectionShort, price, 6+int(-score*4), 0.05,
			rationalef("sentiment %.2f confirms %.1f%% weekly trend", score, weekly*100))
	}

	dir := domain.DirectionLong
	if score < 0 {
		dir = domain.DirectionShort
	}
	return newResult("sentiment_trend", dir, price, 3, 0.02, "sentiment and trend not aligned")
}

// SentimentMomentumBot weighs sentiment strength directly into conviction.
type SentimentMomentumBot struct{}

func (SentimentMomentumBot) Name() string { return "sentiment_momentum" }

func (SentimentMomentumBot) Evaluate(f domain.FeatureMap) *domain.StrategyResult {
	if !f.Has("sentiment_score", "current_price") {
		return nil
	}
	price := f.CurrentPrice()
	score := f["sentiment_score"]

	dir := domain.DirectionLong
	if score < 0 {
		dir = domain.DirectionShort
	}
	conf := 3 + int(math.Abs(score)*6)
	return newResult("sentiment_momentum", dir, price, conf, 0.02+math.Abs(score)*0.04,
		rationalef("sentiment score %.2f", score))
}

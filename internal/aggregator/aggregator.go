// Package aggregator reduces per-bot strategy results into per-coin
// consensus recommendations and ranks them into the three top-N views.
package aggregator

import (
	"sort"

	"coinscan/internal/domain"
)

// TopN is the size of each ranked view.
const TopN = 8

// Reduce collapses a coin's strategy results into one consensus
// recommendation. Returns nil for an empty input list.
//
// Consensus direction is a majority vote with ties broken toward long.
// Numeric fields are unweighted arithmetic means across ALL contributing
// results regardless of their direction. Averaging a long bot's take-profit
// with a short bot's is numerically questionable but is the observed
// contract of this pipeline; see DESIGN.md before changing it.
func Reduce(coin domain.Coin, results []domain.StrategyResult) *domain.AggregatedRecommendation {
	if len(results) == 0 {
		return nil
	}

	var (
		longs, shorts int
		sumConfidence float64
		sumEntry      float64
		sumTakeProfit float64
		sumStopLoss   float64
		sum24h        float64
		sum48h        float64
		sum7d         float64
	)

	for _, r := range results {
		if r.Direction == domain.DirectionShort {
			shorts++
		} else {
			longs++
		}
		sumConfidence += float64(r.Confidence)
		sumEntry += r.Entry
		sumTakeProfit += r.TakeProfit
		sumStopLoss += r.StopLoss
		sum24h += r.Predicted24h
		sum48h += r.Predicted48h
		sum7d += r.Predicted7d
	}

	n := float64(len(results))

	direction := domain.DirectionLong
	if shorts > longs {
		direction = domain.DirectionShort
	}

	return &domain.AggregatedRecommendation{
		Symbol:             coin.Symbol,
		Name:               coin.Name,
		CurrentPrice:       coin.Price,
		ConsensusDirection: direction,
		AvgConfidence:      sumConfidence / n,
		AvgEntry:           sumEntry / n,
		AvgTakeProfit:      sumTakeProfit / n,
		AvgStopLoss:        sumStopLoss / n,
		AvgPredicted24h:    sum24h / n,
		AvgPredicted48h:    sum48h / n,
		AvgPredicted7d:     sum7d / n,
		BotCount:           len(results),
		Rationale:          majorityRationale(results, direction),
	}
}

// majorityRationale picks the rationale of the highest-confidence result on
// the winning side, giving the consensus a human-readable anchor until the
// enrichment pass replaces it.
func majorityRationale(results []domain.StrategyResult, direction domain.Direction) string {
	best := ""
	bestConf := -1
	for _, r := range results {
		if r.Direction == direction && r.Confidence > bestConf {
			best = r.Rationale
			bestConf = r.Confidence
		}
	}
	return best
}

// RankedViews holds the three independent top-N views over a scan's full
// recommendation set.
type RankedViews struct {
	TopConfidence   []domain.AggregatedRecommendation
	TopPercentMover []domain.AggregatedRecommendation
	TopDollarMover  []domain.AggregatedRecommendation
}

// Rank builds the three views. Each view sorts the complete input
// independently, so a coin may appear in more than one view. Sorting is
// stable on the symbol as a secondary key, which makes the views a
// deterministic function of the input set regardless of collection order.
func Rank(recs []domain.AggregatedRecommendation) RankedViews {
	return RankedViews{
		TopConfidence: topBy(recs, func(a, b *domain.AggregatedRecommendation) bool {
			return a.AvgConfidence > b.AvgConfidence
		}),
		TopPercentMover: topBy(recs, func(a, b *domain.AggregatedRecommendation) bool {
			return a.PredictedPercentMove() > b.PredictedPercentMove()
		}),
		TopDollarMover: topBy(recs, func(a, b *domain.AggregatedRecommendation) bool {
			return a.PredictedDollarMove() > b.PredictedDollarMove()
		}),
	}
}

// Merge flattens the three views into one deduplicated list, tagging each
// coin with the first view it appeared in. Views are checked in a fixed
// order: confidence, then percent mover, then dollar mover.
func Merge(views RankedViews) []domain.AggregatedRecommendation {
	seen := make(map[string]bool)
	merged := make([]domain.AggregatedRecommendation, 0, 3*TopN)

	appendView := func(view []domain.AggregatedRecommendation, category string) {
		for _, rec := range view {
			if seen[rec.Symbol] {
				continue
			}
			seen[rec.Symbol] = true
			rec.Category = category
			merged = append(merged, rec)
		}
	}

	appendView(views.TopConfidence, domain.CategoryConfidence)
	appendView(views.TopPercentMover, domain.CategoryPercentMover)
	appendView(views.TopDollarMover, domain.CategoryDollarMover)

	return merged
}

// topBy returns the TopN recommendations under the given ordering.
func topBy(recs []domain.AggregatedRecommendation, less func(a, b *domain.AggregatedRecommendation) bool) []domain.AggregatedRecommendation {
	sorted := make([]domain.AggregatedRecommendation, len(recs))
	copy(sorted, recs)

	sort.SliceStable(sorted, func(i, j int) bool {
		if less(&sorted[i], &sorted[j]) {
			return true
		}
		if less(&sorted[j], &sorted[i]) {
			return false
		}
		return sorted[i].Symbol < sorted[j].Symbol
	})

	if len(sorted) > TopN {
		sorted = sorted[:TopN]
	}
	return sorted
}

package aggregator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinscan/internal/domain"
)

func result(bot string, dir domain.Direction, confidence int, predicted7d float64) domain.StrategyResult {
	return domain.StrategyResult{
		BotName:      bot,
		Direction:    dir,
		Entry:        100,
		TakeProfit:   predicted7d,
		StopLoss:     95,
		Confidence:   confidence,
		Rationale:    bot + " says so",
		Predicted24h: 100,
		Predicted48h: 100,
		Predicted7d:  predicted7d,
	}
}

func TestReduceEmptyInput(t *testing.T) {
	assert.Nil(t, Reduce(domain.Coin{Symbol: "BTC"}, nil))
}

func TestReduceMajorityVote(t *testing.T) {
	coin := domain.Coin{Symbol: "BTC", Name: "Bitcoin", Price: 100}

	rec := Reduce(coin, []domain.StrategyResult{
		result("a", domain.DirectionLong, 8, 110),
		result("b", domain.DirectionLong, 6, 108),
		result("c", domain.DirectionShort, 9, 90),
	})
	require.NotNil(t, rec)

	assert.Equal(t, domain.DirectionLong, rec.ConsensusDirection)
	assert.Equal(t, 3, rec.BotCount)
	assert.InDelta(t, (8+6+9)/3.0, rec.AvgConfidence, 1e-9)
	// Means run across ALL results, both directions included
	assert.InDelta(t, (110+108+90)/3.0, rec.AvgPredicted7d, 1e-9)
	// Rationale comes from the strongest bot on the winning side, not the
	// strongest overall
	assert.Equal(t, "a says so", rec.Rationale)
}

func TestReduceTieBreaksLong(t *testing.T) {
	coin := domain.Coin{Symbol: "ETH", Price: 100}

	rec := Reduce(coin, []domain.StrategyResult{
		result("a", domain.DirectionLong, 5, 105),
		result("b", domain.DirectionShort, 9, 92),
	})
	require.NotNil(t, rec)

	assert.Equal(t, domain.DirectionLong, rec.ConsensusDirection)
}

func TestReduceOrderIndependent(t *testing.T) {
	coin := domain.Coin{Symbol: "BTC", Name: "Bitcoin", Price: 100}

	results := []domain.StrategyResult{
		result("a", domain.DirectionLong, 8, 110),
		result("b", domain.DirectionShort, 4, 91),
		result("c", domain.DirectionLong, 6, 107),
		result("d", domain.DirectionShort, 9, 88),
		result("e", domain.DirectionLong, 7, 112),
	}

	base := Reduce(coin, results)
	require.NotNil(t, base)

	shuffled := []domain.StrategyResult{
		results[3], results[0], results[4], results[2], results[1],
	}
	reversed := make([]domain.StrategyResult, len(results))
	for i, r := range results {
		reversed[len(results)-1-i] = r
	}

	assert.Equal(t, base, Reduce(coin, shuffled),
		"consensus must not depend on collection order")
	assert.Equal(t, base, Reduce(coin, reversed),
		"consensus must not depend on collection order")
}

func TestReduceShortMajority(t *testing.T) {
	coin := domain.Coin{Symbol: "SOL", Price: 100}

	rec := Reduce(coin, []domain.StrategyResult{
		result("a", domain.DirectionShort, 5, 90),
		result("b", domain.DirectionShort, 6, 88),
		result("c", domain.DirectionLong, 10, 120),
	})
	require.NotNil(t, rec)

	assert.Equal(t, domain.DirectionShort, rec.ConsensusDirection)
}

// makeRecs builds n recommendations with distinct confidence, percent-move,
// and dollar-move orderings.
func makeRecs(n int) []domain.AggregatedRecommendation {
	recs := make([]domain.AggregatedRecommendation, 0, n)
	for i := 0; i < n; i++ {
		price := float64(10 * (i + 1))
		recs = append(recs, domain.AggregatedRecommendation{
			Symbol:         fmt.Sprintf("C%02d", i),
			CurrentPrice:   price,
			AvgConfidence:  float64(i),
			AvgPredicted7d: price * (1 + 0.01*float64(n-i)),
		})
	}
	return recs
}

func TestRankViewsAreIndependentTopEight(t *testing.T) {
	recs := makeRecs(20)
	views := Rank(recs)

	assert.Len(t, views.TopConfidence, TopN)
	assert.Len(t, views.TopPercentMover, TopN)
	assert.Len(t, views.TopDollarMover, TopN)

	// Confidence view descends
	for i := 1; i < len(views.TopConfidence); i++ {
		assert.GreaterOrEqual(t,
			views.TopConfidence[i-1].AvgConfidence,
			views.TopConfidence[i].AvgConfidence)
	}
	// Percent view descends on predicted percent move
	for i := 1; i < len(views.TopPercentMover); i++ {
		assert.GreaterOrEqual(t,
			views.TopPercentMover[i-1].PredictedPercentMove(),
			views.TopPercentMover[i].PredictedPercentMove())
	}
}

func TestRankDeterministicUnderInputOrder(t *testing.T) {
	recs := makeRecs(15)

	reversed := make([]domain.AggregatedRecommendation, len(recs))
	for i, rec := range recs {
		reversed[len(recs)-1-i] = rec
	}

	a := Rank(recs)
	b := Rank(reversed)

	assert.Equal(t, a, b, "ranking must not depend on collection order")
}

func TestRankFewerThanTopN(t *testing.T) {
	recs := makeRecs(3)
	views := Rank(recs)

	assert.Len(t, views.TopConfidence, 3)
	assert.Len(t, views.TopPercentMover, 3)
	assert.Len(t, views.TopDollarMover, 3)
}

func TestMergeDeduplicatesWithCategoryPriority(t *testing.T) {
	// A single dominant coin qualifies for every view but must appear once,
	// tagged with the first view in check order
	dominant := domain.AggregatedRecommendation{
		Symbol:         "WIN",
		CurrentPrice:   100,
		AvgConfidence:  99,
		AvgPredicted7d: 200,
	}
	filler := makeRecs(10)

	views := Rank(append(filler, dominant))
	merged := Merge(views)

	seen := 0
	for _, rec := range merged {
		if rec.Symbol == "WIN" {
			seen++
			assert.Equal(t, domain.CategoryConfidence, rec.Category)
		}
	}
	assert.Equal(t, 1, seen, "a coin may appear only once after merging")

	// No duplicates anywhere
	symbols := map[string]bool{}
	for _, rec := range merged {
		assert.False(t, symbols[rec.Symbol], "duplicate %s in merged list", rec.Symbol)
		symbols[rec.Symbol] = true
	}

	// Every merged entry carries a category tag
	for _, rec := range merged {
		assert.Contains(t,
			[]string{domain.CategoryConfidence, domain.CategoryPercentMover, domain.CategoryDollarMover},
			rec.Category)
	}
}

func TestMergeBoundedByViews(t *testing.T) {
	merged := Merge(Rank(makeRecs(40)))
	assert.LessOrEqual(t, len(merged), 3*TopN)
	assert.GreaterOrEqual(t, len(merged), TopN)
}

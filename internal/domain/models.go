// Package domain contains the core types of the scan pipeline and the
// interfaces of its external collaborators. The domain layer is pure: it has
// no infrastructure dependencies.
package domain

import "time"

// Direction is the side of a trade recommendation.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Scan run lifecycle statuses. Exactly one run may be in StatusRunning
// process-wide; the scan monitor enforces this.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusTimeout   = "timeout"
)

// Recommendation categories, assigned at ranking time. A coin that qualifies
// for more than one view keeps the first category in check order
// (confidence, then percent mover, then dollar mover).
const (
	CategoryConfidence   = "confidence"
	CategoryPercentMover = "percent_mover"
	CategoryDollarMover  = "dollar_mover"
)

// FeatureMap is a flat snapshot of named numeric indicators for one coin at
// scan time. It always contains "current_price". Later pipeline stages only
// add keys; a key is never removed or overwritten once set by an earlier
// stage.
type FeatureMap map[string]float64

// CurrentPrice returns the current_price feature, or 0 if absent.
func (f FeatureMap) CurrentPrice() float64 {
	return f["current_price"]
}

// Clone returns a shallow copy of the feature map. Enrichment merges operate
// on copies so Pass-1 state stays auditable.
func (f FeatureMap) Clone() FeatureMap {
	out := make(FeatureMap, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Has reports whether every named feature is present.
func (f FeatureMap) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := f[k]; !ok {
			return false
		}
	}
	return true
}

// Coin is one entry of the tradable universe.
type Coin struct {
	Symbol string
	Name   string
	Price  float64
}

// Candle is one OHLCV data point of a coin's price history.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// StrategyResult is the output of a single strategy evaluator for one coin.
// It is immutable once produced: persisted verbatim as a raw prediction row
// and then consumed, never mutated, by the aggregator.
type StrategyResult struct {
	BotName      string
	Direction    Direction
	Entry        float64
	TakeProfit   float64
	StopLoss     float64
	Confidence   int // clamped to [1,10] by the evaluator
	Rationale    string
	Predicted24h float64
	Predicted48h float64
	Predicted7d  float64
}

// AggregatedRecommendation is the per-coin consensus across all strategy
// results of one scan run. After Pass 1 it is immutable except for the
// rationale and sentiment fields, which an enrichment patch may replace.
type AggregatedRecommendation struct {
	Symbol             string
	Name               string
	CurrentPrice       float64
	ConsensusDirection Direction
	AvgConfidence      float64
	AvgEntry           float64
	AvgTakeProfit      float64
	AvgStopLoss        float64
	AvgPredicted24h    float64
	AvgPredicted48h    float64
	AvgPredicted7d     float64
	BotCount           int
	Category           string
	Rationale          string
	SentimentScore     float64
	SentimentText      string
}

// PredictedPercentMove returns the absolute predicted 7d move as a fraction
// of the current price. Used by the percent-mover ranking view.
func (r *AggregatedRecommendation) PredictedPercentMove() float64 {
	if r.CurrentPrice == 0 {
		return 0
	}
	move := (r.AvgPredicted7d - r.CurrentPrice) / r.CurrentPrice
	if move < 0 {
		return -move
	}
	return move
}

// PredictedDollarMove returns the absolute predicted 7d move in price units.
// Used by the dollar-mover ranking view.
func (r *AggregatedRecommendation) PredictedDollarMove() float64 {
	move := r.AvgPredicted7d - r.CurrentPrice
	if move < 0 {
		return -move
	}
	return move
}

// EnrichmentPatch is the output of the Pass-2 enrichment step for one coin.
// It is applied to an AggregatedRecommendation via Apply, a pure merge, so
// the Pass-1 aggregate itself is never mutated in place.
type EnrichmentPatch struct {
	Rationale      string
	SentimentScore float64
	SentimentText  string
}

// Apply returns a copy of rec with the patch fields replaced. All other
// fields keep their Pass-1 values exactly.
func (p EnrichmentPatch) Apply(rec AggregatedRecommendation) AggregatedRecommendation {
	if p.Rationale != "" {
		rec.Rationale = p.Rationale
	}
	rec.SentimentScore = p.SentimentScore
	rec.SentimentText = p.SentimentText
	return rec
}

// ScanRun is the persisted record of one scan. Created with StatusRunning at
// scan start, mutated in place as fields accumulate, and closed with exactly
// one terminal status.
type ScanRun struct {
	ID                  string
	ScanType            string
	Status              string
	FilterScope         string
	MinPrice            float64
	MaxPrice            float64
	CustomSymbols       []string
	TotalAvailableCoins int
	TotalCoins          int
	StartedAt           time.Time
	CompletedAt         *time.Time
	ErrorMessage        string
}

// SentimentData is the output of the sentiment analysis collaborator for one
// coin.
type SentimentData struct {
	Score    float64 // -1 (bearish) .. +1 (bullish)
	Text     string
	Features map[string]float64 // extra feature keys to merge (additive)
}

// MarketRegime is a best-effort classification tag attached to persisted
// predictions for later performance analytics. It is not used in the live
// aggregation decision.
type MarketRegime string

const (
	RegimeBull     MarketRegime = "bull"
	RegimeBear     MarketRegime = "bear"
	RegimeSideways MarketRegime = "sideways"
	RegimeUnknown  MarketRegime = "unknown"
)

package domain

import "context"

// MarketDataClient supplies the tradable coin universe and per-coin price
// history.
type MarketDataClient interface {
	// GetAllCoins returns up to maxCoins coins ordered by market cap.
	GetAllCoins(ctx context.Context, maxCoins int) ([]Coin, error)

	// GetHistoricalData returns daily candles for the symbol, most recent
	// last. Callers skip a coin when fewer than the minimum history length
	// is returned.
	GetHistoricalData(ctx context.Context, symbol string, days int) ([]Candle, error)
}

// DerivativesClient supplies optional derivatives metrics (funding rate,
// open interest, long/short ratio) merged into the feature map before
// evaluators run.
type DerivativesClient interface {
	GetAllDerivativesMetrics(ctx context.Context, symbol string) (map[string]float64, error)
}

// SentimentService is the Pass-2 enrichment collaborator.
type SentimentService interface {
	AnalyzeMarketSentiment(ctx context.Context, symbol, name string, price float64) (*SentimentData, error)
}

// SynthesisService produces a narrative rationale for an aggregated
// recommendation, replacing the rule-derived one during Pass 2.
type SynthesisService interface {
	SynthesizeRecommendation(ctx context.Context, rec AggregatedRecommendation, results []StrategyResult, features FeatureMap) (string, error)
}

// RegimeClassifier tags persisted predictions with a market-regime
// classification. Best effort: a classification failure never fails a scan.
type RegimeClassifier interface {
	Classify(ctx context.Context) (MarketRegime, error)
}

// Notifier delivers scan-completion notifications. Fire-and-forget from the
// orchestrator's perspective.
type Notifier interface {
	NotifyScanComplete(ctx context.Context, run ScanRun, recs []AggregatedRecommendation) error
}

// ScanRunRepository persists scan run records with upsert-by-id semantics.
type ScanRunRepository interface {
	Create(run *ScanRun) error
	Update(run *ScanRun) error
	GetByID(id string) (*ScanRun, error)
	GetRecent(limit int) ([]ScanRun, error)
}

// BotResultRepository persists raw per-evaluator predictions.
type BotResultRepository interface {
	Store(runID, symbol string, result StrategyResult) error
	TagRegime(runID string, regime MarketRegime) error
	GetByRun(runID string) (map[string][]StrategyResult, error)
}

// RecommendationRepository persists aggregated recommendations, unique by
// (run_id, symbol).
type RecommendationRepository interface {
	Store(runID string, rec AggregatedRecommendation) error
	GetByRun(runID string) ([]AggregatedRecommendation, error)
}

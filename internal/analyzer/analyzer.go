// Package analyzer runs every registered strategy evaluator against one
// coin's feature map and collects the non-nil results.
package analyzer

import (
	"github.com/rs/zerolog"

	"coinscan/internal/bots"
	"coinscan/internal/domain"
)

// CoinAnalyzer is the per-coin evaluator boundary. Evaluator panics stop at
// this boundary: a panicking bot contributes no result and the remaining
// bots still run.
type CoinAnalyzer struct {
	resultRepo domain.BotResultRepository
	log        zerolog.Logger
}

// New creates a new CoinAnalyzer.
func New(resultRepo domain.BotResultRepository, log zerolog.Logger) *CoinAnalyzer {
	return &CoinAnalyzer{
		resultRepo: resultRepo,
		log:        log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze runs the given evaluators sequentially against the coin's feature
// map. Evaluators are cheap, pure arithmetic; there is nothing to win by
// parallelizing within one coin.
//
// Each non-nil result has missing predicted prices backfilled with the
// current price ("no prediction" defaults to "no change"), is persisted as a
// raw prediction row, and is appended to the returned list. An empty list
// means the coin had insufficient data for every bot; callers drop the coin
// from the scan without treating it as a failure.
func (a *CoinAnalyzer) Analyze(runID string, coin domain.Coin, features domain.FeatureMap, evaluators []bots.Evaluator) []domain.StrategyResult {
	results := make([]domain.StrategyResult, 0, len(evaluators))

	for _, evaluator := range evaluators {
		result := a.evaluateSafe(evaluator, features)
		if result == nil {
			continue
		}

		backfillPredictions(result, coin.Price)

		if err := a.resultRepo.Store(runID, coin.Symbol, *result); err != nil {
			// Persistence of a single raw row is not worth losing the
			// in-memory result over
			a.log.Warn().Err(err).
				Str("symbol", coin.Symbol).
				Str("bot", evaluator.Name()).
				Msg("Failed to persist bot result")
		}

		results = append(results, *result)
	}

	if len(results) == 0 {
		a.log.Debug().Str("symbol", coin.Symbol).Msg("No bot results for coin, dropping")
	}

	return results
}

// evaluateSafe invokes one evaluator, converting a panic into a nil result.
func (a *CoinAnalyzer) evaluateSafe(evaluator bots.Evaluator, features domain.FeatureMap) (result *domain.StrategyResult) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn().
				Str("bot", evaluator.Name()).
				Interface("panic", r).
				Msg("Evaluator panicked, treating as no result")
			result = nil
		}
	}()

	return evaluator.Evaluate(features)
}

// backfillPredictions fills zero predicted prices with the current price.
func backfillPredictions(result *domain.StrategyResult, currentPrice float64) {
	if result.Predicted24h == 0 {
		result.Predicted24h = currentPrice
	}
	if result.Predicted48h == 0 {
		result.Predicted48h = currentPrice
	}
	if result.Predicted7d == 0 {
		result.Predicted7d = currentPrice
	}
}

// Package bots contains the rule-based strategy evaluators and their
// registry. Every evaluator is a pure function of the feature map: it reads
// named indicator features, branches on thresholds, and emits a
// direction/confidence/price-target tuple, or nil when a feature it depends
// on is absent. Nil is the sole "not applicable" signal and is not an error.
package bots

import (
	"fmt"

	"coinscan/internal/domain"
)

// Evaluator is the single contract every bot implements.
//
// Evaluate must not mutate the input feature map, must clamp confidence to
// [1,10], and must return nil (not panic) when a required feature is absent.
// Panics from broken arithmetic are recovered at the analyzer boundary and
// treated as "no result".
type Evaluator interface {
	Name() string
	Evaluate(f domain.FeatureMap) *domain.StrategyResult
}

// clampConfidence bounds confidence to the closed range [1,10].
func clampConfidence(c int) int {
	if c < 1 {
		return 1
	}
	if c > 10 {
		return 10
	}
	return c
}

// newResult builds a StrategyResult with targets derived from the current
// price. movePct is the expected favorable move over ~7 days as a fraction;
// the stop is placed at half that distance on the adverse side. Intermediate
// predictions interpolate toward the 7d target.
func newResult(name string, dir domain.Direction, price float64, confidence int, movePct float64, rationale string) *domain.StrategyResult {
	if movePct < 0 {
		movePct = -movePct
	}

	sign := 1.0
	if dir == domain.DirectionShort {
		sign = -1.0
	}

	target7d := price * (1 + sign*movePct)
	return &domain.StrategyResult{
		BotName:      name,
		Direction:    dir,
		Entry:        price,
		TakeProfit:   target7d,
		StopLoss:     price * (1 - sign*movePct/2),
		Confidence:   clampConfidence(confidence),
		Rationale:    rationale,
		Predicted24h: price * (1 + sign*movePct*0.25),
		Predicted48h: price * (1 + sign*movePct*0.5),
		Predicted7d:  target7d,
	}
}

// rationalef is a small fmt.Sprintf alias to keep evaluator bodies compact.
func rationalef(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// Package scan contains the scan orchestrator, its single-flight monitor,
// and the scan-type preset table.
package scan

import (
	"fmt"
	"sort"
	"time"
)

// TypeConfig is the complete tuning surface of one scan type. Every scan
// type is one of these values; behavior differences between types are data,
// not code paths.
type TypeConfig struct {
	Name string

	// MaxCoins bounds the universe fetch, ordered by market cap.
	MaxCoins int

	// BatchSize is the number of coins analyzed concurrently in the bulk
	// pass. 1 means sequential.
	BatchSize int

	// HistoryDays is the candle window requested per coin.
	HistoryDays int

	// EnrichTopN is how many top-confidence coins get the sentiment and
	// synthesis pass. 0 disables enrichment entirely.
	EnrichTopN int

	// Deadline bounds the whole run. Expiry marks the run timeout, not
	// failed.
	Deadline time.Duration
}

// presets is the named scan-type table. Historically each of these was its
// own orchestration method; they only ever differed in these five numbers.
var presets = map[string]TypeConfig{
	"quick": {
		Name: "quick", MaxCoins: 20, BatchSize: 5, HistoryDays: 90,
		EnrichTopN: 0, Deadline: 3 * time.Minute,
	},
	"quick_ai": {
		Name: "quick_ai", MaxCoins: 20, BatchSize: 5, HistoryDays: 90,
		EnrichTopN: 15, Deadline: 10 * time.Minute,
	},
	"standard": {
		Name: "standard", MaxCoins: 100, BatchSize: 5, HistoryDays: 180,
		EnrichTopN: 0, Deadline: 15 * time.Minute,
	},
	"standard_ai": {
		Name: "standard_ai", MaxCoins: 100, BatchSize: 5, HistoryDays: 180,
		EnrichTopN: 15, Deadline: 30 * time.Minute,
	},
	"deep": {
		Name: "deep", MaxCoins: 200, BatchSize: 8, HistoryDays: 365,
		EnrichTopN: 0, Deadline: 30 * time.Minute,
	},
	"deep_ai": {
		Name: "deep_ai", MaxCoins: 200, BatchSize: 8, HistoryDays: 365,
		EnrichTopN: 20, Deadline: 45 * time.Minute,
	},
	"full": {
		Name: "full", MaxCoins: 300, BatchSize: 8, HistoryDays: 365,
		EnrichTopN: 0, Deadline: 45 * time.Minute,
	},
	"full_ai": {
		Name: "full_ai", MaxCoins: 300, BatchSize: 8, HistoryDays: 365,
		EnrichTopN: 20, Deadline: 65 * time.Minute,
	},
	"alt_quick": {
		Name: "alt_quick", MaxCoins: 50, BatchSize: 5, HistoryDays: 90,
		EnrichTopN: 0, Deadline: 5 * time.Minute,
	},
	"alt_standard": {
		Name: "alt_standard", MaxCoins: 150, BatchSize: 5, HistoryDays: 180,
		EnrichTopN: 0, Deadline: 20 * time.Minute,
	},
	"alt_deep_ai": {
		Name: "alt_deep_ai", MaxCoins: 250, BatchSize: 8, HistoryDays: 365,
		EnrichTopN: 20, Deadline: 50 * time.Minute,
	},
	"majors": {
		Name: "majors", MaxCoins: 20, BatchSize: 3, HistoryDays: 365,
		EnrichTopN: 0, Deadline: 5 * time.Minute,
	},
	"majors_ai": {
		Name: "majors_ai", MaxCoins: 20, BatchSize: 3, HistoryDays: 365,
		EnrichTopN: 15, Deadline: 15 * time.Minute,
	},
	"micro": {
		Name: "micro", MaxCoins: 300, BatchSize: 8, HistoryDays: 90,
		EnrichTopN: 0, Deadline: 30 * time.Minute,
	},
	"custom": {
		Name: "custom", MaxCoins: 100, BatchSize: 1, HistoryDays: 180,
		EnrichTopN: 0, Deadline: 15 * time.Minute,
	},
	"custom_ai": {
		Name: "custom_ai", MaxCoins: 100, BatchSize: 1, HistoryDays: 180,
		EnrichTopN: 15, Deadline: 30 * time.Minute,
	},
}

// Preset returns the configuration of the named scan type.
func Preset(name string) (TypeConfig, error) {
	cfg, ok := presets[name]
	if !ok {
		return TypeConfig{}, fmt.Errorf("unknown scan type %q", name)
	}
	return cfg, nil
}

// PresetNames returns every configured scan-type name, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeadlineFor returns the deadline of a scan type, or a conservative
// fallback when the type is unknown. Used by the stuck-scan heuristic, which
// must not fail on a stale or renamed type name.
func DeadlineFor(name string) time.Duration {
	if cfg, ok := presets[name]; ok {
		return cfg.Deadline
	}
	return 65 * time.Minute
}

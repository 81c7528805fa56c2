package bots

import "sort"

// Entry pairs an evaluator with its registration metadata.
type Entry struct {
	Evaluator Evaluator

	// RequiresEnrichment marks evaluators that only make sense on feature
	// maps extended by the Pass-2 enrichment step. The bulk pass skips them.
	RequiresEnrichment bool
}

// Registry is the closed set of strategy evaluators, built explicitly at
// startup. There is no dynamic plugin loading; adding a bot means adding it
// to NewRegistry.
type Registry struct {
	entries []Entry
	byName  map[string]Evaluator
}

// NewRegistry builds the full evaluator set.
func NewRegistry() *Registry {
	entries := []Entry{
		// Trend
		{Evaluator: SMACrossBot{}},
		{Evaluator: GoldenCrossBot{}},
		{Evaluator: EMACrossBot{}},
		{Evaluator: PriceAboveSMABot{}},
		{Evaluator: LongTermTrendBot{}},
		{Evaluator: TrendSlopeBot{}},
		{Evaluator: TrendAlignmentBot{}},
		{Evaluator: MomentumContinuationBot{}},
		{Evaluator: MonthlyTrendBot{}},
		{Evaluator: PullbackEntryBot{}},

		// Momentum / oscillators
		{Evaluator: RSIBot{}},
		{Evaluator: RSIMomentumBot{}},
		{Evaluator: MACDCrossBot{}},
		{Evaluator: MACDHistogramBot{}},
		{Evaluator: MACDZeroLineBot{}},
		{Evaluator: StochasticBot{}},
		{Evaluator: StochasticCrossBot{}},
		{Evaluator: DailyMomentumBot{}},
		{Evaluator: MomentumDivergenceBot{}},
		{Evaluator: RSIStochComboBot{}},

		// Volatility / range
		{Evaluator: BollingerReversalBot{}},
		{Evaluator: BollingerBreakoutBot{}},
		{Evaluator: BollingerSqueezeBot{}},
		{Evaluator: ATRPositionBot{}},
		{Evaluator: ChannelPositionBot{}},
		{Evaluator: RangeBreakoutBot{}},
		{Evaluator: VolatilityRegimeBot{}},
		{Evaluator: ATRStopHunterBot{}},

		// Volume
		{Evaluator: OBVTrendBot{}},
		{Evaluator: VolumeSpikeBot{}},
		{Evaluator: VolumeDivergenceBot{}},
		{Evaluator: AccumulationBot{}},

		// Contrarian / reversal
		{Evaluator: MeanReversionBot{}},
		{Evaluator: OverextensionFadeBot{}},
		{Evaluator: CapitulationReversalBot{}},
		{Evaluator: SentimentContrarianBot{}},
		{Evaluator: WeekendReversalBot{}},

		// Derivatives
		{Evaluator: FundingRateBot{}},
		{Evaluator: OpenInterestBot{}},
		{Evaluator: LongShortRatioBot{}},

		// Composite
		{Evaluator: ConfluenceBot{}},
		{Evaluator: TripleScreenBot{}},
		{Evaluator: TrendMomentumComboBot{}},
		{Evaluator: BreakoutConfirmationBot{}},
		{Evaluator: DipBuyerBot{}},
		{Evaluator: RiskRewardBot{}},
		{Evaluator: SwingBot{}},
		{Evaluator: GapAndGoBot{}},
		{Evaluator: StochRSIDivergenceBot{}},

		// Enrichment-dependent (skipped in the bulk pass)
		{Evaluator: SentimentTrendBot{}, RequiresEnrichment: true},
		{Evaluator: SentimentMomentumBot{}, RequiresEnrichment: true},
	}

	byName := make(map[string]Evaluator, len(entries))
	for _, e := range entries {
		byName[e.Evaluator.Name()] = e.Evaluator
	}

	return &Registry{
		entries: entries,
		byName:  byName,
	}
}

// All returns every registered entry in registration order.
func (r *Registry) All() []Entry {
	return r.entries
}

// Cheap returns the evaluators the bulk pass runs: everything that does not
// depend on external enrichment.
func (r *Registry) Cheap() []Evaluator {
	out := make([]Evaluator, 0, len(r.entries))
	for _, e := range r.entries {
		if !e.RequiresEnrichment {
			out = append(out, e.Evaluator)
		}
	}
	return out
}

// Enrichment returns the evaluators that only run on enriched feature maps.
func (r *Registry) Enrichment() []Evaluator {
	out := make([]Evaluator, 0, 2)
	for _, e := range r.entries {
		if e.RequiresEnrichment {
			out = append(out, e.Evaluator)
		}
	}
	return out
}

// Get returns the evaluator with the given name, or nil.
func (r *Registry) Get(name string) Evaluator {
	return r.byName[name]
}

// Count returns the number of registered evaluators.
func (r *Registry) Count() int {
	return len(r.entries)
}

// Names returns all evaluator names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

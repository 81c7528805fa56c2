package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"coinscan/internal/aggregator"
	"coinscan/internal/analyzer"
	"coinscan/internal/bots"
	"coinscan/internal/domain"
	"coinscan/internal/events"
	"coinscan/internal/features"
)

// majorSymbols are excluded by the "alt" filter scope.
var majorSymbols = map[string]bool{
	"BTC": true, "ETH": true, "USDT": true, "USDC": true,
	"BNB": true, "XRP": true, "SOL": true, "ADA": true,
}

// Request is one scan invocation as received from the HTTP layer or the
// scheduler.
type Request struct {
	ScanType      string
	FilterScope   string // "" or "all" keeps everything, "alt" drops majors
	MinPrice      float64
	MaxPrice      float64
	CustomSymbols []string
	UserID        string
}

// Result is what a finished run reports back to its caller, terminal status
// included.
type Result struct {
	RunID           string
	Status          string
	TotalCoins      int
	Recommendations []domain.AggregatedRecommendation
}

// Deps are the orchestrator's collaborators. Derivatives, sentiment,
// synthesis, regime, and notifier are optional; a nil value disables that
// step.
type Deps struct {
	Market      domain.MarketDataClient
	Derivatives domain.DerivativesClient
	Sentiment   domain.SentimentService
	Synthesis   domain.SynthesisService
	Regime      domain.RegimeClassifier
	Notifier    domain.Notifier
	RunRepo     domain.ScanRunRepository
	BotRepo     domain.BotResultRepository
	RecRepo     domain.RecommendationRepository
	Analyzer    *analyzer.CoinAnalyzer
	Registry    *bots.Registry
	Monitor     *Monitor
	Bus         *events.Bus
}

// Orchestrator drives a scan run end to end: universe fetch, filtering, the
// bulk analysis pass, the selective enrichment pass, ranking, persistence,
// and notification.
type Orchestrator struct {
	deps Deps
	log  zerolog.Logger
}

// NewOrchestrator creates a scan orchestrator.
func NewOrchestrator(deps Deps, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		deps: deps,
		log:  log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run executes one scan synchronously and returns its outcome. At most one
// run is active process-wide; a second call while one is running fails fast
// with ErrScanInProgress. The run is bounded by the scan type's deadline;
// expiry closes the run with the timeout status rather than failed.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	preset, err := Preset(req.ScanType)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, preset.Deadline)
	defer cancel()

	run := &domain.ScanRun{
		ID:            uuid.NewString(),
		ScanType:      preset.Name,
		Status:        domain.StatusRunning,
		FilterScope:   req.FilterScope,
		MinPrice:      req.MinPrice,
		MaxPrice:      req.MaxPrice,
		CustomSymbols: req.CustomSymbols,
		StartedAt:     time.Now().UTC(),
	}

	if err := o.deps.Monitor.TryAcquire(run.ID, preset.Name, preset.Deadline, cancel); err != nil {
		return nil, err
	}
	defer o.deps.Monitor.Release(run.ID)

	if err := o.deps.RunRepo.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create scan run: %w", err)
	}

	o.log.Info().
		Str("run_id", run.ID).
		Str("scan_type", preset.Name).
		Str("user_id", req.UserID).
		Msg("Scan started")
	o.publish(events.TypeScanStarted, run.ID, map[string]any{"scan_type": preset.Name})

	recs, execErr := o.execute(runCtx, run, preset, req)

	now := time.Now().UTC()
	run.CompletedAt = &now
	switch {
	case execErr == nil:
		run.Status = domain.StatusCompleted
	case errors.Is(execErr, context.DeadlineExceeded):
		run.Status = domain.StatusTimeout
		run.ErrorMessage = fmt.Sprintf("scan exceeded its %s deadline", preset.Deadline)
	case errors.Is(execErr, context.Canceled):
		run.Status = domain.StatusFailed
		run.ErrorMessage = "scan cancelled"
	default:
		run.Status = domain.StatusFailed
		run.ErrorMessage = execErr.Error()
	}

	if err := o.deps.RunRepo.Update(run); err != nil {
		o.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to persist scan run outcome")
	}

	o.publish(events.TypeScanFinished, run.ID, map[string]any{
		"status":      run.Status,
		"total_coins": run.TotalCoins,
	})
	o.log.Info().
		Str("run_id", run.ID).
		Str("status", run.Status).
		Int("recommendations", len(recs)).
		Dur("elapsed", now.Sub(run.StartedAt)).
		Msg("Scan finished")

	if run.Status == domain.StatusCompleted {
		o.notify(*run, recs)
	}

	if execErr != nil {
		return &Result{RunID: run.ID, Status: run.Status, TotalCoins: run.TotalCoins}, execErr
	}
	return &Result{
		RunID:           run.ID,
		Status:          run.Status,
		TotalCoins:      run.TotalCoins,
		Recommendations: recs,
	}, nil
}

// coinOutcome carries one coin's Pass-1 output forward so the enrichment
// pass can reuse the feature map and raw results without refetching.
type coinOutcome struct {
	coin    domain.Coin
	rec     domain.AggregatedRecommendation
	feats   domain.FeatureMap
	results []domain.StrategyResult
}

func (o *Orchestrator) execute(ctx context.Context, run *domain.ScanRun, preset TypeConfig, req Request) ([]domain.AggregatedRecommendation, error) {
	universe, err := o.deps.Market.GetAllCoins(ctx, preset.MaxCoins)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coin universe: %w", err)
	}
	run.TotalAvailableCoins = len(universe)

	selected := applyFilters(universe, req)
	run.TotalCoins = len(selected)
	if len(selected) == 0 {
		return nil, errors.New("no coins matched the scan filters")
	}

	outcomes, err := o.bulkPass(ctx, run.ID, selected, preset)
	if err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		return nil, errors.New("no coins produced analysis results")
	}
	o.publish(events.TypePassCompleted, run.ID, map[string]any{"pass": 1, "coins": len(outcomes)})

	if preset.EnrichTopN > 0 && o.deps.Sentiment != nil {
		o.enrichPass(ctx, run.ID, outcomes, preset.EnrichTopN)
		o.publish(events.TypePassCompleted, run.ID, map[string]any{"pass": 2})
	}

	recs := make([]domain.AggregatedRecommendation, len(outcomes))
	for i, out := range outcomes {
		recs[i] = out.rec
	}

	merged := aggregator.Merge(aggregator.Rank(recs))
	for _, rec := range merged {
		if err := o.deps.RecRepo.Store(run.ID, rec); err != nil {
			o.log.Warn().Err(err).
				Str("run_id", run.ID).
				Str("symbol", rec.Symbol).
				Msg("Failed to persist recommendation")
		}
	}

	o.tagRegime(ctx, run.ID)

	return merged, nil
}

// bulkPass analyzes the selected coins in fixed-size concurrent batches.
// Failures are per-coin: a failing batch member is dropped while its
// siblings finish. Only context expiry aborts the pass.
func (o *Orchestrator) bulkPass(ctx context.Context, runID string, coins []domain.Coin, preset TypeConfig) ([]*coinOutcome, error) {
	batchSize := preset.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	cheap := o.deps.Registry.Cheap()
	outcomes := make([]*coinOutcome, 0, len(coins))

	for start := 0; start < len(coins); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + batchSize
		if end > len(coins) {
			end = len(coins)
		}
		batch := coins[start:end]
		slots := make([]*coinOutcome, len(batch))

		var wg sync.WaitGroup
		for i, coin := range batch {
			wg.Add(1)
			go func(i int, coin domain.Coin) {
				defer wg.Done()
				out, err := o.analyzeCoin(ctx, runID, coin, preset, cheap)
				if err != nil {
					o.log.Warn().Err(err).Str("symbol", coin.Symbol).Msg("Coin analysis failed, dropping")
					return
				}
				slots[i] = out
			}(i, coin)
		}
		wg.Wait()

		for _, out := range slots {
			if out == nil {
				continue
			}
			outcomes = append(outcomes, out)
			o.publish(events.TypeCoinAnalyzed, runID, map[string]any{
				"symbol":     out.coin.Symbol,
				"bot_count":  out.rec.BotCount,
				"confidence": out.rec.AvgConfidence,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// analyzeCoin runs the whole Pass-1 pipeline for one coin. A nil outcome
// with a nil error means the coin was skipped for insufficient data.
func (o *Orchestrator) analyzeCoin(ctx context.Context, runID string, coin domain.Coin, preset TypeConfig, evaluators []bots.Evaluator) (*coinOutcome, error) {
	candles, err := o.deps.Market.GetHistoricalData(ctx, coin.Symbol, preset.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("history fetch failed: %w", err)
	}
	if len(candles) < features.MinHistory {
		o.log.Debug().
			Str("symbol", coin.Symbol).
			Int("candles", len(candles)).
			Msg("Insufficient history, skipping coin")
		return nil, nil
	}

	var derivMetrics map[string]float64
	if o.deps.Derivatives != nil {
		derivMetrics, err = o.deps.Derivatives.GetAllDerivativesMetrics(ctx, coin.Symbol)
		if err != nil {
			// Derivatives metrics are a bonus, not a requirement
			o.log.Debug().Err(err).Str("symbol", coin.Symbol).Msg("Derivatives metrics unavailable")
			derivMetrics = nil
		}
	}

	feats, err := features.Compute(candles, derivMetrics)
	if err != nil {
		return nil, fmt.Errorf("feature computation failed: %w", err)
	}

	results := o.deps.Analyzer.Analyze(runID, coin, feats, evaluators)
	if len(results) == 0 {
		return nil, nil
	}

	rec := aggregator.Reduce(coin, results)
	return &coinOutcome{coin: coin, rec: *rec, feats: feats, results: results}, nil
}

// enrichPass runs sentiment analysis and rationale synthesis on the top-N
// coins by Pass-1 confidence. Each coin is enriched independently; a failure
// leaves that coin's Pass-1 recommendation untouched.
func (o *Orchestrator) enrichPass(ctx context.Context, runID string, outcomes []*coinOutcome, topN int) {
	order := make([]int, len(outcomes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		oa, ob := outcomes[order[a]], outcomes[order[b]]
		if oa.rec.AvgConfidence != ob.rec.AvgConfidence {
			return oa.rec.AvgConfidence > ob.rec.AvgConfidence
		}
		return oa.rec.Symbol < ob.rec.Symbol
	})
	if len(order) > topN {
		order = order[:topN]
	}

	enrichBots := o.deps.Registry.Enrichment()

	for _, idx := range order {
		if ctx.Err() != nil {
			o.log.Warn().Str("run_id", runID).Msg("Enrichment pass cut short by deadline")
			return
		}

		out := outcomes[idx]
		patch, err := o.enrichCoin(ctx, runID, out, enrichBots)
		if err != nil {
			o.log.Warn().Err(err).Str("symbol", out.coin.Symbol).Msg("Enrichment failed, keeping first-pass result")
			continue
		}
		out.rec = patch.Apply(out.rec)
	}
}

// enrichCoin produces the enrichment patch for one coin: sentiment fields
// plus a synthesized rationale. Sentiment feature keys are merged additively
// into a copy of the feature map, never overwriting an existing key.
func (o *Orchestrator) enrichCoin(ctx context.Context, runID string, out *coinOutcome, enrichBots []bots.Evaluator) (domain.EnrichmentPatch, error) {
	sentiment, err := o.deps.Sentiment.AnalyzeMarketSentiment(ctx, out.coin.Symbol, out.coin.Name, out.coin.Price)
	if err != nil {
		return domain.EnrichmentPatch{}, fmt.Errorf("sentiment analysis failed: %w", err)
	}

	enriched := out.feats.Clone()
	if _, ok := enriched["sentiment_score"]; !ok {
		enriched["sentiment_score"] = sentiment.Score
	}
	for k, v := range sentiment.Features {
		if _, ok := enriched[k]; !ok {
			enriched[k] = v
		}
	}

	// Sentiment-dependent evaluators run now that their inputs exist. Their
	// rows are persisted for analytics but the Pass-1 aggregate stands.
	extra := o.deps.Analyzer.Analyze(runID, out.coin, enriched, enrichBots)

	patch := domain.EnrichmentPatch{
		SentimentScore: sentiment.Score,
		SentimentText:  sentiment.Text,
	}

	if o.deps.Synthesis != nil {
		all := append(append([]domain.StrategyResult{}, out.results...), extra...)
		rationale, err := o.deps.Synthesis.SynthesizeRecommendation(ctx, out.rec, all, enriched)
		if err != nil {
			o.log.Warn().Err(err).Str("symbol", out.coin.Symbol).Msg("Rationale synthesis failed, keeping rule rationale")
		} else {
			patch.Rationale = rationale
		}
	}

	return patch, nil
}

// tagRegime stamps the run's raw predictions with a market-regime
// classification. Best effort in both directions.
func (o *Orchestrator) tagRegime(ctx context.Context, runID string) {
	if o.deps.Regime == nil {
		return
	}

	regime, err := o.deps.Regime.Classify(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("Regime classification failed")
		return
	}
	if err := o.deps.BotRepo.TagRegime(runID, regime); err != nil {
		o.log.Warn().Err(err).Str("run_id", runID).Msg("Failed to tag regime")
	}
}

// notify delivers the completion notification on its own context so a run
// that finished near its deadline can still report.
func (o *Orchestrator) notify(run domain.ScanRun, recs []domain.AggregatedRecommendation) {
	if o.deps.Notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := o.deps.Notifier.NotifyScanComplete(ctx, run, recs); err != nil {
		o.log.Warn().Err(err).Str("run_id", run.ID).Msg("Scan notification failed")
	}
}

// applyFilters selects the coins a run analyzes. A custom allowlist
// short-circuits the scope filter; price bounds always apply.
func applyFilters(universe []domain.Coin, req Request) []domain.Coin {
	allowlist := make(map[string]bool, len(req.CustomSymbols))
	for _, s := range req.CustomSymbols {
		allowlist[strings.ToUpper(strings.TrimSpace(s))] = true
	}

	selected := make([]domain.Coin, 0, len(universe))
	for _, coin := range universe {
		symbol := strings.ToUpper(coin.Symbol)

		if len(allowlist) > 0 {
			if !allowlist[symbol] {
				continue
			}
		} else if req.FilterScope == "alt" && majorSymbols[symbol] {
			continue
		}

		if req.MinPrice > 0 && coin.Price < req.MinPrice {
			continue
		}
		if req.MaxPrice > 0 && coin.Price > req.MaxPrice {
			continue
		}
		selected = append(selected, coin)
	}
	return selected
}

// publish emits a progress event if a bus is wired.
func (o *Orchestrator) publish(eventType, runID string, payload map[string]any) {
	if o.deps.Bus == nil {
		return
	}
	o.deps.Bus.Publish(events.Event{Type: eventType, RunID: runID, Payload: payload})
}

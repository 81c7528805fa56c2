package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"coinscan/internal/domain"
)

// BotResultRepository handles raw per-evaluator prediction rows.
type BotResultRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBotResultRepository creates a new bot result repository.
func NewBotResultRepository(db *sql.DB, log zerolog.Logger) *BotResultRepository {
	return &BotResultRepository{
		db:  db,
		log: log.With().Str("repo", "bot_result").Logger(),
	}
}

// Store upserts one raw prediction row, keyed by (run_id, symbol, bot_name).
func (r *BotResultRepository) Store(runID, symbol string, result domain.StrategyResult) error {
	query := `
		INSERT OR REPLACE INTO bot_results
		(run_id, symbol, bot_name, direction, entry, take_profit, stop_loss,
		 confidence, rationale, predicted_24h, predicted_48h, predicted_7d,
		 market_regime, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', ?)
	`

	_, err := r.db.Exec(query,
		runID,
		symbol,
		result.BotName,
		string(result.Direction),
		result.Entry,
		result.TakeProfit,
		result.StopLoss,
		result.Confidence,
		result.Rationale,
		result.Predicted24h,
		result.Predicted48h,
		result.Predicted7d,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store bot result: %w", err)
	}

	return nil
}

// TagRegime stamps every prediction of a run with the market-regime
// classification. Best-effort analytics metadata; callers treat a failure
// here as a warning, never as a scan failure.
func (r *BotResultRepository) TagRegime(runID string, regime domain.MarketRegime) error {
	result, err := r.db.Exec(
		"UPDATE bot_results SET market_regime = ? WHERE run_id = ?",
		string(regime), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to tag regime: %w", err)
	}

	rows, _ := result.RowsAffected()
	r.log.Debug().Str("run_id", runID).Str("regime", string(regime)).Int64("rows", rows).Msg("Regime tagged")
	return nil
}

// GetByRun returns all raw predictions of a run grouped by symbol.
func (r *BotResultRepository) GetByRun(runID string) (map[string][]domain.StrategyResult, error) {
	query := `
		SELECT symbol, bot_name, direction, entry, take_profit, stop_loss,
		       confidence, rationale, predicted_24h, predicted_48h, predicted_7d
		FROM bot_results
		WHERE run_id = ?
		ORDER BY symbol, bot_name
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bot results: %w", err)
	}
	defer rows.Close()

	results := make(map[string][]domain.StrategyResult)
	for rows.Next() {
		var symbol, direction string
		var res domain.StrategyResult

		err := rows.Scan(
			&symbol,
			&res.BotName,
			&direction,
			&res.Entry,
			&res.TakeProfit,
			&res.StopLoss,
			&res.Confidence,
			&res.Rationale,
			&res.Predicted24h,
			&res.Predicted48h,
			&res.Predicted7d,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bot result row: %w", err)
		}

		res.Direction = domain.Direction(direction)
		results[symbol] = append(results[symbol], res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bot results: %w", err)
	}

	return results, nil
}

package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"coinscan/internal/domain"
)

// RecommendationRepository handles aggregated recommendation rows, unique
// by (run_id, symbol). The category tag may duplicate a coin across display
// views; storage stays canonical by symbol.
type RecommendationRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRecommendationRepository creates a new recommendation repository.
func NewRecommendationRepository(db *sql.DB, log zerolog.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		db:  db,
		log: log.With().Str("repo", "recommendation").Logger(),
	}
}

// Store upserts one aggregated recommendation.
func (r *RecommendationRepository) Store(runID string, rec domain.AggregatedRecommendation) error {
	query := `
		INSERT OR REPLACE INTO recommendations
		(run_id, symbol, name, current_price, consensus_direction, avg_confidence,
		 avg_entry, avg_take_profit, avg_stop_loss,
		 avg_predicted_24h, avg_predicted_48h, avg_predicted_7d,
		 bot_count, category, rationale, sentiment_score, sentiment_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		runID,
		rec.Symbol,
		rec.Name,
		rec.CurrentPrice,
		string(rec.ConsensusDirection),
		rec.AvgConfidence,
		rec.AvgEntry,
		rec.AvgTakeProfit,
		rec.AvgStopLoss,
		rec.AvgPredicted24h,
		rec.AvgPredicted48h,
		rec.AvgPredicted7d,
		rec.BotCount,
		rec.Category,
		rec.Rationale,
		rec.SentimentScore,
		rec.SentimentText,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store recommendation: %w", err)
	}

	return nil
}

// GetByRun returns all recommendations of a run ordered by confidence.
func (r *RecommendationRepository) GetByRun(runID string) ([]domain.AggregatedRecommendation, error) {
	query := `
		SELECT symbol, name, current_price, consensus_direction, avg_confidence,
		       avg_entry, avg_take_profit, avg_stop_loss,
		       avg_predicted_24h, avg_predicted_48h, avg_predicted_7d,
		       bot_count, category, rationale, sentiment_score, sentiment_text
		FROM recommendations
		WHERE run_id = ?
		ORDER BY avg_confidence DESC, symbol
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []domain.AggregatedRecommendation
	for rows.Next() {
		var rec domain.AggregatedRecommendation
		var direction string

		err := rows.Scan(
			&rec.Symbol,
			&rec.Name,
			&rec.CurrentPrice,
			&direction,
			&rec.AvgConfidence,
			&rec.AvgEntry,
			&rec.AvgTakeProfit,
			&rec.AvgStopLoss,
			&rec.AvgPredicted24h,
			&rec.AvgPredicted48h,
			&rec.AvgPredicted7d,
			&rec.BotCount,
			&rec.Category,
			&rec.Rationale,
			&rec.SentimentScore,
			&rec.SentimentText,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation row: %w", err)
		}

		rec.ConsensusDirection = domain.Direction(direction)
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}

	return recs, nil
}

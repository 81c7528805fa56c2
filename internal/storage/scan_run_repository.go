// Package storage contains the sqlite repositories for scan runs, raw bot
// results, and aggregated recommendations. All writes are idempotent
// upserts keyed by their natural ids; there is no cross-coin transactional
// guarantee, and partial persistence after a crash is expected to be
// resolved by re-running a scan.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"coinscan/internal/domain"
)

// ScanRunRepository handles scan_runs table operations.
type ScanRunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewScanRunRepository creates a new scan run repository.
func NewScanRunRepository(db *sql.DB, log zerolog.Logger) *ScanRunRepository {
	return &ScanRunRepository{
		db:  db,
		log: log.With().Str("repo", "scan_run").Logger(),
	}
}

// Create persists a new scan run record.
func (r *ScanRunRepository) Create(run *domain.ScanRun) error {
	query := `
		INSERT INTO scan_runs
		(id, scan_type, status, filter_scope, min_price, max_price, custom_symbols,
		 total_available_coins, total_coins, started_at, completed_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.ScanType,
		run.Status,
		run.FilterScope,
		run.MinPrice,
		run.MaxPrice,
		strings.Join(run.CustomSymbols, ","),
		run.TotalAvailableCoins,
		run.TotalCoins,
		run.StartedAt.Unix(),
		nullUnix(run.CompletedAt),
		run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create scan run: %w", err)
	}

	r.log.Info().Str("run_id", run.ID).Str("scan_type", run.ScanType).Msg("Scan run created")
	return nil
}

// Update rewrites the mutable fields of an existing scan run.
func (r *ScanRunRepository) Update(run *domain.ScanRun) error {
	query := `
		UPDATE scan_runs
		SET status = ?, total_available_coins = ?, total_coins = ?,
		    completed_at = ?, error_message = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Status,
		run.TotalAvailableCoins,
		run.TotalCoins,
		nullUnix(run.CompletedAt),
		run.ErrorMessage,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update scan run: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("scan run %s not found", run.ID)
	}

	return nil
}

// GetByID returns a scan run by id, or nil when not found.
func (r *ScanRunRepository) GetByID(id string) (*domain.ScanRun, error) {
	query := `
		SELECT id, scan_type, status, filter_scope, min_price, max_price, custom_symbols,
		       total_available_coins, total_coins, started_at, completed_at, error_message
		FROM scan_runs WHERE id = ?
	`

	row := r.db.QueryRow(query, id)

	var run domain.ScanRun
	var customSymbols string
	var startedAt int64
	var completedAt sql.NullInt64

	err := row.Scan(
		&run.ID,
		&run.ScanType,
		&run.Status,
		&run.FilterScope,
		&run.MinPrice,
		&run.MaxPrice,
		&customSymbols,
		&run.TotalAvailableCoins,
		&run.TotalCoins,
		&startedAt,
		&completedAt,
		&run.ErrorMessage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan run: %w", err)
	}

	if customSymbols != "" {
		run.CustomSymbols = strings.Split(customSymbols, ",")
	}
	run.StartedAt = time.Unix(startedAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		run.CompletedAt = &t
	}

	return &run, nil
}

// GetRecent returns the most recent scan runs, newest first.
func (r *ScanRunRepository) GetRecent(limit int) ([]domain.ScanRun, error) {
	query := `
		SELECT id, scan_type, status, filter_scope, min_price, max_price, custom_symbols,
		       total_available_coins, total_coins, started_at, completed_at, error_message
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scan runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ScanRun
	for rows.Next() {
		var run domain.ScanRun
		var customSymbols string
		var startedAt int64
		var completedAt sql.NullInt64

		err := rows.Scan(
			&run.ID,
			&run.ScanType,
			&run.Status,
			&run.FilterScope,
			&run.MinPrice,
			&run.MaxPrice,
			&customSymbols,
			&run.TotalAvailableCoins,
			&run.TotalCoins,
			&startedAt,
			&completedAt,
			&run.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan run row: %w", err)
		}

		if customSymbols != "" {
			run.CustomSymbols = strings.Split(customSymbols, ",")
		}
		run.StartedAt = time.Unix(startedAt, 0).UTC()
		if completedAt.Valid {
			t := time.Unix(completedAt.Int64, 0).UTC()
			run.CompletedAt = &t
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan runs: %w", err)
	}

	return runs, nil
}

// nullUnix converts an optional time to a nullable unix timestamp.
func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"coinscan/internal/domain"
)

// DefaultCandleTTL is how long a cached history window is considered fresh.
// Daily candles only change once a day; anything under that is a rate-limit
// courtesy to the upstream API.
const DefaultCandleTTL = 4 * time.Hour

// CandleCache stores per-coin candle history as msgpack blobs in the cache
// database, keyed by (symbol, days). It is a read-through cache: misses and
// decode failures both report a miss and the caller refetches.
type CandleCache struct {
	db  *sql.DB
	ttl time.Duration
	log zerolog.Logger
}

// NewCandleCache creates a candle cache. A non-positive ttl falls back to
// DefaultCandleTTL.
func NewCandleCache(db *sql.DB, ttl time.Duration, log zerolog.Logger) *CandleCache {
	if ttl <= 0 {
		ttl = DefaultCandleTTL
	}
	return &CandleCache{
		db:  db,
		ttl: ttl,
		log: log.With().Str("repo", "candle_cache").Logger(),
	}
}

// Get returns the cached candles for (symbol, days) if present and fresh.
func (c *CandleCache) Get(symbol string, days int) ([]domain.Candle, bool) {
	var payload []byte
	var fetchedAt int64

	err := c.db.QueryRow(
		"SELECT payload, fetched_at FROM candle_cache WHERE symbol = ? AND days = ?",
		symbol, days,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Candle cache read failed")
		return nil, false
	}

	if time.Since(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false
	}

	var candles []domain.Candle
	if err := msgpack.Unmarshal(payload, &candles); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Candle cache decode failed, treating as miss")
		return nil, false
	}

	return candles, true
}

// Store upserts the candle history for (symbol, days).
func (c *CandleCache) Store(symbol string, days int, candles []domain.Candle) error {
	payload, err := msgpack.Marshal(candles)
	if err != nil {
		return fmt.Errorf("failed to encode candles: %w", err)
	}

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO candle_cache (symbol, days, payload, fetched_at) VALUES (?, ?, ?, ?)",
		symbol, days, payload, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store candles: %w", err)
	}
	return nil
}

// DeleteExpired removes entries older than the TTL and returns how many were
// dropped. Run periodically by the scheduler.
func (c *CandleCache) DeleteExpired() (int64, error) {
	cutoff := time.Now().Add(-c.ttl).Unix()

	result, err := c.db.Exec("DELETE FROM candle_cache WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired candles: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		c.log.Debug().Int64("deleted", deleted).Msg("Expired candle cache entries removed")
	}
	return deleted, nil
}

package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinscan/internal/database"
	"coinscan/internal/domain"
)

// testDB opens a throwaway database with the named schema applied.
func testDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), name+".db"),
		Name: name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func sampleRun(id string) *domain.ScanRun {
	return &domain.ScanRun{
		ID:                  id,
		ScanType:            "quick",
		Status:              domain.StatusRunning,
		FilterScope:         "alt",
		MinPrice:            0.01,
		MaxPrice:            1000,
		CustomSymbols:       []string{"BTC", "ETH"},
		TotalAvailableCoins: 100,
		TotalCoins:          42,
		StartedAt:           time.Now().UTC().Truncate(time.Second),
	}
}

func TestScanRunRoundtrip(t *testing.T) {
	db := testDB(t, "scans")
	repo := NewScanRunRepository(db.Conn(), zerolog.Nop())

	run := sampleRun("run-1")
	require.NoError(t, repo.Create(run))

	got, err := repo.GetByID("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.ScanType, got.ScanType)
	assert.Equal(t, domain.StatusRunning, got.Status)
	assert.Equal(t, []string{"BTC", "ETH"}, got.CustomSymbols)
	assert.Equal(t, 42, got.TotalCoins)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
	assert.Nil(t, got.CompletedAt)
}

func TestScanRunUpdate(t *testing.T) {
	db := testDB(t, "scans")
	repo := NewScanRunRepository(db.Conn(), zerolog.Nop())

	run := sampleRun("run-1")
	require.NoError(t, repo.Create(run))

	now := time.Now().UTC().Truncate(time.Second)
	run.Status = domain.StatusTimeout
	run.ErrorMessage = "deadline exceeded"
	run.CompletedAt = &now
	require.NoError(t, repo.Update(run))

	got, err := repo.GetByID("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusTimeout, got.Status)
	assert.Equal(t, "deadline exceeded", got.ErrorMessage)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, now.Equal(*got.CompletedAt))
}

func TestScanRunUpdateMissing(t *testing.T) {
	db := testDB(t, "scans")
	repo := NewScanRunRepository(db.Conn(), zerolog.Nop())

	err := repo.Update(sampleRun("ghost"))
	assert.Error(t, err)
}

func TestScanRunGetByIDNotFound(t *testing.T) {
	db := testDB(t, "scans")
	repo := NewScanRunRepository(db.Conn(), zerolog.Nop())

	got, err := repo.GetByID("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScanRunGetRecentOrder(t *testing.T) {
	db := testDB(t, "scans")
	repo := NewScanRunRepository(db.Conn(), zerolog.Nop())

	old := sampleRun("old")
	old.StartedAt = time.Now().UTC().Add(-2 * time.Hour)
	recent := sampleRun("recent")
	recent.StartedAt = time.Now().UTC()

	require.NoError(t, repo.Create(old))
	require.NoError(t, repo.Create(recent))

	runs, err := repo.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "recent", runs[0].ID)
	assert.Equal(t, "old", runs[1].ID)

	limited, err := repo.GetRecent(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestBotResultStoreAndGroup(t *testing.T) {
	db := testDB(t, "scans")
	repo := NewBotResultRepository(db.Conn(), zerolog.Nop())

	res := domain.StrategyResult{
		BotName:      "sma_cross",
		Direction:    domain.DirectionLong,
		Entry:        100,
		TakeProfit:   110,
		StopLoss:     95,
		Confidence:   7,
		Rationale:    "spread",
		Predicted24h: 101,
		Predicted48h: 103,
		Predicted7d:  110,
	}

	require.NoError(t, repo.Store("run-1", "BTC", res))
	res.BotName = "rsi"
	require.NoError(t, repo.Store("run-1", "BTC", res))
	res.BotName = "sma_cross"
	require.NoError(t, repo.Store("run-1", "ETH", res))

	// Upsert by (run, symbol, bot): storing again must not add a row
	res.Confidence = 9
	require.NoError(t, repo.Store("run-1", "ETH", res))

	grouped, err := repo.GetByRun("run-1")
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Len(t, grouped["BTC"], 2)
	require.Len(t, grouped["ETH"], 1)
	assert.Equal(t, 9, grouped["ETH"][0].Confidence)
}

func TestBotResultTagRegime(t *testing.T) {
	db := testDB(t, "scans")
	repo := NewBotResultRepository(db.Conn(), zerolog.Nop())

	res := domain.StrategyResult{BotName: "sma_cross", Direction: domain.DirectionLong, Confidence: 5}
	require.NoError(t, repo.Store("run-1", "BTC", res))
	require.NoError(t, repo.Store("run-2", "BTC", res))

	require.NoError(t, repo.TagRegime("run-1", domain.RegimeBull))

	var regime string
	err := db.Conn().QueryRow(
		"SELECT market_regime FROM bot_results WHERE run_id = 'run-1'",
	).Scan(&regime)
	require.NoError(t, err)
	assert.Equal(t, "bull", regime)

	// The other run stays untagged
	err = db.Conn().QueryRow(
		"SELECT market_regime FROM bot_results WHERE run_id = 'run-2'",
	).Scan(&regime)
	require.NoError(t, err)
	assert.Empty(t, regime)
}

func TestRecommendationRoundtrip(t *testing.T) {
	db := testDB(t, "scans")
	repo := NewRecommendationRepository(db.Conn(), zerolog.Nop())

	rec := domain.AggregatedRecommendation{
		Symbol:             "BTC",
		Name:               "Bitcoin",
		CurrentPrice:       60000,
		ConsensusDirection: domain.DirectionLong,
		AvgConfidence:      7.5,
		AvgEntry:           60000,
		AvgTakeProfit:      66000,
		AvgStopLoss:        57000,
		AvgPredicted24h:    60500,
		AvgPredicted48h:    61500,
		AvgPredicted7d:     66000,
		BotCount:           35,
		Category:           domain.CategoryConfidence,
		Rationale:          "broad agreement",
		SentimentScore:     0.4,
		SentimentText:      "positive",
	}
	require.NoError(t, repo.Store("run-1", rec))

	low := rec
	low.Symbol = "DOGE"
	low.AvgConfidence = 3.2
	require.NoError(t, repo.Store("run-1", low))

	recs, err := repo.GetByRun("run-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Ordered by confidence descending
	assert.Equal(t, "BTC", recs[0].Symbol)
	assert.Equal(t, rec, recs[0])
	assert.Equal(t, "DOGE", recs[1].Symbol)
}

func TestRecommendationUpsert(t *testing.T) {
	db := testDB(t, "scans")
	repo := NewRecommendationRepository(db.Conn(), zerolog.Nop())

	rec := domain.AggregatedRecommendation{
		Symbol:             "BTC",
		ConsensusDirection: domain.DirectionLong,
		AvgConfidence:      5,
	}
	require.NoError(t, repo.Store("run-1", rec))

	rec.Rationale = "enriched narrative"
	rec.SentimentScore = 0.9
	require.NoError(t, repo.Store("run-1", rec))

	recs, err := repo.GetByRun("run-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "enriched narrative", recs[0].Rationale)
	assert.Equal(t, 0.9, recs[0].SentimentScore)
}

func TestCandleCacheRoundtrip(t *testing.T) {
	db := testDB(t, "cache")
	cache := NewCandleCache(db.Conn(), time.Hour, zerolog.Nop())

	_, ok := cache.Get("BTC", 90)
	assert.False(t, ok)

	candles := []domain.Candle{
		{Timestamp: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Open: 99, High: 101, Low: 98, Close: 100, Volume: 5000},
		{Timestamp: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC), Open: 100, High: 103, Low: 99, Close: 102, Volume: 6000},
	}
	require.NoError(t, cache.Store("BTC", 90, candles))

	got, ok := cache.Get("BTC", 90)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got[0].Close)
	assert.True(t, candles[0].Timestamp.Equal(got[0].Timestamp))

	// A different window is a different entry
	_, ok = cache.Get("BTC", 30)
	assert.False(t, ok)
}

func TestCandleCacheExpiry(t *testing.T) {
	db := testDB(t, "cache")
	cache := NewCandleCache(db.Conn(), time.Millisecond, zerolog.Nop())

	require.NoError(t, cache.Store("BTC", 90, []domain.Candle{{Close: 100}}))
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get("BTC", 90)
	assert.False(t, ok, "stale entries must read as misses")
}

func TestCandleCacheDeleteExpired(t *testing.T) {
	db := testDB(t, "cache")
	cache := NewCandleCache(db.Conn(), time.Hour, zerolog.Nop())

	require.NoError(t, cache.Store("BTC", 90, []domain.Candle{{Close: 100}}))

	// Nothing is old enough yet
	deleted, err := cache.DeleteExpired()
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// Backdate the row past the TTL
	_, err = db.Conn().Exec("UPDATE candle_cache SET fetched_at = fetched_at - 7200")
	require.NoError(t, err)

	deleted, err = cache.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

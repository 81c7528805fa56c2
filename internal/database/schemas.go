package database

// schemas maps database names to their embedded schema SQL. All statements
// are idempotent so they can run on every startup.
var schemas = map[string]string{
	"scans": scansSchema,
	"cache": cacheSchema,
}

// scansSchema holds scan runs, raw per-bot predictions, and aggregated
// recommendations. Recommendations are canonical by (run_id, symbol); the
// category tag may duplicate a coin across display views but never across
// storage rows.
const scansSchema = `
CREATE TABLE IF NOT EXISTS scan_runs (
    id                    TEXT PRIMARY KEY,
    scan_type             TEXT NOT NULL,
    status                TEXT NOT NULL,
    filter_scope          TEXT NOT NULL DEFAULT '',
    min_price             REAL NOT NULL DEFAULT 0,
    max_price             REAL NOT NULL DEFAULT 0,
    custom_symbols        TEXT NOT NULL DEFAULT '',
    total_available_coins INTEGER NOT NULL DEFAULT 0,
    total_coins           INTEGER NOT NULL DEFAULT 0,
    started_at            INTEGER NOT NULL,
    completed_at          INTEGER,
    error_message         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS bot_results (
    run_id        TEXT NOT NULL,
    symbol        TEXT NOT NULL,
    bot_name      TEXT NOT NULL,
    direction     TEXT NOT NULL,
    entry         REAL NOT NULL,
    take_profit   REAL NOT NULL,
    stop_loss     REAL NOT NULL,
    confidence    INTEGER NOT NULL,
    rationale     TEXT NOT NULL DEFAULT '',
    predicted_24h REAL NOT NULL,
    predicted_48h REAL NOT NULL,
    predicted_7d  REAL NOT NULL,
    market_regime TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,
    PRIMARY KEY (run_id, symbol, bot_name)
);

CREATE INDEX IF NOT EXISTS idx_bot_results_run ON bot_results(run_id);

CREATE TABLE IF NOT EXISTS recommendations (
    run_id              TEXT NOT NULL,
    symbol              TEXT NOT NULL,
    name                TEXT NOT NULL DEFAULT '',
    current_price       REAL NOT NULL,
    consensus_direction TEXT NOT NULL,
    avg_confidence      REAL NOT NULL,
    avg_entry           REAL NOT NULL,
    avg_take_profit     REAL NOT NULL,
    avg_stop_loss       REAL NOT NULL,
    avg_predicted_24h   REAL NOT NULL,
    avg_predicted_48h   REAL NOT NULL,
    avg_predicted_7d    REAL NOT NULL,
    bot_count           INTEGER NOT NULL,
    category            TEXT NOT NULL DEFAULT '',
    rationale           TEXT NOT NULL DEFAULT '',
    sentiment_score     REAL NOT NULL DEFAULT 0,
    sentiment_text      TEXT NOT NULL DEFAULT '',
    created_at          INTEGER NOT NULL,
    PRIMARY KEY (run_id, symbol)
);

CREATE INDEX IF NOT EXISTS idx_recommendations_run ON recommendations(run_id);
`

// cacheSchema holds ephemeral candle-history blobs (msgpack encoded).
const cacheSchema = `
CREATE TABLE IF NOT EXISTS candle_cache (
    symbol     TEXT NOT NULL,
    days       INTEGER NOT NULL,
    payload    BLOB NOT NULL,
    fetched_at INTEGER NOT NULL,
    PRIMARY KEY (symbol, days)
);
`

package database

// schema is the single source of truth for the application database.
const schema = `
-- Realized earnings-day price reactions. One row per (ticker, earnings_date);
-- rows are immutable once the event has settled.
CREATE TABLE IF NOT EXISTS historical_moves (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker            TEXT    NOT NULL,
    earnings_date     TEXT    NOT NULL,
    prev_close        REAL    NOT NULL,
    earnings_close    REAL    NOT NULL,
    close_move_pct    REAL    NOT NULL,
    gap_move_pct      REAL    NOT NULL,
    intraday_move_pct REAL    NOT NULL,
    created_at        TEXT    NOT NULL DEFAULT (datetime('now')),
    UNIQUE (ticker, earnings_date)
);

CREATE INDEX IF NOT EXISTS idx_moves_ticker_date
    ON historical_moves (ticker, earnings_date DESC);

-- Daily implied-volatility observations, one per (ticker, date).
-- Source marks backfilled realized-vol proxies vs true IV readings.
CREATE TABLE IF NOT EXISTS iv_history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker     TEXT NOT NULL,
    date       TEXT NOT NULL,
    iv         REAL NOT NULL,
    source     TEXT NOT NULL DEFAULT 'live',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE (ticker, date)
);

CREATE INDEX IF NOT EXISTS idx_iv_ticker_date
    ON iv_history (ticker, date DESC);

-- One row per scan run.
CREATE TABLE IF NOT EXISTS scans (
    id          TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    finished_at TEXT,
    candidates  INTEGER NOT NULL DEFAULT 0,
    scored      INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0
);

-- Ranked per-ticker results of a scan run.
CREATE TABLE IF NOT EXISTS scan_results (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    scan_id          TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
    ticker           TEXT NOT NULL,
    earnings_date    TEXT,
    score            REAL NOT NULL,
    implied_move_pct REAL,
    vrp_ratio        REAL,
    edge_score       REAL,
    recommendation   TEXT,
    quarters_of_data INTEGER,
    predicted_move_pct REAL,
    prediction_confidence REAL,
    created_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_results_scan_score
    ON scan_results (scan_id, score DESC);
`

package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS combined_daily (
    ticker TEXT NOT NULL,
    day TEXT NOT NULL,
    close REAL NOT NULL,
    sentiment REAL NOT NULL,
    updated_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (ticker, day)
);

CREATE TABLE IF NOT EXISTS watchlist (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol TEXT UNIQUE NOT NULL COLLATE NOCASE,
    note TEXT,
    is_active INTEGER DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT DEFAULT (datetime('now')),
    tickers_requested INTEGER DEFAULT 0,
    tickers_processed INTEGER DEFAULT 0,
    tickers_skipped INTEGER DEFAULT 0,
    headlines_seen INTEGER DEFAULT 0,
    rows_upserted INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_day TEXT UNIQUE NOT NULL,
    body_markdown TEXT NOT NULL,
    sentiment_lag INTEGER DEFAULT 1,
    price_change_lag INTEGER DEFAULT 1,
    tickers TEXT,
    generated_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_combined_ticker ON combined_daily(ticker);
CREATE INDEX IF NOT EXISTS idx_combined_day ON combined_daily(day);
CREATE INDEX IF NOT EXISTS idx_reports_day ON reports(run_day);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

package database

import (
	"database/sql"
	"time"
)

// Today returns today's date as YYYY-MM-DD.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// InsertRun records audit metadata for a completed pipeline run.
func (db *DB) InsertRun(run Run) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO runs
		(tickers_requested, tickers_processed, tickers_skipped, headlines_seen, rows_upserted)
		VALUES (?, ?, ?, ?, ?)`,
		run.TickersRequested, run.TickersProcessed, run.TickersSkipped,
		run.HeadlinesSeen, run.RowsUpserted,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLastRun returns the most recent run, or nil when none exist.
func (db *DB) GetLastRun() (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, started_at, tickers_requested, tickers_processed, tickers_skipped,
		headlines_seen, rows_upserted
		FROM runs ORDER BY id DESC LIMIT 1`,
	)

	var r Run
	err := row.Scan(&r.ID, &r.StartedAt, &r.TickersRequested, &r.TickersProcessed,
		&r.TickersSkipped, &r.HeadlinesSeen, &r.RowsUpserted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// UpsertSeries writes a batch of combined rows in a single transaction.
// An existing (ticker, day) pair is overwritten, so re-running a pipeline
// over the same window refreshes rather than duplicates. Returns the number
// of rows written; on error nothing from the batch is persisted.
func (db *DB) UpsertSeries(rows []SeriesRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO combined_daily (ticker, day, close, sentiment)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (ticker, day) DO UPDATE SET
			close = excluded.close,
			sentiment = excluded.sentiment,
			updated_at = datetime('now')`,
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.Ticker, r.Day, r.Close, r.Sentiment); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("upsert %s %s: %w", r.Ticker, r.Day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return len(rows), nil
}

// FetchSeries returns combined rows ordered by ticker then day. All filters
// are optional: nil tickers means every ticker, nil day bounds mean the full
// stored range.
func (db *DB) FetchSeries(tickers []string, fromDay, toDay *string) ([]SeriesRow, error) {
	query := `SELECT ticker, day, close, sentiment, updated_at FROM combined_daily`
	var conds []string
	var args []any

	if len(tickers) > 0 {
		placeholders := strings.Repeat("?,", len(tickers))
		conds = append(conds, fmt.Sprintf("ticker IN (%s)", placeholders[:len(placeholders)-1]))
		for _, t := range tickers {
			args = append(args, t)
		}
	}
	if fromDay != nil {
		conds = append(conds, "day >= ?")
		args = append(args, *fromDay)
	}
	if toDay != nil {
		conds = append(conds, "day <= ?")
		args = append(args, *toDay)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ticker, day"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeriesRows(rows)
}

// GetSeriesForTicker returns the full stored series for one ticker,
// ascending by day.
func (db *DB) GetSeriesForTicker(ticker string) ([]SeriesRow, error) {
	rows, err := db.conn.Query(
		`SELECT ticker, day, close, sentiment, updated_at
		FROM combined_daily WHERE ticker = ? ORDER BY day`, ticker,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeriesRows(rows)
}

// DistinctTickers returns every ticker present in the combined series,
// sorted alphabetically.
func (db *DB) DistinctTickers() ([]string, error) {
	rows, err := db.conn.Query("SELECT DISTINCT ticker FROM combined_daily ORDER BY ticker")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// DayRange returns the earliest and latest stored day for a ticker.
// Both are empty when the ticker has no rows.
func (db *DB) DayRange(ticker string) (first, last string, err error) {
	var minDay, maxDay sql.NullString
	err = db.conn.QueryRow(
		"SELECT MIN(day), MAX(day) FROM combined_daily WHERE ticker = ?", ticker,
	).Scan(&minDay, &maxDay)
	if err != nil {
		return "", "", err
	}
	return minDay.String, maxDay.String, nil
}

func scanSeriesRows(rows *sql.Rows) ([]SeriesRow, error) {
	var series []SeriesRow
	for rows.Next() {
		var r SeriesRow
		if err := rows.Scan(&r.Ticker, &r.Day, &r.Close, &r.Sentiment, &r.UpdatedAt); err != nil {
			return nil, err
		}
		series = append(series, r)
	}
	return series, rows.Err()
}

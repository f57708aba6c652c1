package database

import (
	"database/sql"
	"encoding/json"
)

// InsertReport inserts or replaces the correlation report for a run day.
func (db *DB) InsertReport(runDay, bodyMarkdown string, sentimentLag, priceChangeLag int, tickers []string) (int64, error) {
	tickersJSON, err := json.Marshal(tickers)
	if err != nil {
		return 0, err
	}

	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO reports
		(run_day, body_markdown, sentiment_lag, price_change_lag, tickers)
		VALUES (?, ?, ?, ?, ?)`,
		runDay, bodyMarkdown, sentimentLag, priceChangeLag, string(tickersJSON),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetReport returns the report stored for a run day, or nil if none exists.
func (db *DB) GetReport(runDay string) (*Report, error) {
	row := db.conn.QueryRow(
		`SELECT id, run_day, body_markdown, sentiment_lag, price_change_lag, tickers, generated_at
		FROM reports WHERE run_day = ?`, runDay,
	)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetLatestReport returns the most recent report, or nil when none exist.
func (db *DB) GetLatestReport() (*Report, error) {
	row := db.conn.QueryRow(
		`SELECT id, run_day, body_markdown, sentiment_lag, price_change_lag, tickers, generated_at
		FROM reports ORDER BY run_day DESC LIMIT 1`,
	)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetAllReports returns all stored reports ordered by run_day DESC.
func (db *DB) GetAllReports() ([]Report, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_day, body_markdown, sentiment_lag, price_change_lag, tickers, generated_at
		FROM reports ORDER BY run_day DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		var tickersJSON sql.NullString
		if err := rows.Scan(&r.ID, &r.RunDay, &r.BodyMarkdown, &r.SentimentLag,
			&r.PriceChangeLag, &tickersJSON, &r.GeneratedAt); err != nil {
			return nil, err
		}
		r.Tickers = parseTickersJSON(tickersJSON)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM combined_daily", &s.SeriesRows},
		{"SELECT COUNT(DISTINCT ticker) FROM combined_daily", &s.Tickers},
		{"SELECT COUNT(*) FROM runs", &s.Runs},
		{"SELECT COUNT(*) FROM reports", &s.Reports},
		{"SELECT COUNT(*) FROM watchlist", &s.WatchlistTotal},
		{"SELECT COUNT(*) FROM watchlist WHERE is_active = 1", &s.WatchlistActive},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	var first, last sql.NullString
	if err := db.conn.QueryRow("SELECT MIN(day), MAX(day) FROM combined_daily").Scan(&first, &last); err != nil {
		return nil, err
	}
	s.FirstDay = first.String
	s.LastDay = last.String

	return s, nil
}

func scanReport(row *sql.Row) (*Report, error) {
	var r Report
	var tickersJSON sql.NullString
	if err := row.Scan(&r.ID, &r.RunDay, &r.BodyMarkdown, &r.SentimentLag,
		&r.PriceChangeLag, &tickersJSON, &r.GeneratedAt); err != nil {
		return nil, err
	}
	r.Tickers = parseTickersJSON(tickersJSON)
	return &r, nil
}

func parseTickersJSON(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var tickers []string
	if err := json.Unmarshal([]byte(s.String), &tickers); err != nil {
		return nil
	}
	return tickers
}

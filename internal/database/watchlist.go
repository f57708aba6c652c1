package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// AddTicker puts a symbol on the watchlist. Re-adding an existing symbol
// reactivates it and refreshes the note. Returns the entry ID.
func (db *DB) AddTicker(symbol string, note *string) (int64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("empty ticker symbol")
	}

	_, err := db.conn.Exec(
		`INSERT INTO watchlist (symbol, note)
		VALUES (?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			note = COALESCE(excluded.note, note),
			is_active = 1,
			updated_at = datetime('now')`,
		symbol, note,
	)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := db.conn.QueryRow("SELECT id FROM watchlist WHERE symbol = ?", symbol).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// RemoveTicker deletes a symbol from the watchlist.
func (db *DB) RemoveTicker(symbol string) error {
	result, err := db.conn.Exec(
		"DELETE FROM watchlist WHERE symbol = ?", strings.ToUpper(strings.TrimSpace(symbol)),
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("ticker %s is not on the watchlist", symbol)
	}
	return nil
}

// ToggleTicker flips a watchlist entry between active and inactive.
func (db *DB) ToggleTicker(symbol string) error {
	result, err := db.conn.Exec(
		"UPDATE watchlist SET is_active = NOT is_active, updated_at = datetime('now') WHERE symbol = ?",
		strings.ToUpper(strings.TrimSpace(symbol)),
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("ticker %s is not on the watchlist", symbol)
	}
	return nil
}

// GetWatchlist returns watchlist entries, optionally only active ones,
// ordered by symbol.
func (db *DB) GetWatchlist(activeOnly bool) ([]WatchlistEntry, error) {
	query := "SELECT id, symbol, note, is_active, created_at, updated_at FROM watchlist"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY symbol"

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []WatchlistEntry
	for rows.Next() {
		var e WatchlistEntry
		var active int
		if err := rows.Scan(&e.ID, &e.Symbol, &e.Note, &active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.IsActive = active != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetTickerEntry returns one watchlist entry by symbol, or nil if absent.
func (db *DB) GetTickerEntry(symbol string) (*WatchlistEntry, error) {
	row := db.conn.QueryRow(
		"SELECT id, symbol, note, is_active, created_at, updated_at FROM watchlist WHERE symbol = ?",
		strings.ToUpper(strings.TrimSpace(symbol)),
	)
	var e WatchlistEntry
	var active int
	err := row.Scan(&e.ID, &e.Symbol, &e.Note, &active, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.IsActive = active != 0
	return &e, nil
}

// ActiveSymbols returns the active watchlist symbols in order.
func (db *DB) ActiveSymbols() ([]string, error) {
	entries, err := db.GetWatchlist(true)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}
	return symbols, nil
}

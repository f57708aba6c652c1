// Package align joins daily sentiment and price series on calendar day.
package align

import (
	"sort"

	"github.com/mkarlsen/tickermood/internal/prices"
)

// Row is one aligned day of a ticker's combined series. Rows only exist
// for days present in both inputs.
type Row struct {
	Ticker    string
	Day       string // YYYY-MM-DD
	Close     float64
	Sentiment float64
}

// Join inner-joins a daily sentiment map with price points on day and
// returns rows ascending by day. Duplicate price days are collapsed
// before joining, last one wins. No overlap yields an empty slice, not
// an error.
func Join(ticker string, daily map[string]float64, points []prices.Point) []Row {
	if len(daily) == 0 || len(points) == 0 {
		return nil
	}

	closes := make(map[string]float64, len(points))
	for _, p := range points {
		closes[p.Day] = p.Close
	}

	var rows []Row
	for day, close := range closes {
		sentiment, ok := daily[day]
		if !ok {
			continue
		}
		rows = append(rows, Row{
			Ticker:    ticker,
			Day:       day,
			Close:     close,
			Sentiment: sentiment,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })
	return rows
}

// ByTicker partitions rows into per-ticker slices, preserving row order
// within each ticker. Input is expected ordered by ticker then day, the
// way the store returns it.
func ByTicker(rows []Row) map[string][]Row {
	parts := make(map[string][]Row)
	for _, r := range rows {
		parts[r.Ticker] = append(parts[r.Ticker], r)
	}
	return parts
}

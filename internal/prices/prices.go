package prices

import "context"

// Point is one daily closing price.
type Point struct {
	Day   string // YYYY-MM-DD
	Close float64
}

// Source provides daily close prices for a ticker over an inclusive
// day range.
type Source interface {
	Fetch(ctx context.Context, ticker, startDay, endDay string) ([]Point, error)
}

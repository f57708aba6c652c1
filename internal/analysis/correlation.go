// Package analysis computes lagged Pearson correlations between daily
// sentiment and daily price changes.
package analysis

import (
	"fmt"
	"math"

	"github.com/mkarlsen/tickermood/internal/align"
)

// Params controls how the two series are shifted before correlating.
type Params struct {
	SentimentLag   int // rows the sentiment series is shifted forward
	PriceChangeLag int // rows between the closes compared for a change
}

// Validate rejects lag combinations the engine cannot compute.
func (p Params) Validate() error {
	if p.SentimentLag < 0 {
		return fmt.Errorf("sentiment lag must be >= 0, got %d", p.SentimentLag)
	}
	if p.PriceChangeLag < 1 {
		return fmt.Errorf("price change lag must be >= 1, got %d", p.PriceChangeLag)
	}
	return nil
}

// Correlation is a Pearson coefficient with the number of observation pairs
// behind it. R is NaN when fewer than two pairs exist or either feature has
// zero variance — an undefined coefficient is never reported as zero.
type Correlation struct {
	R float64
	N int
}

// laggedPairs builds (lagged sentiment, price change) observations from one
// ticker's day-ordered rows.
// priceChange[t] = close[t]/close[t-k] - 1 and the sentiment is taken from
// row t-n, so the first max(n, k) rows contribute no pairs.
func laggedPairs(rows []align.Row, p Params) (xs, ys []float64) {
	start := p.SentimentLag
	if p.PriceChangeLag > start {
		start = p.PriceChangeLag
	}
	for t := start; t < len(rows); t++ {
		xs = append(xs, rows[t-p.SentimentLag].Sentiment)
		ys = append(ys, rows[t].Close/rows[t-p.PriceChangeLag].Close-1)
	}
	return xs, ys
}

// pearson computes the sample Pearson correlation coefficient.
// The 1/(n-1) factors cancel between the covariance and the two standard
// deviations, so the centered sums are used directly.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// ByTicker computes one correlation per ticker partition. Every ticker in
// the input appears in the result, including those whose coefficient is NaN.
func ByTicker(parts map[string][]align.Row, p Params) map[string]Correlation {
	out := make(map[string]Correlation, len(parts))
	for ticker, rows := range parts {
		xs, ys := laggedPairs(rows, p)
		out[ticker] = Correlation{R: pearson(xs, ys), N: len(xs)}
	}
	return out
}

// Pooled lags each ticker's rows separately, then correlates all pairs at
// once. Lagging never crosses a ticker boundary.
func Pooled(parts map[string][]align.Row, p Params) Correlation {
	var xs, ys []float64
	for _, rows := range parts {
		px, py := laggedPairs(rows, p)
		xs = append(xs, px...)
		ys = append(ys, py...)
	}
	return Correlation{R: pearson(xs, ys), N: len(xs)}
}

package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/mkarlsen/tickermood/internal/align"
)

const (
	chartWidth   = 800
	chartHeight  = 400
	marginTop    = 40
	marginRight  = 70
	marginBottom = 50
	marginLeft   = 70

	rollingWindow     = 7
	rollingMinPeriods = 3
)

// TickerChart renders one ticker's closes and daily sentiment as a
// dual-axis SVG line chart. The left axis scales to the closes, the right
// axis is fixed to the sentiment range [-1, 1], and a dashed 7-day rolling
// sentiment average is overlaid for smoothing.
func TickerChart(ticker string, rows []align.Row) string {
	if len(rows) == 0 {
		return emptySVG("No data for " + ticker)
	}

	pw := chartWidth - marginLeft - marginRight
	ph := chartHeight - marginTop - marginBottom

	minPrice, maxPrice := rows[0].Close, rows[0].Close
	for _, r := range rows {
		if r.Close < minPrice {
			minPrice = r.Close
		}
		if r.Close > maxPrice {
			maxPrice = r.Close
		}
	}
	priceRange := maxPrice - minPrice
	if priceRange == 0 {
		priceRange = 1
	}
	minPrice -= priceRange * 0.05
	maxPrice += priceRange * 0.05
	priceRange = maxPrice - minPrice

	n := len(rows)
	xAt := func(i int) float64 {
		if n == 1 {
			return float64(marginLeft) + float64(pw)/2
		}
		return float64(marginLeft) + float64(i)*float64(pw)/float64(n-1)
	}
	priceY := func(p float64) float64 {
		return float64(marginTop+ph) - (p-minPrice)/priceRange*float64(ph)
	}
	sentimentY := func(s float64) float64 {
		return float64(marginTop+ph) - (s+1)/2*float64(ph)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		chartWidth, chartHeight, chartWidth, chartHeight))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`,
		chartWidth, chartHeight))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="#333333" text-anchor="middle">%s</text>`,
		chartWidth/2, escapeXML(ticker+" close vs. daily sentiment")))

	// Price grid and left axis labels
	for i := 0; i <= 5; i++ {
		price := minPrice + priceRange*float64(i)/5
		y := priceY(price)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#e8e8e8" stroke-dasharray="3,3"/>`,
			marginLeft, y, marginLeft+pw, y))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="11" fill="#1f77b4" text-anchor="end">%.2f</text>`,
			marginLeft-5, y+4, price))
	}

	// Right axis labels for the fixed sentiment scale
	for _, s := range []float64{-1, -0.5, 0, 0.5, 1} {
		y := sentimentY(s)
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="11" fill="#d62728" text-anchor="start">%.1f</text>`,
			marginLeft+pw+5, y+4, s))
	}

	sb.WriteString(linePath(rows, xAt, func(r align.Row) float64 { return priceY(r.Close) },
		`fill="none" stroke="#1f77b4" stroke-width="2"`))
	sb.WriteString(linePath(rows, xAt, func(r align.Row) float64 { return sentimentY(r.Sentiment) },
		`fill="none" stroke="#d62728" stroke-width="1.5" opacity="0.6"`))

	sentiments := make([]float64, n)
	for i, r := range rows {
		sentiments[i] = r.Sentiment
	}
	rolling := rollingMean(sentiments, rollingWindow, rollingMinPeriods)
	sb.WriteString(valuePath(rolling, xAt, sentimentY,
		`fill="none" stroke="#ff7f0e" stroke-width="1.5" stroke-dasharray="5,3"`))

	legend := []struct {
		label string
		color string
	}{
		{"Close", "#1f77b4"},
		{"Daily sentiment", "#d62728"},
		{"7-day avg", "#ff7f0e"},
	}
	for i, l := range legend {
		ly := marginTop + 12 + i*16
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			marginLeft+10, ly, marginLeft+30, ly, l.color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="#333333">%s</text>`,
			marginLeft+35, ly+4, escapeXML(l.label)))
	}

	// X-axis day labels, thinned to at most seven
	interval := n / 6
	if interval < 1 {
		interval = 1
	}
	for i := 0; i < n; i += interval {
		label := rows[i].Day
		if len(label) == 10 {
			label = label[5:] // MM-DD
		}
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="10" fill="#333333" text-anchor="middle">%s</text>`,
			xAt(i), marginTop+ph+18, escapeXML(label)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// linePath builds an SVG path through every row.
func linePath(rows []align.Row, xAt func(int) float64, yOf func(align.Row) float64, attrs string) string {
	var parts []string
	for i, r := range rows {
		cmd := "L"
		if len(parts) == 0 {
			cmd = "M"
		}
		parts = append(parts, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), yOf(r)))
	}
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf(`<path d="%s" %s/>`, strings.Join(parts, " "), attrs)
}

// valuePath builds an SVG path through the defined values, skipping NaNs.
func valuePath(values []float64, xAt func(int) float64, yOf func(float64) float64, attrs string) string {
	var parts []string
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		cmd := "L"
		if len(parts) == 0 {
			cmd = "M"
		}
		parts = append(parts, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), yOf(v)))
	}
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf(`<path d="%s" %s/>`, strings.Join(parts, " "), attrs)
}

// rollingMean computes a trailing mean over at most window values, emitting
// NaN until minPeriods values have been seen.
func rollingMean(values []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		for j := lo; j <= i; j++ {
			sum += values[j]
		}
		count := i - lo + 1
		if count < minPeriods {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(count)
		}
	}
	return out
}

func emptySVG(msg string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="400" height="200"><rect width="400" height="200" fill="#f5f5f5"/><text x="200" y="100" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

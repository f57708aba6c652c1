// Package report renders analysis results as a markdown report and
// per-ticker SVG charts, and writes both to the results directory.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkarlsen/tickermood/internal/analysis"
)

// Summary carries everything one run's report needs.
type Summary struct {
	RunDay    string
	Params    analysis.Params
	PerTicker map[string]analysis.Correlation
	Pooled    *analysis.Correlation // nil when pooled analysis is off
	Rows      int                   // aligned rows behind the analysis
	Skipped   map[string]string     // ticker -> reason it produced no rows
}

// Tickers returns the analyzed tickers in alphabetical order.
func (s Summary) Tickers() []string {
	tickers := make([]string, 0, len(s.PerTicker))
	for t := range s.PerTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// FormatR renders a coefficient to four decimals, or "n/a" when the
// coefficient is undefined.
func FormatR(r float64) string {
	if math.IsNaN(r) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", r)
}

// Build assembles the markdown report body.
func Build(s Summary) string {
	var sections []string

	sections = append(sections, fmt.Sprintf("# Sentiment and price correlation - %s", s.RunDay))

	sections = append(sections, fmt.Sprintf(
		"Sentiment lag: %d day(s). Price change window: %d day(s). Aligned rows: %d.",
		s.Params.SentimentLag, s.Params.PriceChangeLag, s.Rows))

	if len(s.PerTicker) > 0 {
		var b strings.Builder
		b.WriteString("## Per-ticker correlation\n\n")
		b.WriteString("| Ticker | Pearson r | Pairs |\n")
		b.WriteString("|--------|-----------|-------|\n")
		for _, ticker := range s.Tickers() {
			c := s.PerTicker[ticker]
			b.WriteString(fmt.Sprintf("| %s | %s | %d |\n", ticker, FormatR(c.R), c.N))
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	} else {
		sections = append(sections, "No tickers produced aligned data.")
	}

	if s.Pooled != nil {
		sections = append(sections, fmt.Sprintf(
			"## Pooled\n\nAll tickers pooled: r = %s over %d pairs.",
			FormatR(s.Pooled.R), s.Pooled.N))
	}

	if len(s.Skipped) > 0 {
		tickers := make([]string, 0, len(s.Skipped))
		for t := range s.Skipped {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)

		var b strings.Builder
		b.WriteString("## Skipped\n\n")
		for _, t := range tickers {
			b.WriteString(fmt.Sprintf("- %s: %s\n", t, s.Skipped[t]))
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}

	return strings.Join(sections, "\n\n")
}

// WriteFiles writes the markdown body and the per-ticker charts into dir,
// creating it if needed. Returns the path of the markdown file.
func WriteFiles(dir, runDay, body string, charts map[string]string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results dir: %w", err)
	}

	mdPath := filepath.Join(dir, fmt.Sprintf("report_%s.md", runDay))
	if err := os.WriteFile(mdPath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	for ticker, svg := range charts {
		path := filepath.Join(dir, fmt.Sprintf("%s_sentiment_vs_price.svg", ticker))
		if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
			return "", fmt.Errorf("writing chart for %s: %w", ticker, err)
		}
	}

	return mdPath, nil
}

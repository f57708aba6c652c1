package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkarlsen/tickermood/internal/analysis"
	"github.com/mkarlsen/tickermood/internal/collect"
	"github.com/mkarlsen/tickermood/internal/config"
	"github.com/mkarlsen/tickermood/internal/database"
	"github.com/mkarlsen/tickermood/internal/prices"
)

type fakeCollector struct {
	headlines map[string][]collect.Headline
}

func (f *fakeCollector) Collect(_ context.Context, ticker string) ([]collect.Headline, *collect.Result) {
	hs := f.headlines[ticker]
	return hs, &collect.Result{TotalFound: len(hs), Kept: len(hs)}
}

func (f *fakeCollector) SourceCount() int { return 1 }

// fixedScorer scores every headline with the same value.
type fixedScorer struct {
	score float64
}

func (s fixedScorer) Name() string { return "fixed" }

func (s fixedScorer) Score(_ context.Context, _ string) (float64, error) {
	return s.score, nil
}

type fakePrices struct {
	points map[string][]prices.Point
}

func (f *fakePrices) Fetch(_ context.Context, ticker, _, _ string) ([]prices.Point, error) {
	return f.points[ticker], nil
}

func headlineOn(day, title string) collect.Headline {
	t, _ := time.Parse("2006-01-02", day)
	return collect.Headline{Time: t.Add(14 * time.Hour), Title: title}
}

func testPipeline(t *testing.T, collector headlineCollector, quotes prices.Source) (*Pipeline, *database.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Analysis.SentimentLagDays = 1
	cfg.Analysis.PriceChangeDays = 1
	cfg.Output.ResultsDir = filepath.Join(t.TempDir(), "results")

	return &Pipeline{
		cfg:       cfg,
		db:        db,
		collector: collector,
		scorer:    fixedScorer{score: 0.5},
		quotes:    quotes,
	}, db
}

func TestRunEndToEnd(t *testing.T) {
	collector := &fakeCollector{headlines: map[string][]collect.Headline{
		"AAPL": {
			headlineOn("2026-03-02", "Apple ships record quarter"),
			headlineOn("2026-03-03", "Apple raises guidance"),
			headlineOn("2026-03-04", "Apple supplier warns"),
		},
	}}
	quotes := &fakePrices{points: map[string][]prices.Point{
		"AAPL": {
			{Day: "2026-03-02", Close: 100},
			{Day: "2026-03-03", Close: 102},
			{Day: "2026-03-04", Close: 101},
		},
	}}
	pipe, db := testPipeline(t, collector, quotes)

	result, err := pipe.Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Tickers) != 1 {
		t.Fatalf("expected 1 ticker result, got %d", len(result.Tickers))
	}
	tr := result.Tickers[0]
	if tr.Skipped != "" {
		t.Fatalf("expected AAPL processed, skipped: %s", tr.Skipped)
	}
	if tr.Rows != 3 {
		t.Errorf("expected 3 aligned rows, got %d", tr.Rows)
	}

	// Rows landed in the store
	stored, err := db.GetSeriesForTicker("AAPL")
	if err != nil {
		t.Fatalf("fetching stored series: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored rows, got %d", len(stored))
	}
	if stored[0].Day != "2026-03-02" || stored[0].Close != 100 {
		t.Errorf("unexpected first stored row: %+v", stored[0])
	}
	if math.Abs(stored[0].Sentiment-0.5) > 1e-9 {
		t.Errorf("expected sentiment 0.5, got %v", stored[0].Sentiment)
	}

	// Constant sentiment means the coefficient is undefined, not zero
	if result.Summary == nil {
		t.Fatal("expected a summary")
	}
	c, ok := result.Summary.PerTicker["AAPL"]
	if !ok {
		t.Fatal("expected AAPL in the summary")
	}
	if !math.IsNaN(c.R) {
		t.Errorf("expected NaN for constant sentiment, got %v", c.R)
	}
	if c.N != 2 {
		t.Errorf("expected 2 pairs, got %d", c.N)
	}

	// Report and chart written
	if result.ReportPath == "" {
		t.Fatal("expected a report path")
	}
	body, err := os.ReadFile(result.ReportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(body), "| AAPL | n/a | 2 |") {
		t.Errorf("expected AAPL n/a row in report, got:\n%s", body)
	}
	chart := filepath.Join(pipe.cfg.Output.ResultsDir, "AAPL_sentiment_vs_price.svg")
	if _, err := os.Stat(chart); err != nil {
		t.Errorf("expected chart file: %v", err)
	}

	// Run audit recorded
	run, err := db.GetLastRun()
	if err != nil || run == nil {
		t.Fatalf("expected a run row, got %v / %v", run, err)
	}
	if run.TickersProcessed != 1 || run.RowsUpserted != 3 {
		t.Errorf("unexpected run audit: %+v", run)
	}
}

func TestRunSkipsTickerWithoutHeadlines(t *testing.T) {
	collector := &fakeCollector{headlines: map[string][]collect.Headline{}}
	quotes := &fakePrices{points: map[string][]prices.Point{
		"MSFT": {{Day: "2026-03-02", Close: 400}},
	}}
	pipe, db := testPipeline(t, collector, quotes)

	result, err := pipe.Run(context.Background(), []string{"MSFT"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Summary != nil {
		t.Error("expected no summary when nothing aligned")
	}
	tr := result.Tickers[0]
	if tr.Skipped == "" {
		t.Error("expected MSFT to be skipped")
	}

	stored, _ := db.GetSeriesForTicker("MSFT")
	if len(stored) != 0 {
		t.Errorf("expected no stored rows, got %d", len(stored))
	}
}

func TestRunSkipsTickerWithoutOverlap(t *testing.T) {
	collector := &fakeCollector{headlines: map[string][]collect.Headline{
		"TSLA": {headlineOn("2026-03-07", "Weekend rumor")}, // a Saturday
	}}
	quotes := &fakePrices{points: map[string][]prices.Point{
		"TSLA": {{Day: "2026-03-06", Close: 200}},
	}}
	pipe, _ := testPipeline(t, collector, quotes)

	result, err := pipe.Run(context.Background(), []string{"TSLA"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	tr := result.Tickers[0]
	if tr.Skipped != "no overlapping days" {
		t.Errorf("expected overlap skip, got %q", tr.Skipped)
	}
	if result.Summary != nil {
		t.Error("expected no summary")
	}
}

func TestRunContinuesAfterFailedTicker(t *testing.T) {
	collector := &fakeCollector{headlines: map[string][]collect.Headline{
		"GOOD": {
			headlineOn("2026-03-02", "Up"),
			headlineOn("2026-03-03", "Up again"),
		},
	}}
	quotes := &fakePrices{points: map[string][]prices.Point{
		"GOOD": {
			{Day: "2026-03-02", Close: 50},
			{Day: "2026-03-03", Close: 51},
		},
	}}
	pipe, db := testPipeline(t, collector, quotes)

	result, err := pipe.Run(context.Background(), []string{"BAD", "GOOD"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Tickers[0].Skipped == "" {
		t.Error("expected BAD skipped")
	}
	if result.Tickers[1].Skipped != "" {
		t.Errorf("expected GOOD processed, skipped: %s", result.Tickers[1].Skipped)
	}

	stored, _ := db.GetSeriesForTicker("GOOD")
	if len(stored) != 2 {
		t.Errorf("expected 2 stored rows for GOOD, got %d", len(stored))
	}

	run, _ := db.GetLastRun()
	if run == nil || run.TickersSkipped != 1 || run.TickersProcessed != 1 {
		t.Errorf("unexpected run audit: %+v", run)
	}
}

func TestAnalyzeFromStore(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.UpsertSeries([]database.SeriesRow{
		{Ticker: "AAPL", Day: "2026-03-02", Close: 100, Sentiment: 0.5},
		{Ticker: "AAPL", Day: "2026-03-03", Close: 101, Sentiment: 0.1},
		{Ticker: "AAPL", Day: "2026-03-04", Close: 99, Sentiment: -0.2},
		{Ticker: "AAPL", Day: "2026-03-05", Close: 103, Sentiment: 0.4},
	})
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}

	params := analysis.Params{SentimentLag: 0, PriceChangeLag: 1}
	summary, err := Analyze(db, nil, nil, nil, params, true)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if summary == nil {
		t.Fatal("expected a summary")
	}

	c := summary.PerTicker["AAPL"]
	if c.N != 3 {
		t.Errorf("expected 3 pairs, got %d", c.N)
	}
	if math.IsNaN(c.R) {
		t.Error("expected a defined coefficient")
	}
	if summary.Pooled == nil {
		t.Fatal("expected pooled result")
	}
	if summary.Pooled.N != 3 {
		t.Errorf("expected 3 pooled pairs, got %d", summary.Pooled.N)
	}

	// Empty store under a filter is a nil summary, not an error
	none, err := Analyze(db, []string{"MSFT"}, nil, nil, params, false)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if none != nil {
		t.Error("expected nil summary for unmatched filter")
	}
}

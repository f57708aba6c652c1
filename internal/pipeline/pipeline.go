// Package pipeline orchestrates a full run: collect headlines per ticker,
// score them into daily sentiment, fetch closing prices, align the two
// series, persist the result, then analyze and report.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mkarlsen/tickermood/internal/align"
	"github.com/mkarlsen/tickermood/internal/analysis"
	"github.com/mkarlsen/tickermood/internal/collect"
	"github.com/mkarlsen/tickermood/internal/config"
	"github.com/mkarlsen/tickermood/internal/database"
	"github.com/mkarlsen/tickermood/internal/fetch"
	"github.com/mkarlsen/tickermood/internal/prices"
	"github.com/mkarlsen/tickermood/internal/report"
	"github.com/mkarlsen/tickermood/internal/sentiment"
)

// TickerResult summarizes what one ticker contributed to a run.
type TickerResult struct {
	Ticker    string
	Headlines int    // headlines kept after dedupe and cutoff
	Scored    int
	Dropped   int
	Days      int    // distinct sentiment days
	Prices    int    // trading days fetched
	Rows      int    // aligned rows
	Skipped   string // non-empty reason when the ticker contributed nothing
	Err       error  // persistence error; the rows still join the analysis
}

// StepResult describes one phase of a dry run.
type StepResult struct {
	Name    string
	Summary string
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunDay     string
	Tickers    []TickerResult
	Summary    *report.Summary // nil when nothing aligned
	ReportPath string
}

type headlineCollector interface {
	Collect(ctx context.Context, ticker string) ([]collect.Headline, *collect.Result)
	SourceCount() int
}

// Pipeline wires the stages together.
type Pipeline struct {
	cfg       *config.Config
	db        *database.DB
	collector headlineCollector
	fetcher   *fetch.BodyFetcher // nil unless body fetching is enabled
	scorer    sentiment.Scorer
	quotes    prices.Source
}

// New creates a pipeline from the configuration.
func New(cfg *config.Config, db *database.DB, daysBack int) (*Pipeline, error) {
	scorer, err := sentiment.NewScorer(cfg)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:       cfg,
		db:        db,
		collector: collect.NewCollector(cfg, daysBack),
		scorer:    scorer,
		quotes:    prices.NewYahooSource(cfg.Prices.BaseURL, cfg.Prices.Interval),
	}
	if cfg.Scrape.FetchBodies {
		p.fetcher = fetch.NewBodyFetcher(cfg.Scrape.UserAgent, 15*time.Second)
	}
	return p, nil
}

// Run processes the tickers one at a time and, when any rows aligned,
// analyzes them and writes the report. A ticker that produces nothing is
// skipped with a reason; the run itself only fails on bad parameters or
// when the report cannot be written.
func (p *Pipeline) Run(ctx context.Context, tickers []string) (*Result, error) {
	params := analysis.Params{
		SentimentLag:   p.cfg.Analysis.SentimentLagDays,
		PriceChangeLag: p.cfg.Analysis.PriceChangeDays,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	r := &Result{RunDay: database.Today()}
	run := database.Run{TickersRequested: len(tickers)}
	skipped := make(map[string]string)
	var all []align.Row

	for i, ticker := range tickers {
		log.Printf("Ticker %d/%d: %s", i+1, len(tickers), ticker)
		tr, rows := p.runTicker(ctx, ticker)
		r.Tickers = append(r.Tickers, tr)
		run.HeadlinesSeen += tr.Headlines

		if tr.Skipped != "" {
			log.Printf("Skipping %s: %s", ticker, tr.Skipped)
			skipped[ticker] = tr.Skipped
			run.TickersSkipped++
			continue
		}
		run.TickersProcessed++
		if tr.Err == nil {
			run.RowsUpserted += tr.Rows
		}
		all = append(all, rows...)
	}

	if len(all) == 0 {
		log.Println("Nothing to analyze.")
		if _, err := p.db.InsertRun(run); err != nil {
			log.Printf("Failed to record run: %v", err)
		}
		return r, nil
	}

	parts := align.ByTicker(all)
	summary := &report.Summary{
		RunDay:    r.RunDay,
		Params:    params,
		PerTicker: analysis.ByTicker(parts, params),
		Rows:      len(all),
		Skipped:   skipped,
	}
	if p.cfg.Analysis.Pooled {
		pooled := analysis.Pooled(parts, params)
		summary.Pooled = &pooled
	}
	r.Summary = summary

	body := report.Build(*summary)
	charts := make(map[string]string, len(parts))
	for ticker, rows := range parts {
		charts[ticker] = report.TickerChart(ticker, rows)
	}

	if _, err := p.db.InsertReport(r.RunDay, body, params.SentimentLag, params.PriceChangeLag, summary.Tickers()); err != nil {
		log.Printf("Failed to store report: %v", err)
	}
	if _, err := p.db.InsertRun(run); err != nil {
		log.Printf("Failed to record run: %v", err)
	}

	path, err := report.WriteFiles(p.cfg.Output.ResultsDir, r.RunDay, body, charts)
	if err != nil {
		return r, err
	}
	r.ReportPath = path
	log.Printf("Report written to %s", path)
	return r, nil
}

func (p *Pipeline) runTicker(ctx context.Context, ticker string) (TickerResult, []align.Row) {
	tr := TickerResult{Ticker: ticker}

	headlines, cres := p.collector.Collect(ctx, ticker)
	tr.Headlines = cres.Kept
	if len(headlines) == 0 {
		tr.Skipped = "no headlines in window"
		return tr, nil
	}

	if p.fetcher != nil {
		headlines, _ = p.fetcher.FetchBodies(ctx, headlines)
	}

	scored, stats := sentiment.ScoreAll(ctx, p.scorer, headlines)
	tr.Scored = stats.Scored
	tr.Dropped = stats.Dropped
	if len(scored) == 0 {
		tr.Skipped = "no headlines scored"
		return tr, nil
	}

	daily := sentiment.DailyAverage(scored)
	tr.Days = len(daily)
	first, last, _ := sentiment.DayBounds(daily)

	points, err := p.quotes.Fetch(ctx, ticker, first, last)
	if err != nil {
		log.Printf("Price data unavailable for %s: %v", ticker, err)
		tr.Skipped = "price data unavailable"
		return tr, nil
	}
	tr.Prices = len(points)
	if len(points) == 0 {
		tr.Skipped = "no trading days in window"
		return tr, nil
	}

	rows := align.Join(ticker, daily, points)
	tr.Rows = len(rows)
	if len(rows) == 0 {
		tr.Skipped = "no overlapping days"
		return tr, nil
	}

	dbRows := make([]database.SeriesRow, len(rows))
	for i, row := range rows {
		dbRows[i] = database.SeriesRow{
			Ticker:    row.Ticker,
			Day:       row.Day,
			Close:     row.Close,
			Sentiment: row.Sentiment,
		}
	}
	if _, err := p.db.UpsertSeries(dbRows); err != nil {
		log.Printf("Failed to persist %s: %v", ticker, err)
		tr.Err = err
	}

	return tr, rows
}

// DryRun reports what each stage would do without touching the network.
func (p *Pipeline) DryRun(tickers []string) []StepResult {
	var steps []StepResult

	steps = append(steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] would query %d source(s) for %d ticker(s)", p.collector.SourceCount(), len(tickers)),
	})

	fetchSummary := "[dry-run] body fetching disabled, scoring titles only"
	if p.fetcher != nil {
		fetchSummary = "[dry-run] would fetch article bodies before scoring"
	}
	steps = append(steps, StepResult{Name: "Fetch", Summary: fetchSummary})

	steps = append(steps, StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("[dry-run] would score headlines with the %s scorer", p.scorer.Name()),
	})

	if stats, err := p.db.GetStats(); err == nil {
		steps = append(steps, StepResult{
			Name:    "Persist",
			Summary: fmt.Sprintf("[dry-run] store holds %d row(s) across %d ticker(s)", stats.SeriesRows, stats.Tickers),
		})
	}

	steps = append(steps, StepResult{
		Name: "Analyze",
		Summary: fmt.Sprintf("[dry-run] sentiment lag %d day(s), price change window %d day(s)",
			p.cfg.Analysis.SentimentLagDays, p.cfg.Analysis.PriceChangeDays),
	})

	if existing, _ := p.db.GetReport(database.Today()); existing != nil {
		steps = append(steps, StepResult{
			Name:    "Report",
			Summary: fmt.Sprintf("[dry-run] report already exists for %s", existing.RunDay),
		})
	} else {
		steps = append(steps, StepResult{
			Name:    "Report",
			Summary: fmt.Sprintf("[dry-run] would write report and charts to %s", p.cfg.Output.ResultsDir),
		})
	}

	return steps
}

// Analyze recomputes correlations from the stored series without collecting
// anything new. A nil summary with a nil error means the store had no rows
// for the requested filters.
func Analyze(db *database.DB, tickers []string, fromDay, toDay *string, params analysis.Params, pooled bool) (*report.Summary, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	stored, err := db.FetchSeries(tickers, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, nil
	}

	aligned := make([]align.Row, len(stored))
	for i, row := range stored {
		aligned[i] = align.Row{
			Ticker:    row.Ticker,
			Day:       row.Day,
			Close:     row.Close,
			Sentiment: row.Sentiment,
		}
	}
	parts := align.ByTicker(aligned)

	summary := &report.Summary{
		RunDay:    database.Today(),
		Params:    params,
		PerTicker: analysis.ByTicker(parts, params),
		Rows:      len(aligned),
	}
	if pooled {
		p := analysis.Pooled(parts, params)
		summary.Pooled = &p
	}
	return summary, nil
}

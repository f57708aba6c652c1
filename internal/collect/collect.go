package collect

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/mkarlsen/tickermood/internal/config"
)

// Headline is one news item about a ticker. Headlines live only for the
// duration of a run: they are scored, aggregated and discarded, never
// persisted.
type Headline struct {
	Time   time.Time
	Title  string
	URL    string
	Body   string // optional full text, filled by the fetch stage
	Source string
}

// Day returns the calendar day of the headline as YYYY-MM-DD.
func (h Headline) Day() string {
	return h.Time.Format("2006-01-02")
}

// Source produces headlines for a single ticker.
type Source interface {
	Name() string
	Fetch(ctx context.Context, ticker string) ([]Headline, error)
}

// Result holds the results of a collection pass for one ticker.
type Result struct {
	TotalFound int
	Kept       int
	Duplicates int
	Sources    map[string]int
}

// Collector gathers headlines for a ticker from all configured sources.
type Collector struct {
	sources  []Source
	daysBack int
}

// NewCollector creates a collector with the sources enabled in config.
// daysBack caps how old a headline may be; 0 keeps everything the
// sources return.
func NewCollector(cfg *config.Config, daysBack int) *Collector {
	c := &Collector{daysBack: daysBack}

	if cfg.Sources.Finviz.Enabled {
		c.sources = append(c.sources, NewFinvizSource(
			cfg.Sources.Finviz.BaseURL, cfg.Scrape.UserAgent, cfg.Scrape.DelaySeconds))
	}
	if cfg.Sources.RSS.Enabled {
		c.sources = append(c.sources, NewFeedSource(cfg.Sources.RSS.URLTemplate))
	}

	return c
}

// SourceCount returns how many sources are enabled.
func (c *Collector) SourceCount() int {
	return len(c.sources)
}

// Collect fetches headlines for a ticker from every source, drops entries
// older than the window and dedupes on (title, day). A failing source is
// logged and skipped; the remaining sources still contribute.
func (c *Collector) Collect(ctx context.Context, ticker string) ([]Headline, *Result) {
	r := &Result{Sources: make(map[string]int)}

	var cutoff time.Time
	if c.daysBack > 0 {
		cutoff = time.Now().AddDate(0, 0, -c.daysBack)
	}

	seen := make(map[string]struct{})
	var all []Headline
	for _, src := range c.sources {
		headlines, err := src.Fetch(ctx, ticker)
		if err != nil {
			log.Printf("Source %s failed for %s: %v", src.Name(), ticker, err)
			continue
		}
		r.TotalFound += len(headlines)

		for _, h := range headlines {
			if !cutoff.IsZero() && h.Time.Before(cutoff) {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(h.Title)) + "|" + h.Day()
			if _, ok := seen[key]; ok {
				r.Duplicates++
				continue
			}
			seen[key] = struct{}{}
			all = append(all, h)
			r.Kept++
			r.Sources[src.Name()]++
		}
	}

	log.Printf("Collected %d headlines for %s (%d found, %d duplicates)",
		r.Kept, ticker, r.TotalFound, r.Duplicates)
	return all, r
}

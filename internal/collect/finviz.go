package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const finvizBaseURL = "https://finviz.com/quote.ashx"

// Timestamp layouts used in the finviz news table. A row carries either a
// full "Mar-05-24 08:30AM" stamp or just "08:30AM" when the date is the
// same as the row above.
const (
	finvizDateTime = "Jan-02-06 03:04PM"
	finvizTimeOnly = "03:04PM"
)

// FinvizSource scrapes the news table on a ticker's finviz quote page.
type FinvizSource struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewFinvizSource creates a finviz scraper. delaySeconds is the minimum
// spacing between requests; finviz blocks clients that hammer it.
func NewFinvizSource(baseURL, userAgent string, delaySeconds float64) *FinvizSource {
	if baseURL == "" {
		baseURL = finvizBaseURL
	}
	s := &FinvizSource{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
	if delaySeconds > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Duration(delaySeconds*float64(time.Second))), 1)
	}
	return s
}

// Name identifies this source in collection stats.
func (s *FinvizSource) Name() string {
	return "finviz"
}

// Fetch downloads the quote page for a ticker and parses its news table.
func (s *FinvizSource) Fetch(ctx context.Context, ticker string) ([]Headline, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqURL := s.baseURL + "?t=" + url.QueryEscape(strings.ToUpper(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching finviz page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("finviz returned HTTP %d for %s", resp.StatusCode, ticker)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing finviz page: %w", err)
	}

	return parseNewsTable(doc)
}

// parseNewsTable walks the #news-table rows. Time-only rows inherit the
// date of the most recent row with a full stamp; rows that parse to
// nothing usable are skipped.
func parseNewsTable(doc *goquery.Document) ([]Headline, error) {
	table := doc.Find("#news-table")
	if table.Length() == 0 {
		return nil, fmt.Errorf("news table not found")
	}

	var headlines []Headline
	var lastDay time.Time
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		stamp := strings.TrimSpace(cells.Eq(0).Text())
		link := cells.Eq(1).Find("a").First()
		title := strings.TrimSpace(link.Text())
		if stamp == "" || title == "" {
			return
		}

		ts, ok := parseNewsTimestamp(stamp, lastDay)
		if !ok {
			return
		}
		lastDay = ts

		href, _ := link.Attr("href")
		headlines = append(headlines, Headline{
			Time:   ts,
			Title:  title,
			URL:    href,
			Source: extractSourceName(href),
		})
	})

	return headlines, nil
}

func parseNewsTimestamp(stamp string, lastDay time.Time) (time.Time, bool) {
	if t, err := time.Parse(finvizDateTime, stamp); err == nil {
		return t, true
	}
	if lastDay.IsZero() {
		return time.Time{}, false
	}
	if t, err := time.Parse(finvizTimeOnly, stamp); err == nil {
		return time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(),
			t.Hour(), t.Minute(), 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

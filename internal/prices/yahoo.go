package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSource fetches daily candles from the Yahoo Finance chart API.
type YahooSource struct {
	baseURL  string
	interval string
	client   *http.Client
}

// NewYahooSource creates a Yahoo price source. baseURL is overridable
// for tests; interval defaults to daily candles.
func NewYahooSource(baseURL, interval string) *YahooSource {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	if interval == "" {
		interval = "1d"
	}
	return &YahooSource{
		baseURL:  baseURL,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns close prices for [startDay, endDay], ascending by day.
// Days without a usable close are skipped. An empty result is not an
// error; the caller decides whether missing prices sink the ticker.
func (s *YahooSource) Fetch(ctx context.Context, ticker, startDay, endDay string) ([]Point, error) {
	start, err := time.Parse("2006-01-02", startDay)
	if err != nil {
		return nil, fmt.Errorf("bad start day %q: %w", startDay, err)
	}
	end, err := time.Parse("2006-01-02", endDay)
	if err != nil {
		return nil, fmt.Errorf("bad end day %q: %w", endDay, err)
	}

	// period2 is exclusive, so push it past the end day to include it.
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s",
		s.baseURL, url.PathEscape(strings.ToUpper(ticker)),
		start.Unix(), end.AddDate(0, 0, 1).Unix(), s.interval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "tickermood/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching chart for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart returned HTTP %d for %s", resp.StatusCode, ticker)
	}

	var result struct {
		Chart struct {
			Result []chartResult `json:"result"`
			Error  *struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding chart for %s: %w", ticker, err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %s", ticker, result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, nil
	}

	return parsePoints(result.Chart.Result[0]), nil
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// parsePoints walks the candle arrays, preferring adjusted close and
// skipping null entries.
func parsePoints(r chartResult) []Point {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	closes := r.Indicators.Quote[0].Close
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	var points []Point
	for i, ts := range r.Timestamp {
		var close *float64
		if i < len(adj) && adj[i] != nil {
			close = adj[i]
		} else if i < len(closes) && closes[i] != nil {
			close = closes[i]
		}
		if close == nil {
			continue
		}
		points = append(points, Point{
			Day:   time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *close,
		})
	}
	return points
}

package prices

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1709337600, 1709596800, 1709683200],
      "indicators": {
        "quote": [{"close": [100.5, null, 99.25]}],
        "adjclose": [{"adjclose": [100.0, null, 99.0]}]
      }
    }],
    "error": null
  }
}`

func TestYahooFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v8/finance/chart/AAPL") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("expected interval=1d, got %s", r.URL.Query().Get("interval"))
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	src := NewYahooSource(srv.URL, "1d")
	points, err := src.Fetch(context.Background(), "aapl", "2024-03-01", "2024-03-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Null middle candle is skipped; adjusted close is preferred.
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Day != "2024-03-02" {
		t.Errorf("expected first day 2024-03-02, got %s", points[0].Day)
	}
	if math.Abs(points[0].Close-100.0) > 1e-9 {
		t.Errorf("expected adjclose 100.0, got %v", points[0].Close)
	}
	if points[1].Day != "2024-03-06" || math.Abs(points[1].Close-99.0) > 1e-9 {
		t.Errorf("unexpected second point %+v", points[1])
	}
}

func TestYahooFetchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	src := NewYahooSource(srv.URL, "")
	if _, err := src.Fetch(context.Background(), "ZZZZ", "2024-03-01", "2024-03-06"); err == nil {
		t.Error("expected error from chart error payload")
	}
}

func TestYahooFetchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [], "error": null}}`)
	}))
	defer srv.Close()

	src := NewYahooSource(srv.URL, "")
	points, err := src.Fetch(context.Background(), "AAPL", "2024-03-01", "2024-03-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points != nil {
		t.Errorf("expected nil points, got %v", points)
	}
}

func TestYahooFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewYahooSource(srv.URL, "")
	if _, err := src.Fetch(context.Background(), "AAPL", "2024-03-01", "2024-03-06"); err == nil {
		t.Error("expected error for HTTP 429")
	}
}

func TestYahooFetchBadDay(t *testing.T) {
	src := NewYahooSource("http://localhost:1", "")
	if _, err := src.Fetch(context.Background(), "AAPL", "03/01/2024", "2024-03-06"); err == nil {
		t.Error("expected error for malformed start day")
	}
}

func TestParsePointsFallsBackToClose(t *testing.T) {
	r := chartResult{Timestamp: []int64{1709337600}}
	c := 101.5
	r.Indicators.Quote = []struct {
		Close []*float64 `json:"close"`
	}{{Close: []*float64{&c}}}

	points := parsePoints(r)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if math.Abs(points[0].Close-101.5) > 1e-9 {
		t.Errorf("expected raw close 101.5, got %v", points[0].Close)
	}
}

package sentiment

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/mkarlsen/tickermood/internal/collect"
)

// stubScorer scores by fixed rules for aggregation tests.
type stubScorer struct {
	fn func(text string) (float64, error)
}

func (s *stubScorer) Score(_ context.Context, text string) (float64, error) {
	return s.fn(text)
}

func (s *stubScorer) Name() string { return "stub" }

func headlineOn(day, title string) collect.Headline {
	t, _ := time.Parse("2006-01-02", day)
	return collect.Headline{Time: t, Title: title}
}

func TestScoreAll(t *testing.T) {
	scorer := &stubScorer{fn: func(text string) (float64, error) {
		if text == "bad" {
			return 0, fmt.Errorf("no score")
		}
		return 0.5, nil
	}}

	headlines := []collect.Headline{
		headlineOn("2026-03-02", "fine one"),
		headlineOn("2026-03-02", "bad"),
		headlineOn("2026-03-03", "another fine one"),
	}

	scored, stats := ScoreAll(context.Background(), scorer, headlines)
	if stats.Scored != 2 || stats.Dropped != 1 {
		t.Errorf("expected 2 scored / 1 dropped, got %d/%d", stats.Scored, stats.Dropped)
	}
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored entries, got %d", len(scored))
	}
	if scored[0].Day != "2026-03-02" || scored[1].Day != "2026-03-03" {
		t.Errorf("unexpected days: %+v", scored)
	}
}

func TestScoreAllDropsOutOfRange(t *testing.T) {
	scorer := &stubScorer{fn: func(string) (float64, error) { return 1.5, nil }}

	scored, stats := ScoreAll(context.Background(), scorer, []collect.Headline{
		headlineOn("2026-03-02", "broken scorer output"),
	})
	if len(scored) != 0 {
		t.Errorf("expected out-of-range score dropped, got %+v", scored)
	}
	if stats.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", stats.Dropped)
	}
}

func TestScoreAllUsesBodyWhenPresent(t *testing.T) {
	var seen string
	scorer := &stubScorer{fn: func(text string) (float64, error) {
		seen = text
		return 0, nil
	}}

	h := headlineOn("2026-03-02", "Title here")
	h.Body = "Body text with more detail."
	ScoreAll(context.Background(), scorer, []collect.Headline{h})

	if seen != "Title here Body text with more detail." {
		t.Errorf("expected title plus body, got %q", seen)
	}
}

func TestDailyAverage(t *testing.T) {
	daily := DailyAverage([]Scored{
		{Day: "2026-03-02", Score: 0.4},
		{Day: "2026-03-02", Score: 0.6},
		{Day: "2026-03-03", Score: -0.2},
	})

	if len(daily) != 2 {
		t.Fatalf("expected 2 days, got %d", len(daily))
	}
	if math.Abs(daily["2026-03-02"]-0.5) > 1e-9 {
		t.Errorf("expected mean 0.5 for 2026-03-02, got %v", daily["2026-03-02"])
	}
	if math.Abs(daily["2026-03-03"]-(-0.2)) > 1e-9 {
		t.Errorf("expected -0.2 for 2026-03-03, got %v", daily["2026-03-03"])
	}
}

func TestDailyAverageEmpty(t *testing.T) {
	daily := DailyAverage(nil)
	if daily == nil {
		t.Fatal("expected empty map, got nil")
	}
	if len(daily) != 0 {
		t.Errorf("expected empty map, got %v", daily)
	}
}

func TestDailyAverageMeanStaysInRange(t *testing.T) {
	var scored []Scored
	for i := 0; i < 50; i++ {
		scored = append(scored, Scored{Day: "2026-03-02", Score: float64(i%3-1) * 0.9})
	}
	daily := DailyAverage(scored)
	if v := daily["2026-03-02"]; v < -1 || v > 1 {
		t.Errorf("daily mean %v outside [-1, 1]", v)
	}
}

func TestDayBounds(t *testing.T) {
	first, last, ok := DayBounds(map[string]float64{
		"2026-03-04": 0.1,
		"2026-03-02": 0.2,
		"2026-03-03": 0.3,
	})
	if !ok {
		t.Fatal("expected ok for populated map")
	}
	if first != "2026-03-02" || last != "2026-03-04" {
		t.Errorf("expected 2026-03-02..2026-03-04, got %s..%s", first, last)
	}

	if _, _, ok := DayBounds(map[string]float64{}); ok {
		t.Error("expected ok=false for empty map")
	}
}

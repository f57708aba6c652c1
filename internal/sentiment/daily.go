package sentiment

import (
	"context"
	"log"

	"github.com/mkarlsen/tickermood/internal/collect"
)

// A scored body excerpt is capped so a long article cannot drown out its
// own headline.
const maxBodyChars = 400

// Scored pairs a calendar day with one headline's score.
type Scored struct {
	Day   string
	Score float64
}

// Stats counts what happened during a scoring pass.
type Stats struct {
	Scored  int
	Dropped int
}

// ScoreAll runs the scorer over every headline. A headline whose score
// fails or lands outside [-1, 1] is dropped and counted, never recorded
// as zero; the remaining headlines still score.
func ScoreAll(ctx context.Context, scorer Scorer, headlines []collect.Headline) ([]Scored, *Stats) {
	stats := &Stats{}
	var scored []Scored

	for _, h := range headlines {
		score, err := scorer.Score(ctx, scoringText(h))
		if err != nil {
			stats.Dropped++
			log.Printf("Dropping headline %q: %v", h.Title, err)
			continue
		}
		if score < -1 || score > 1 {
			stats.Dropped++
			log.Printf("Dropping headline %q: score %v outside [-1, 1]", h.Title, score)
			continue
		}
		scored = append(scored, Scored{Day: h.Day(), Score: score})
		stats.Scored++
	}

	return scored, stats
}

// scoringText is what the scorer sees for a headline: the title, plus a
// body excerpt when the fetch stage filled one in.
func scoringText(h collect.Headline) string {
	if h.Body == "" {
		return h.Title
	}
	body := h.Body
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}
	return h.Title + " " + body
}

// DailyAverage maps each day to the arithmetic mean of its scores.
// No headlines means an empty map, not an error.
func DailyAverage(scored []Scored) map[string]float64 {
	if len(scored) == 0 {
		return map[string]float64{}
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range scored {
		sums[s.Day] += s.Score
		counts[s.Day]++
	}

	daily := make(map[string]float64, len(sums))
	for day, sum := range sums {
		daily[day] = sum / float64(counts[day])
	}
	return daily
}

// DayBounds returns the earliest and latest day with a sentiment value.
// ok is false for an empty map.
func DayBounds(daily map[string]float64) (first, last string, ok bool) {
	for day := range daily {
		if first == "" || day < first {
			first = day
		}
		if day > last {
			last = day
		}
	}
	return first, last, first != ""
}

package sentiment

import (
	"context"
	"strings"
	"unicode"

	"github.com/mkarlsen/tickermood/internal/config"
	"github.com/mkarlsen/tickermood/internal/llm"
)

// Scorer assigns a sentiment score in [-1, 1] to a piece of text.
// Implementations return an error when a score cannot be produced; the
// caller drops that headline rather than recording a made-up zero.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
	Name() string
}

// NewScorer builds the scorer selected in config. The "llm" provider
// needs a reachable backend and fails here, at startup, rather than
// midway through a run.
func NewScorer(cfg *config.Config) (Scorer, error) {
	if cfg.Sentiment.Provider == "llm" {
		p := llm.CreateProvider(cfg.Sentiment.Model, cfg.Sentiment.OllamaURL,
			cfg.Sentiment.OpenAIModel, cfg.Sentiment.APIKeyEnv)
		return NewLLMScorer(p, cfg.Sentiment.MaxTokens)
	}
	return NewLexiconScorer(), nil
}

// Weighted keyword dictionaries (lowercase). Single words are matched
// per token, phrases by substring before tokenization.
var bullishWords = map[string]float64{
	"rally": 0.6, "surge": 0.7, "surges": 0.7, "soar": 0.7, "soars": 0.7,
	"jump": 0.5, "jumps": 0.5, "gain": 0.4, "gains": 0.4, "climb": 0.4,
	"climbs": 0.4, "rebound": 0.5, "recovery": 0.5, "upgrade": 0.6,
	"upgrades": 0.6, "outperform": 0.6, "overweight": 0.5, "buy": 0.5,
	"bullish": 0.7, "strong": 0.4, "record": 0.4, "beat": 0.5, "beats": 0.5,
	"exceeds": 0.5, "tops": 0.5, "profit": 0.3, "profitable": 0.4,
	"growth": 0.4, "expansion": 0.4, "dividend": 0.4, "buyback": 0.5,
	"breakout": 0.6, "upbeat": 0.5, "optimistic": 0.4, "momentum": 0.3,
}

var bearishWords = map[string]float64{
	"crash": 0.8, "plunge": 0.7, "plunges": 0.7, "plummets": 0.7,
	"tumble": 0.6, "tumbles": 0.6, "sink": 0.5, "sinks": 0.5, "slump": 0.6,
	"slumps": 0.6, "slide": 0.4, "slides": 0.4, "drop": 0.4, "drops": 0.4,
	"fall": 0.4, "falls": 0.4, "decline": 0.5, "declines": 0.5,
	"downgrade": 0.6, "downgrades": 0.6, "underperform": 0.6, "sell": 0.5,
	"selloff": 0.7, "bearish": 0.7, "weak": 0.4, "miss": 0.5, "misses": 0.5,
	"loss": 0.4, "losses": 0.4, "layoffs": 0.6, "lawsuit": 0.5, "probe": 0.5,
	"investigation": 0.5, "fraud": 0.8, "scandal": 0.7, "recall": 0.5,
	"bankruptcy": 0.9, "default": 0.7, "warning": 0.5, "warns": 0.5,
	"concern": 0.3, "concerns": 0.3, "cut": 0.3, "cuts": 0.3, "fear": 0.4,
	"fears": 0.4, "halt": 0.4,
}

var bullishPhrases = map[string]float64{
	"record high": 0.7, "all-time high": 0.7, "beats estimates": 0.6,
	"beat expectations": 0.6, "raises guidance": 0.7, "raised guidance": 0.7,
	"price target raised": 0.6, "better than expected": 0.6,
}

var bearishPhrases = map[string]float64{
	"record low": 0.6, "52-week low": 0.5, "misses estimates": 0.6,
	"missed expectations": 0.6, "cuts guidance": 0.7, "guidance cut": 0.7,
	"price target cut": 0.6, "worse than expected": 0.6, "chapter 11": 0.9,
}

// negators flip the polarity of a keyword up to two tokens later,
// so "not strong" counts as bearish.
var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "without": {}, "hardly": {},
}

// LexiconScorer scores text with the keyword dictionaries above.
// Deterministic and offline; the default scorer.
type LexiconScorer struct{}

// NewLexiconScorer creates a lexicon scorer.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

// Name identifies this scorer in logs.
func (s *LexiconScorer) Name() string {
	return "lexicon"
}

// Score returns the net keyword score normalized to [-1, 1]. Empty or
// signal-free text scores 0. Never returns an error.
func (s *LexiconScorer) Score(_ context.Context, text string) (float64, error) {
	return scoreText(text), nil
}

func scoreText(text string) float64 {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return 0
	}

	bull, bear := 0.0, 0.0

	// Phrases first; matched phrases are blanked so their words do not
	// count twice.
	for phrase, w := range bullishPhrases {
		if strings.Contains(lower, phrase) {
			bull += w
			lower = strings.ReplaceAll(lower, phrase, " ")
		}
	}
	for phrase, w := range bearishPhrases {
		if strings.Contains(lower, phrase) {
			bear += w
			lower = strings.ReplaceAll(lower, phrase, " ")
		}
	}

	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, tok := range tokens {
		if w, ok := bullishWords[tok]; ok {
			if isNegated(tokens, i) {
				bear += w
			} else {
				bull += w
			}
			continue
		}
		if w, ok := bearishWords[tok]; ok {
			if isNegated(tokens, i) {
				bull += w
			} else {
				bear += w
			}
		}
	}

	total := bull + bear
	if total == 0 {
		return 0
	}
	return (bull - bear) / total
}

func isNegated(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if _, ok := negators[tokens[j]]; ok {
			return true
		}
	}
	return false
}

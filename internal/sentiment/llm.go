package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkarlsen/tickermood/internal/llm"
)

const scorePrompt = `You are scoring the sentiment of a financial news item about a public company's stock.

Text: %s

Score it from -1.0 (very bearish for the stock) to 1.0 (very bullish). 0 means neutral or irrelevant.

Respond with ONLY this JSON:
{"score": <number>}`

// LLMScorer asks the configured model for a score per headline.
type LLMScorer struct {
	provider  llm.Provider
	maxTokens int
}

// NewLLMScorer creates an LLM-backed scorer. provider must not be nil.
func NewLLMScorer(provider llm.Provider, maxTokens int) (*LLMScorer, error) {
	if provider == nil {
		return nil, fmt.Errorf("sentiment provider \"llm\" requires a reachable LLM backend")
	}
	if maxTokens <= 0 {
		maxTokens = 64
	}
	return &LLMScorer{provider: provider, maxTokens: maxTokens}, nil
}

// Name identifies this scorer in logs.
func (s *LLMScorer) Name() string {
	return "llm"
}

// Score prompts the model and parses its JSON reply. A missing or
// out-of-range score is an error; the caller drops the headline.
func (s *LLMScorer) Score(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	response, err := s.provider.Generate(ctx, fmt.Sprintf(scorePrompt, text), s.maxTokens)
	if err != nil {
		return 0, fmt.Errorf("scoring text: %w", err)
	}

	parsed := llm.ParseJSONResponse(response)
	score, ok := llm.ParseNumber(parsed, "score")
	if !ok {
		return 0, fmt.Errorf("no usable score in model response: %q", response)
	}
	if score < -1 || score > 1 {
		return 0, fmt.Errorf("model score %v outside [-1, 1]", score)
	}
	return score, nil
}

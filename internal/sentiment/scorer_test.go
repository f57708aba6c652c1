package sentiment

import (
	"context"
	"math"
	"testing"
)

func lexScore(t *testing.T, text string) float64 {
	t.Helper()
	score, err := NewLexiconScorer().Score(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error scoring %q: %v", text, err)
	}
	return score
}

func TestLexiconBullish(t *testing.T) {
	// "record high" phrase 0.7 + "surges" 0.7, nothing bearish.
	score := lexScore(t, "Apple surges to record high")
	if math.Abs(score-1.0) > 1e-9 {
		t.Errorf("expected 1.0, got %v", score)
	}
}

func TestLexiconBearish(t *testing.T) {
	// "fall" 0.4 + "weak" 0.4, nothing bullish.
	score := lexScore(t, "Apple shares fall on weak demand")
	if math.Abs(score-(-1.0)) > 1e-9 {
		t.Errorf("expected -1.0, got %v", score)
	}
}

func TestLexiconMixed(t *testing.T) {
	// bull: strong 0.4 + profit 0.3 = 0.7; bear: lawsuit 0.5 + fears 0.4 = 0.9.
	// (0.7 - 0.9) / 1.6 = -0.125
	score := lexScore(t, "Strong profit overshadowed by lawsuit fears")
	if math.Abs(score-(-0.125)) > 1e-9 {
		t.Errorf("expected -0.125, got %v", score)
	}
}

func TestLexiconNegation(t *testing.T) {
	score := lexScore(t, "not a strong quarter")
	if score >= 0 {
		t.Errorf("expected negated 'strong' to score bearish, got %v", score)
	}
}

func TestLexiconNeutral(t *testing.T) {
	if score := lexScore(t, "Apple to hold developer conference in June"); score != 0 {
		t.Errorf("expected 0 for signal-free text, got %v", score)
	}
}

func TestLexiconEmpty(t *testing.T) {
	if score := lexScore(t, ""); score != 0 {
		t.Errorf("expected 0 for empty text, got %v", score)
	}
	if score := lexScore(t, "   \t  "); score != 0 {
		t.Errorf("expected 0 for whitespace text, got %v", score)
	}
}

func TestLexiconRange(t *testing.T) {
	texts := []string{
		"surge rally breakout upgrade dividend growth strong",
		"crash plunge fraud bankruptcy selloff layoffs",
		"earnings beat but guidance cut sends shares down",
		"not without concerns, yet strong momentum",
	}
	for _, text := range texts {
		score := lexScore(t, text)
		if score < -1 || score > 1 {
			t.Errorf("score %v for %q outside [-1, 1]", score, text)
		}
	}
}

// mockProvider implements llm.Provider for scorer tests.
type mockProvider struct {
	response string
	err      error
	calls    int
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ int) (string, error) {
	m.calls++
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func TestLLMScorer(t *testing.T) {
	scorer, err := NewLLMScorer(&mockProvider{response: `{"score": -0.4}`}, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	score, err := scorer.Score(context.Background(), "Apple misses estimates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-(-0.4)) > 1e-9 {
		t.Errorf("expected -0.4, got %v", score)
	}
}

func TestLLMScorerCodeFence(t *testing.T) {
	scorer, _ := NewLLMScorer(&mockProvider{response: "```json\n{\"score\": 0.6}\n```"}, 64)
	score, err := scorer.Score(context.Background(), "Apple beats estimates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-0.6) > 1e-9 {
		t.Errorf("expected 0.6, got %v", score)
	}
}

func TestLLMScorerUnparseable(t *testing.T) {
	scorer, _ := NewLLMScorer(&mockProvider{response: "definitely bearish, trust me"}, 64)
	if _, err := scorer.Score(context.Background(), "some headline"); err == nil {
		t.Error("expected error for unparseable response")
	}
}

func TestLLMScorerOutOfRange(t *testing.T) {
	scorer, _ := NewLLMScorer(&mockProvider{response: `{"score": 3.5}`}, 64)
	if _, err := scorer.Score(context.Background(), "some headline"); err == nil {
		t.Error("expected error for out-of-range score")
	}
}

func TestLLMScorerEmptyText(t *testing.T) {
	provider := &mockProvider{response: `{"score": 0.9}`}
	scorer, _ := NewLLMScorer(provider, 64)

	score, err := scorer.Score(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0 {
		t.Errorf("expected 0 for empty text, got %v", score)
	}
	if provider.calls != 0 {
		t.Error("expected no provider call for empty text")
	}
}

func TestLLMScorerNilProvider(t *testing.T) {
	if _, err := NewLLMScorer(nil, 64); err == nil {
		t.Error("expected error constructing scorer without provider")
	}
}

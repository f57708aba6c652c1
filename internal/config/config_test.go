package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Tickers) == 0 {
		t.Error("expected default tickers to be populated")
	}

	if cfg.Sentiment.Provider != "lexicon" {
		t.Errorf("expected provider 'lexicon', got %q", cfg.Sentiment.Provider)
	}

	if !cfg.Sources.Finviz.Enabled {
		t.Error("expected finviz source enabled by default")
	}

	if cfg.Analysis.SentimentLagDays != 1 || cfg.Analysis.PriceChangeDays != 1 {
		t.Errorf("expected default lags 1/1, got %d/%d",
			cfg.Analysis.SentimentLagDays, cfg.Analysis.PriceChangeDays)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
tickers: [NVDA]
sentiment:
  provider: llm
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if len(cfg.Tickers) != 1 || cfg.Tickers[0] != "NVDA" {
		t.Errorf("expected tickers [NVDA], got %v", cfg.Tickers)
	}
	if cfg.Sentiment.Provider != "llm" {
		t.Errorf("expected provider 'llm', got %q", cfg.Sentiment.Provider)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Sentiment.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Sentiment.OllamaURL)
	}
	if cfg.Prices.Interval != "1d" {
		t.Errorf("expected default interval '1d', got %q", cfg.Prices.Interval)
	}
}

func TestParseRejectsBadLags(t *testing.T) {
	if _, err := parse([]byte("analysis:\n  sentiment_lag_days: -1\n")); err == nil {
		t.Error("expected error for negative sentiment lag")
	}
	if _, err := parse([]byte("analysis:\n  price_change_days: 0\n")); err == nil {
		t.Error("expected error for zero price change horizon")
	}
}

func TestParseRejectsUnknownProvider(t *testing.T) {
	if _, err := parse([]byte("sentiment:\n  provider: vibes\n")); err == nil {
		t.Error("expected error for unknown sentiment provider")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Tickers) == 0 {
		t.Error("expected tickers to be populated from file")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

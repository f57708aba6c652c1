package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Tickers   []string  `yaml:"tickers"`
	Sources   Sources   `yaml:"sources"`
	Scrape    Scrape    `yaml:"scrape"`
	Sentiment Sentiment `yaml:"sentiment"`
	Prices    Prices    `yaml:"prices"`
	Analysis  Analysis  `yaml:"analysis"`
	Output    Output    `yaml:"output"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type Sources struct {
	Finviz FinvizConfig `yaml:"finviz"`
	RSS    RSSConfig    `yaml:"rss"`
}

type FinvizConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

type RSSConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URLTemplate string `yaml:"url_template"`
}

type Scrape struct {
	UserAgent    string  `yaml:"user_agent"`
	DelaySeconds float64 `yaml:"delay_seconds"`
	FetchBodies  bool    `yaml:"fetch_bodies"`
}

type Sentiment struct {
	Provider    string `yaml:"provider"` // "lexicon" or "llm"
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

type Prices struct {
	BaseURL  string `yaml:"base_url"`
	Interval string `yaml:"interval"`
}

type Analysis struct {
	SentimentLagDays int  `yaml:"sentiment_lag_days"`
	PriceChangeDays  int  `yaml:"price_change_days"`
	Pooled           bool `yaml:"pooled"`
}

type Output struct {
	DataDir    string `yaml:"data_dir"`
	ResultsDir string `yaml:"results_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for tickermood.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "tickermood")
}

// DataDir returns the XDG data directory for tickermood.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "tickermood")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/tickermood/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'tickermood init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Tickers: []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"},
		Sources: Sources{
			Finviz: FinvizConfig{
				Enabled: true,
				BaseURL: "https://finviz.com/quote.ashx",
			},
			RSS: RSSConfig{
				Enabled:     false,
				URLTemplate: "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US",
			},
		},
		Scrape: Scrape{
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			DelaySeconds: 1,
		},
		Sentiment: Sentiment{
			Provider:    "lexicon",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   64,
		},
		Prices: Prices{
			BaseURL:  "https://query1.finance.yahoo.com",
			Interval: "1d",
		},
		Analysis: Analysis{
			SentimentLagDays: 1,
			PriceChangeDays:  1,
		},
		Output: Output{
			ResultsDir: "sentiment_analysis_results",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects parameter combinations the analysis cannot run with.
func (c *Config) validate() error {
	if c.Analysis.SentimentLagDays < 0 {
		return fmt.Errorf("analysis.sentiment_lag_days must be >= 0, got %d", c.Analysis.SentimentLagDays)
	}
	if c.Analysis.PriceChangeDays < 1 {
		return fmt.Errorf("analysis.price_change_days must be >= 1, got %d", c.Analysis.PriceChangeDays)
	}
	switch c.Sentiment.Provider {
	case "lexicon", "llm":
	default:
		return fmt.Errorf("sentiment.provider must be \"lexicon\" or \"llm\", got %q", c.Sentiment.Provider)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

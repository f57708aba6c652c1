package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkarlsen/tickermood/internal/align"
	"github.com/mkarlsen/tickermood/internal/analysis"
	"github.com/mkarlsen/tickermood/internal/config"
	"github.com/mkarlsen/tickermood/internal/database"
	"github.com/mkarlsen/tickermood/internal/pipeline"
	"github.com/mkarlsen/tickermood/internal/report"
	"github.com/mkarlsen/tickermood/internal/server"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "tickermood",
	Short:   "News sentiment vs. price correlation for stock tickers",
	Long:    "tickermood collects news headlines per ticker, scores their sentiment, aligns the daily signal with closing prices, and reports lagged Pearson correlations.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tickersCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tickermood", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/tickermood/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set tickers, news sources, and analysis lags.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n\n", database.Today())
		fmt.Println("Combined series:")
		fmt.Printf("  Stored rows: %d\n", stats.SeriesRows)
		fmt.Printf("  Tickers: %d\n", stats.Tickers)
		if stats.FirstDay != "" {
			fmt.Printf("  Day range: %s to %s\n", stats.FirstDay, stats.LastDay)
		}
		fmt.Println("\nOutput:")
		fmt.Printf("  Runs: %d\n", stats.Runs)
		fmt.Printf("  Reports: %d\n", stats.Reports)
		fmt.Println("\nWatchlist:")
		fmt.Printf("  Total: %d\n", stats.WatchlistTotal)
		fmt.Printf("  Active: %d\n", stats.WatchlistActive)

		if last, err := db.GetLastRun(); err == nil && last != nil {
			fmt.Println("\nLast run:")
			if last.StartedAt != nil {
				fmt.Printf("  Started: %s\n", *last.StartedAt)
			}
			fmt.Printf("  Tickers: %d requested, %d processed, %d skipped\n",
				last.TickersRequested, last.TickersProcessed, last.TickersSkipped)
			fmt.Printf("  Headlines seen: %d, rows upserted: %d\n",
				last.HeadlinesSeen, last.RowsUpserted)
		}
		return nil
	},
}

// --- run command ---

var (
	dryRun   bool
	daysBack int
)

var runCmd = &cobra.Command{
	Use:   "run [ticker...]",
	Short: "Run the full pipeline: collect -> score -> prices -> align -> persist -> analyze",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		tickers, err := resolveTickers(db, args)
		if err != nil {
			return err
		}
		if len(tickers) == 0 {
			return fmt.Errorf("no tickers: add some to the config or with 'tickermood tickers add'")
		}

		pipe, err := pipeline.New(cfg, db, daysBack)
		if err != nil {
			return err
		}

		if dryRun {
			for i, step := range pipe.DryRun(tickers) {
				fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
				fmt.Printf("  %s\n", step.Summary)
			}
			return nil
		}

		result, err := pipe.Run(context.Background(), tickers)
		if err != nil {
			return err
		}

		fmt.Println("\nRun complete:")
		for _, tr := range result.Tickers {
			if tr.Skipped != "" {
				fmt.Printf("  %s: skipped (%s)\n", tr.Ticker, tr.Skipped)
				continue
			}
			line := fmt.Sprintf("  %s: %d headlines, %d sentiment days, %d aligned rows",
				tr.Ticker, tr.Headlines, tr.Days, tr.Rows)
			if tr.Err != nil {
				line += fmt.Sprintf(" (persistence failed: %v)", tr.Err)
			}
			fmt.Println(line)
		}

		if result.Summary == nil {
			fmt.Println("\nNothing to analyze.")
			return nil
		}
		printSummary(*result.Summary)
		if result.ReportPath != "" {
			fmt.Printf("\nReport: %s\n", result.ReportPath)
			fmt.Println("Run 'tickermood serve' to browse reports and charts.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().IntVar(&daysBack, "days-back", 0, "Drop headlines older than this many days (0 keeps all)")
}

// --- analyze command ---

var (
	analyzeSentLag  int
	analyzePriceLag int
	analyzeFrom     string
	analyzeTo       string
	analyzePooled   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker...]",
	Short: "Recompute correlations from the stored series",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		params := analysisParams()
		summary, err := pipeline.Analyze(db, upperAll(args), dayFilter(analyzeFrom), dayFilter(analyzeTo),
			params, analyzePooled || cfg.Analysis.Pooled)
		if err != nil {
			return err
		}
		if summary == nil {
			fmt.Println("Nothing to analyze: no stored rows match the filters.")
			return nil
		}
		printSummary(*summary)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeSentLag, "sentiment-lag", -1, "Override sentiment lag in days")
	analyzeCmd.Flags().IntVar(&analyzePriceLag, "price-lag", -1, "Override price change window in days")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "Earliest day to include (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "Latest day to include (YYYY-MM-DD)")
	analyzeCmd.Flags().BoolVar(&analyzePooled, "pooled", false, "Also pool all tickers into one coefficient")
}

// --- report command ---

var reportCmd = &cobra.Command{
	Use:   "report [ticker...]",
	Short: "Regenerate the markdown report and charts from the stored series",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		params := analysisParams()
		summary, err := pipeline.Analyze(db, upperAll(args), nil, nil, params, cfg.Analysis.Pooled)
		if err != nil {
			return err
		}
		if summary == nil {
			fmt.Println("Nothing to report: the store has no rows.")
			return nil
		}

		body := report.Build(*summary)
		charts := make(map[string]string)
		for _, ticker := range summary.Tickers() {
			stored, err := db.GetSeriesForTicker(ticker)
			if err != nil {
				return err
			}
			rows := make([]align.Row, len(stored))
			for i, sr := range stored {
				rows[i] = align.Row{Ticker: sr.Ticker, Day: sr.Day, Close: sr.Close, Sentiment: sr.Sentiment}
			}
			charts[ticker] = report.TickerChart(ticker, rows)
		}

		if _, err := db.InsertReport(summary.RunDay, body, params.SentimentLag, params.PriceChangeLag, summary.Tickers()); err != nil {
			log.Printf("Failed to store report: %v", err)
		}

		path, err := report.WriteFiles(cfg.Output.ResultsDir, summary.RunDay, body, charts)
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", path)
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&analyzeSentLag, "sentiment-lag", -1, "Override sentiment lag in days")
	reportCmd.Flags().IntVar(&analyzePriceLag, "price-lag", -1, "Override price change window in days")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- tickers command ---

var tickersCmd = &cobra.Command{
	Use:   "tickers",
	Short: "Manage the ticker watchlist",
}

var tickersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watchlist tickers",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.GetWatchlist(false)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("Watchlist is empty. Add a ticker with: tickermood tickers add SYMBOL")
			if len(cfg.Tickers) > 0 {
				fmt.Printf("Config tickers still run: %s\n", strings.Join(cfg.Tickers, ", "))
			}
			return nil
		}

		fmt.Println("Watchlist:")
		fmt.Println()
		for _, e := range entries {
			icon := " "
			if e.IsActive {
				icon = "*"
			}
			fmt.Printf("  %s %s\n", icon, e.Symbol)
			if e.Note != nil && *e.Note != "" {
				fmt.Printf("      %s\n", *e.Note)
			}
		}
		return nil
	},
}

var tickersAddCmd = &cobra.Command{
	Use:   "add [symbol] [note]",
	Short: "Add a ticker to the watchlist",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var note *string
		if len(args) > 1 {
			note = &args[1]
		}

		if _, err := db.AddTicker(args[0], note); err != nil {
			return err
		}
		fmt.Printf("Added %s to the watchlist\n", strings.ToUpper(args[0]))
		return nil
	},
}

var tickersRemoveCmd = &cobra.Command{
	Use:   "remove [symbol]",
	Short: "Remove a ticker from the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RemoveTicker(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s from the watchlist\n", strings.ToUpper(args[0]))
		return nil
	},
}

var tickersToggleCmd = &cobra.Command{
	Use:   "toggle [symbol]",
	Short: "Toggle a watchlist ticker between active and inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.ToggleTicker(args[0]); err != nil {
			return err
		}

		entry, err := db.GetTickerEntry(args[0])
		if err != nil {
			return err
		}
		state := "disabled"
		if entry != nil && entry.IsActive {
			state = "enabled"
		}
		fmt.Printf("%s %s\n", strings.ToUpper(args[0]), state)
		return nil
	},
}

func init() {
	tickersCmd.AddCommand(tickersListCmd)
	tickersCmd.AddCommand(tickersAddCmd)
	tickersCmd.AddCommand(tickersRemoveCmd)
	tickersCmd.AddCommand(tickersToggleCmd)
}

// --- helpers ---

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "tickermood.db")
	return database.Open(dbPath)
}

// resolveTickers merges explicit arguments, the config list and the active
// watchlist. Explicit arguments win outright; otherwise config and
// watchlist tickers run together, deduplicated.
func resolveTickers(db *database.DB, args []string) ([]string, error) {
	if len(args) > 0 {
		return upperAll(args), nil
	}

	seen := make(map[string]struct{})
	var tickers []string
	add := func(symbol string) {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			return
		}
		if _, ok := seen[symbol]; ok {
			return
		}
		seen[symbol] = struct{}{}
		tickers = append(tickers, symbol)
	}

	for _, t := range cfg.Tickers {
		add(t)
	}
	active, err := db.ActiveSymbols()
	if err != nil {
		return nil, err
	}
	for _, t := range active {
		add(t)
	}

	sort.Strings(tickers)
	return tickers, nil
}

func upperAll(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ToUpper(strings.TrimSpace(a))
	}
	return out
}

func analysisParams() analysis.Params {
	params := analysis.Params{
		SentimentLag:   cfg.Analysis.SentimentLagDays,
		PriceChangeLag: cfg.Analysis.PriceChangeDays,
	}
	if analyzeSentLag >= 0 {
		params.SentimentLag = analyzeSentLag
	}
	if analyzePriceLag >= 1 {
		params.PriceChangeLag = analyzePriceLag
	}
	return params
}

func dayFilter(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func printSummary(s report.Summary) {
	fmt.Printf("\nCorrelation (sentiment lag %d day(s), price change %d day(s), %d rows):\n",
		s.Params.SentimentLag, s.Params.PriceChangeLag, s.Rows)
	for _, ticker := range s.Tickers() {
		c := s.PerTicker[ticker]
		fmt.Printf("  %s: r = %s (%d pairs)\n", ticker, report.FormatR(c.R), c.N)
	}
	if s.Pooled != nil {
		fmt.Printf("  pooled: r = %s (%d pairs)\n", report.FormatR(s.Pooled.R), s.Pooled.N)
	}
}

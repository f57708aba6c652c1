package database

// SeriesRow is one persisted day of the combined sentiment/price series.
// The (Ticker, Day) pair is the primary key; upserts overwrite Close and
// Sentiment for an existing pair.
type SeriesRow struct {
	Ticker    string
	Day       string // YYYY-MM-DD
	Close     float64
	Sentiment float64
	UpdatedAt *string
}

// WatchlistEntry is a tracked ticker symbol.
type WatchlistEntry struct {
	ID        int64
	Symbol    string
	Note      *string
	IsActive  bool
	CreatedAt *string
	UpdatedAt *string
}

// Run holds audit metadata about a single pipeline run.
type Run struct {
	ID               int64
	StartedAt        *string
	TickersRequested int
	TickersProcessed int
	TickersSkipped   int
	HeadlinesSeen    int
	RowsUpserted     int
}

// Report is a stored correlation report.
type Report struct {
	ID             int64
	RunDay         string
	BodyMarkdown   string
	SentimentLag   int
	PriceChangeLag int
	Tickers        []string
	GeneratedAt    *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	SeriesRows      int
	Tickers         int
	FirstDay        string
	LastDay         string
	Runs            int
	Reports         int
	WatchlistTotal  int
	WatchlistActive int
}

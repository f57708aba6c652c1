package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/mkarlsen/tickermood/internal/align"
	"github.com/mkarlsen/tickermood/internal/database"
	"github.com/mkarlsen/tickermood/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the local HTTP server for browsing reports, per-ticker
// charts, and the watchlist.
type Server struct {
	db    *database.DB
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"formatR":  report.FormatR,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "report.html", "ticker.html", "watchlist.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/report/", s.handleReport)
	s.mux.HandleFunc("/ticker/", s.handleTicker)
	s.mux.HandleFunc("/watchlist", s.handleWatchlist)
	s.mux.HandleFunc("/watchlist/add", s.handleAddTicker)
	s.mux.HandleFunc("/watchlist/", s.handleWatchlistAction)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	reports, err := s.db.GetAllReports()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, _ := s.db.GetStats()
	latest, _ := s.db.GetLatestReport()
	tickers, _ := s.db.DistinctTickers()

	s.render(w, "index.html", map[string]any{
		"Reports": reports,
		"Stats":   stats,
		"Latest":  latest,
		"Tickers": tickers,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	runDay := strings.TrimPrefix(r.URL.Path, "/report/")
	if runDay == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	rep, _ := s.db.GetReport(runDay)

	s.render(w, "report.html", map[string]any{
		"Report": rep,
		"RunDay": runDay,
	})
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/ticker/"))
	if symbol == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	stored, err := s.db.GetSeriesForTicker(symbol)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rows := make([]align.Row, len(stored))
	for i, sr := range stored {
		rows[i] = align.Row{Ticker: sr.Ticker, Day: sr.Day, Close: sr.Close, Sentiment: sr.Sentiment}
	}
	chart := template.HTML(report.TickerChart(symbol, rows)) //nolint: gosec

	// Most recent rows first on the page; cap the table.
	recent := stored
	if len(recent) > 30 {
		recent = recent[len(recent)-30:]
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	s.render(w, "ticker.html", map[string]any{
		"Symbol": symbol,
		"Chart":  chart,
		"Rows":   recent,
		"Total":  len(stored),
	})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, _ := s.db.GetWatchlist(false)
	s.render(w, "watchlist.html", map[string]any{
		"Entries": entries,
	})
}

func (s *Server) handleAddTicker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/watchlist", http.StatusFound)
		return
	}

	symbol := strings.TrimSpace(r.FormValue("symbol"))
	note := strings.TrimSpace(r.FormValue("note"))

	if symbol != "" {
		var notePtr *string
		if note != "" {
			notePtr = &note
		}
		s.db.AddTicker(symbol, notePtr)
	}

	http.Redirect(w, r, "/watchlist", http.StatusFound)
}

func (s *Server) handleWatchlistAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/watchlist", http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/watchlist/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		http.Redirect(w, r, "/watchlist", http.StatusFound)
		return
	}

	symbol := parts[0]
	switch parts[1] {
	case "toggle":
		s.db.ToggleTicker(symbol)
	case "delete":
		s.db.RemoveTicker(symbol)
	}

	http.Redirect(w, r, "/watchlist", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int) error {
	srv, err := New(db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}

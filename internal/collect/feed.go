package collect

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const maxPerFeed = 40

// FeedSource reads a per-ticker RSS feed, by default the Yahoo Finance
// headline feed.
type FeedSource struct {
	urlTemplate string
	parser      *gofeed.Parser
}

// NewFeedSource creates a feed source. urlTemplate must contain one %s
// that is replaced with the ticker symbol.
func NewFeedSource(urlTemplate string) *FeedSource {
	return &FeedSource{
		urlTemplate: urlTemplate,
		parser:      gofeed.NewParser(),
	}
}

// Name identifies this source in collection stats.
func (s *FeedSource) Name() string {
	return "rss"
}

// Fetch parses the ticker's feed and returns its dated items.
func (s *FeedSource) Fetch(ctx context.Context, ticker string) ([]Headline, error) {
	feedURL := fmt.Sprintf(s.urlTemplate, url.QueryEscape(strings.ToUpper(ticker)))
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var headlines []Headline
	for _, item := range feed.Items {
		if len(headlines) >= maxPerFeed {
			break
		}
		h := parseItem(item)
		if h == nil {
			continue
		}
		headlines = append(headlines, *h)
	}

	return headlines, nil
}

// parseItem converts a feed item to a headline. Items without a title or
// a parseable timestamp are dropped; an undated headline cannot be
// aggregated into a daily series.
func parseItem(item *gofeed.Item) *Headline {
	title := stripHTML(item.Title)
	if title == "" {
		return nil
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	} else {
		return nil
	}

	source := "rss"
	if item.Link != "" {
		source = extractSourceName(item.Link)
	}

	return &Headline{
		Time:   published,
		Title:  title,
		URL:    item.Link,
		Source: source,
	}
}

func stripHTML(text string) string {
	// Simple HTML tag removal
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	// Decode common entities
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	// Normalize whitespace
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// extractSourceName derives a display name from an article URL's host,
// e.g. https://www.reuters.com/... -> "Reuters".
func extractSourceName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "web"
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "news.", "feeds.", "finance."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}

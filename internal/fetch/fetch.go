package fetch

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/mkarlsen/tickermood/internal/collect"
)

// Result holds the results of a body fetch pass.
type Result struct {
	Fetched int
	Skipped int
	Failed  int
}

// BodyFetcher downloads headline URLs and extracts readable article text
// so the scorer sees more than the title. Bodies stay in memory with the
// headlines; nothing here is persisted.
type BodyFetcher struct {
	client    *http.Client
	userAgent string
}

// NewBodyFetcher creates a body fetcher.
func NewBodyFetcher(userAgent string, timeout time.Duration) *BodyFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &BodyFetcher{
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchBodies returns a copy of headlines where entries with a URL carry
// extracted body text. Once a domain fails, its remaining URLs are skipped.
func (f *BodyFetcher) FetchBodies(ctx context.Context, headlines []collect.Headline) ([]collect.Headline, *Result) {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	out := make([]collect.Headline, len(headlines))
	copy(out, headlines)

	for i := range out {
		if out[i].URL == "" {
			result.Skipped++
			continue
		}

		u, _ := url.Parse(out[i].URL)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			result.Skipped++
			continue
		}

		body, httpErr := f.fetchBody(ctx, out[i].URL)
		if httpErr != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s — skipping remaining from %s", out[i].URL, domain)
			continue
		}

		if body != "" {
			out[i].Body = body
			result.Fetched++
		} else {
			result.Failed++
		}
	}

	log.Printf("Body fetch complete: %d fetched, %d failed, %d skipped",
		result.Fetched, result.Failed, result.Skipped)
	return out, result
}

func (f *BodyFetcher) fetchBody(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > 100 {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}

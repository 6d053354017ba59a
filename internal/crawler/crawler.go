// Package crawler fetches web pages and extracts the metadata the page
// store keeps: title, description, outbound links and a markdown rendering
// of the body.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/cch137/semvec/internal/pagestore"
)

const userAgent = "semvec-crawler/1.0"

// Fetcher retrieves and processes pages.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a Fetcher with the given request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads a page and returns its record. HTTP-level failures are
// not errors: the page is recorded with an "HTTP <code> <message>" body so
// the frontier does not retry dead links forever. Only unusable URLs fail.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*pagestore.Page, error) {
	base, err := url.Parse(rawURL)
	if err != nil || base.Hostname() == "" {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	start := time.Now()
	page := &pagestore.Page{
		URL:    rawURL,
		Domain: base.Hostname(),
		Links:  []string{},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	page.DelayMS = int(time.Since(start).Milliseconds())
	if err != nil {
		page.Title = rawURL
		page.Description = fmt.Sprintf("HTTP 0 %s", err)
		return page, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		page.Title = rawURL
		page.Description = fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return page, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	page.DelayMS = int(time.Since(start).Milliseconds())
	if err != nil {
		page.Title = rawURL
		page.Description = fmt.Sprintf("parse error: %s", err)
		return page, nil
	}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		page.Description = strings.TrimSpace(desc)
	}

	if html, err := doc.Html(); err == nil {
		if md, err := htmltomarkdown.ConvertString(html); err == nil {
			page.Description = firstNonEmpty(page.Description, snippet(md))
			page.Markdown = md
		}
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		abs := CleanURL(ToAbsoluteURL(base, href))
		if !strings.HasPrefix(abs, "http://") && !strings.HasPrefix(abs, "https://") {
			return
		}
		seen[abs] = struct{}{}
	})
	for link := range seen {
		page.Links = append(page.Links, link)
	}
	sort.Strings(page.Links)

	return page, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// snippet keeps the first non-blank line of a markdown body for use as a
// fallback description.
func snippet(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			if len(line) > 200 {
				line = line[:200]
			}
			return line
		}
	}
	return ""
}

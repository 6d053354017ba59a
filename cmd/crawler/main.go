// The crawler worker pulls frontier URLs from the API, fetches and
// processes each page, and posts the results back for storage and
// chunking. Redis keeps visited-set membership and per-domain cooldowns
// so multiple crawler processes can run side by side.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cch137/semvec/internal/config"
	"github.com/cch137/semvec/internal/crawler"
	"github.com/cch137/semvec/internal/frontier"
	"github.com/cch137/semvec/internal/pagestore"
)

const idleWait = 30 * time.Second

type apiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

type pageUpload struct {
	pagestore.Page
	Markdown string `json:"markdown"`
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()
	if cfg.APIKey == "" {
		log.Error("SEMVEC_API_KEY is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	front := frontier.New(frontier.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer front.Close()
	if err := front.Ping(ctx); err != nil {
		log.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	api := &apiClient{
		baseURL:    cfg.APIBaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	fetcher := crawler.NewFetcher(cfg.FetchTimeout)

	log.Info("crawler started", "api", cfg.APIBaseURL)
	for {
		fetched, err := crawlRound(ctx, log, api, front, fetcher)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("crawler stopped")
				return
			}
			log.Error("crawl round failed", "error", err)
		}
		wait := time.Second
		if fetched == 0 {
			wait = idleWait
		}
		select {
		case <-ctx.Done():
			log.Info("crawler stopped")
			return
		case <-time.After(wait):
		}
	}
}

// crawlRound pulls one batch of frontier URLs and processes it. Returns
// the number of pages fetched.
func crawlRound(ctx context.Context, log *slog.Logger, api *apiClient, front *frontier.Frontier, fetcher *crawler.Fetcher) (int, error) {
	var next struct {
		URLs []string `json:"urls"`
	}
	if err := api.do(ctx, http.MethodGet, "/next-pages?limit=10", nil, &next); err != nil {
		return 0, fmt.Errorf("next pages: %w", err)
	}

	var uploads []pageUpload
	for _, rawURL := range next.URLs {
		if ctx.Err() != nil {
			break
		}

		seen, err := front.Seen(ctx, rawURL)
		if err != nil {
			return len(uploads), fmt.Errorf("frontier: %w", err)
		}
		if seen {
			continue
		}

		parsed, err := url.Parse(rawURL)
		if err != nil || parsed.Hostname() == "" {
			front.MarkSeen(ctx, rawURL)
			continue
		}
		reserved, err := front.ReserveDomain(ctx, parsed.Hostname())
		if err != nil {
			return len(uploads), fmt.Errorf("frontier: %w", err)
		}
		if !reserved {
			// Domain on cooldown; leave the URL for a later round.
			continue
		}

		page, err := fetcher.Fetch(ctx, rawURL)
		if err != nil {
			log.Warn("fetch failed", "url", rawURL, "error", err)
			front.MarkSeen(ctx, rawURL)
			continue
		}
		front.MarkSeen(ctx, rawURL)

		log.Info("fetched", "url", rawURL, "title", page.Title, "links", len(page.Links), "delay_ms", page.DelayMS)
		uploads = append(uploads, pageUpload{Page: *page, Markdown: page.Markdown})
	}

	if len(uploads) == 0 {
		return 0, nil
	}

	var stored struct {
		Stored int `json:"stored"`
		Queued int `json:"queued"`
	}
	if err := api.do(ctx, http.MethodPost, "/pages", map[string]any{"pages": uploads}, &stored); err != nil {
		return len(uploads), fmt.Errorf("post pages: %w", err)
	}
	log.Info("round complete", "fetched", len(uploads), "stored", stored.Stored, "queued", stored.Queued)
	return len(uploads), nil
}

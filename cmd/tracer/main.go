// The tracer worker maps the network path toward domains the crawler has
// discovered. It resolves each domain, runs an ICMP traceroute, names the
// hops with reverse DNS and posts the resulting node records to the API.
// Raw ICMP sockets require CAP_NET_RAW or root.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cch137/semvec/internal/config"
	"github.com/cch137/semvec/internal/netmap"
	"github.com/cch137/semvec/internal/pagestore"
)

const idleWait = 60 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()
	if cfg.APIKey == "" {
		log.Error("SEMVEC_API_KEY is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var nodeLog *json.Encoder
	if path := os.Getenv("TRACER_NODE_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Error("open node log", "path", path, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		nodeLog = json.NewEncoder(f)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	tracer := &netmap.Tracer{}
	resolver := &netmap.Resolver{}

	log.Info("tracer started", "api", cfg.APIBaseURL)
	for {
		traced, err := traceRound(ctx, log, cfg, httpClient, tracer, resolver, nodeLog)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("tracer stopped")
				return
			}
			log.Error("trace round failed", "error", err)
		}
		wait := time.Second
		if traced == 0 {
			wait = idleWait
		}
		select {
		case <-ctx.Done():
			log.Info("tracer stopped")
			return
		case <-time.After(wait):
		}
	}
}

func traceRound(ctx context.Context, log *slog.Logger, cfg config.Config, httpClient *http.Client, tracer *netmap.Tracer, resolver *netmap.Resolver, nodeLog *json.Encoder) (int, error) {
	domains, err := nextDomains(ctx, cfg, httpClient)
	if err != nil {
		return 0, fmt.Errorf("next domains: %w", err)
	}

	traced := 0
	for _, domain := range domains {
		if ctx.Err() != nil {
			break
		}

		ips, err := resolver.Lookup(ctx, domain)
		if err != nil || len(ips) == 0 {
			log.Warn("resolve failed", "domain", domain, "error", err)
			continue
		}

		hops, err := tracer.Trace(ctx, ips[0])
		if err != nil {
			log.Warn("trace failed", "domain", domain, "ip", ips[0], "error", err)
			continue
		}
		for i := range hops {
			hops[i].Name = resolver.ReverseName(ctx, hops[i].Addr)
		}

		nodes := netmap.BuildNodes(domain, hops)
		log.Info("traced", "domain", domain, "ip", ips[0].String(), "hops", len(hops), "nodes", len(nodes))
		if len(nodes) == 0 {
			continue
		}
		if nodeLog != nil {
			for _, node := range nodes {
				nodeLog.Encode(node)
			}
		}

		if err := postNodes(ctx, cfg, httpClient, nodes); err != nil {
			return traced, fmt.Errorf("post nodes: %w", err)
		}
		traced++
	}
	return traced, nil
}

func nextDomains(ctx context.Context, cfg config.Config, httpClient *http.Client) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.APIBaseURL+"/next-domains?limit=10", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var body struct {
		Domains []string `json:"domains"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Domains, nil
}

func postNodes(ctx context.Context, cfg config.Config, httpClient *http.Client, nodes []pagestore.Node) error {
	data, err := json.Marshal(map[string]any{"nodes": nodes})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/nodes", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

// Package pagestore persists crawled pages and network nodes in Postgres
// through the Supabase PostgREST API.
package pagestore

import (
	"encoding/json"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// Page is one crawled web page.
type Page struct {
	UUID        string   `json:"uuid,omitempty"`
	URL         string   `json:"url"`
	Domain      string   `json:"domain"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DelayMS     int      `json:"delay_ms"`
	Links       []string `json:"links"`

	// Markdown is the page body used for chunking and embedding. It is
	// carried through the pipeline but not persisted to the pages table;
	// chunk text lives in the vector store.
	Markdown string `json:"-"`
}

// Node is one network host discovered by the tracer.
type Node struct {
	IPAddr     string   `json:"ip_addr"`
	Name       string   `json:"name,omitempty"`
	Domains    []string `json:"domains"`
	Neighbours []string `json:"neighbours"`
}

// Client wraps the Supabase client with the two tables this system owns.
type Client struct {
	sb *supabase.Client
}

// New creates a page store client.
func New(projectURL, apiKey string) (*Client, error) {
	if projectURL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	sb, err := supabase.NewClient(projectURL, apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Client{sb: sb}, nil
}

// UpsertPages inserts or updates pages keyed by URL and returns the stored
// rows, UUIDs assigned.
func (c *Client) UpsertPages(pages []Page) ([]Page, error) {
	if len(pages) == 0 {
		return nil, nil
	}
	var stored []Page
	_, err := c.sb.From("pages").
		Upsert(pages, "url", "representation", "").
		ExecuteTo(&stored)
	if err != nil {
		return nil, fmt.Errorf("upsert %d pages: %w", len(pages), err)
	}
	return stored, nil
}

// UpsertNodes inserts or updates node records keyed by IP address. Domain
// and neighbour lists are merged server-side by the merge_node function.
func (c *Client) UpsertNodes(nodes []Node) error {
	if len(nodes) == 0 {
		return nil
	}
	for _, node := range nodes {
		body, err := json.Marshal(node)
		if err != nil {
			return fmt.Errorf("marshal node %s: %w", node.IPAddr, err)
		}
		resp := c.sb.Rpc("merge_node", "", json.RawMessage(body))
		if resp == "" {
			return fmt.Errorf("merge node %s: empty response", node.IPAddr)
		}
	}
	return nil
}

// PagesByUUIDs fetches page metadata for search result joins.
func (c *Client) PagesByUUIDs(uuids []string) (map[string]Page, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	var rows []Page
	_, err := c.sb.From("pages").
		Select("uuid,url,domain,title,description", "", false).
		In("uuid", uuids).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("fetch %d pages: %w", len(uuids), err)
	}
	byUUID := make(map[string]Page, len(rows))
	for _, row := range rows {
		byUUID[row.UUID] = row
	}
	return byUUID, nil
}

// NextURLs returns the most-linked URLs that have not been crawled yet,
// preferring domains never visited. The ranking CTE lives in the
// top_unvisited_urls database function.
func (c *Client) NextURLs(limit int) ([]string, error) {
	body, err := json.Marshal(map[string]int{"lim": limit})
	if err != nil {
		return nil, err
	}
	resp := c.sb.Rpc("top_unvisited_urls", "", json.RawMessage(body))
	if resp == "" {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(resp), &urls); err != nil {
		return nil, fmt.Errorf("decode next urls: %w", err)
	}
	return urls, nil
}

// NextDomains returns the most-referenced domains with no node records yet;
// the tracer maps these.
func (c *Client) NextDomains(limit int) ([]string, error) {
	body, err := json.Marshal(map[string]int{"lim": limit})
	if err != nil {
		return nil, err
	}
	resp := c.sb.Rpc("top_unvisited_domains", "", json.RawMessage(body))
	if resp == "" {
		return nil, nil
	}
	var domains []string
	if err := json.Unmarshal([]byte(resp), &domains); err != nil {
		return nil, fmt.Errorf("decode next domains: %w", err)
	}
	return domains, nil
}

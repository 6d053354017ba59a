package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"
	"time"
)

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/page?utm_source=x&id=1", "https://example.com/page?id=1"},
		{"https://example.com/page?fbclid=abc", "https://example.com/page"},
		{"https://example.com/page?gclid=abc&utm_medium=m&utm_campaign=c", "https://example.com/page"},
		{"https://example.com/page#section", "https://example.com/page"},
		{"https://example.com/page?keep=1", "https://example.com/page?keep=1"},
	}
	for _, tt := range tests {
		if got := CleanURL(tt.in); got != tt.want {
			t.Errorf("CleanURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToAbsoluteURL(t *testing.T) {
	base, _ := url.Parse("https://example.com/a/b")
	tests := []struct {
		href string
		want string
	}{
		{"/c", "https://example.com/c"},
		{"c", "https://example.com/a/c"},
		{"https://other.org/x", "https://other.org/x"},
		{"//cdn.example.com/y", "https://cdn.example.com/y"},
	}
	for _, tt := range tests {
		if got := ToAbsoluteURL(base, tt.href); got != tt.want {
			t.Errorf("ToAbsoluteURL(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestFetch_ExtractsMetadataAndLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<title>A Page</title>
			<meta name="description" content="about things">
			</head><body>
			<p>Some body text.</p>
			<a href="/rel">rel</a>
			<a href="https://example.com/abs?utm_source=feed">abs</a>
			<a href="mailto:x@example.com">mail</a>
			<a href="/rel">dup</a>
			</body></html>`))
	}))
	defer srv.Close()

	page, err := NewFetcher(5 * time.Second).Fetch(context.Background(), srv.URL+"/index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Title != "A Page" {
		t.Errorf("title = %q", page.Title)
	}
	if page.Description != "about things" {
		t.Errorf("description = %q", page.Description)
	}
	if page.Markdown == "" {
		t.Error("expected non-empty markdown body")
	}
	want := []string{srv.URL + "/rel", "https://example.com/abs"}
	for _, link := range want {
		if !slices.Contains(page.Links, link) {
			t.Errorf("links %v missing %q", page.Links, link)
		}
	}
	if len(page.Links) != 2 {
		t.Errorf("expected 2 deduplicated http links, got %v", page.Links)
	}
	if page.DelayMS < 0 {
		t.Errorf("delay_ms = %d", page.DelayMS)
	}
}

func TestFetch_RecordsHTTPErrorsAsPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	page, err := NewFetcher(5 * time.Second).Fetch(context.Background(), srv.URL+"/missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Title != srv.URL+"/missing" {
		t.Errorf("title = %q, want the url", page.Title)
	}
	if page.Description == "" || page.Description[:8] != "HTTP 404" {
		t.Errorf("description = %q, want HTTP 404 prefix", page.Description)
	}
	if len(page.Links) != 0 {
		t.Errorf("expected no links, got %v", page.Links)
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	if _, err := NewFetcher(time.Second).Fetch(context.Background(), "::not-a-url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

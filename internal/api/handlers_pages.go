package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cch137/semvec/internal/pagestore"
)

// pageUpload is a crawled page plus its markdown body. The body feeds the
// chunking pipeline; only the metadata lands in the pages table.
type pageUpload struct {
	pagestore.Page
	Markdown string `json:"markdown"`
}

// handleUpsertPages stores crawled pages and queues their markdown bodies
// for chunking and embedding.
func (s *Server) handleUpsertPages(w http.ResponseWriter, r *http.Request) {
	if s.pages == nil {
		jsonError(w, "page store not configured", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Pages []pageUpload `json:"pages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(body.Pages) == 0 {
		jsonError(w, "pages is required", http.StatusBadRequest)
		return
	}

	pages := make([]pagestore.Page, len(body.Pages))
	for i, up := range body.Pages {
		pages[i] = up.Page
		if pages[i].Links == nil {
			pages[i].Links = []string{}
		}
	}

	stored, err := s.pages.UpsertPages(pages)
	if err != nil {
		jsonError(w, "upsert pages: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Queue markdown bodies for ingestion under the stored page UUIDs.
	uuidByURL := make(map[string]string, len(stored))
	for _, page := range stored {
		uuidByURL[page.URL] = page.UUID
	}
	queued := 0
	for _, up := range body.Pages {
		if up.Markdown == "" {
			continue
		}
		job := s.newJob("page.md", up.Title, []byte(up.Markdown))
		if pageUUID := uuidByURL[up.URL]; pageUUID != "" {
			job.PageUUID = pageUUID
		}
		if err := s.orchestrator.Submit(job); err != nil {
			s.log.Warn("page ingest not queued", "url", up.URL, "error", err)
			continue
		}
		queued++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"stored": len(stored),
		"queued": queued,
	})
}

// handleUpsertNodes stores network nodes discovered by the tracer.
func (s *Server) handleUpsertNodes(w http.ResponseWriter, r *http.Request) {
	if s.pages == nil {
		jsonError(w, "page store not configured", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Nodes []pagestore.Node `json:"nodes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(body.Nodes) == 0 {
		jsonError(w, "nodes is required", http.StatusBadRequest)
		return
	}

	if err := s.pages.UpsertNodes(body.Nodes); err != nil {
		jsonError(w, "upsert nodes: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"stored": len(body.Nodes)})
}

// handleNextPages returns the crawl frontier's next URLs.
func (s *Server) handleNextPages(w http.ResponseWriter, r *http.Request) {
	if s.pages == nil {
		jsonError(w, "page store not configured", http.StatusServiceUnavailable)
		return
	}
	urls, err := s.pages.NextURLs(queryLimit(r, 10))
	if err != nil {
		jsonError(w, "next pages: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if urls == nil {
		urls = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"urls": urls})
}

// handleNextDomains returns domains awaiting a network trace.
func (s *Server) handleNextDomains(w http.ResponseWriter, r *http.Request) {
	if s.pages == nil {
		jsonError(w, "page store not configured", http.StatusServiceUnavailable)
		return
	}
	domains, err := s.pages.NextDomains(queryLimit(r, 10))
	if err != nil {
		jsonError(w, "next domains: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if domains == nil {
		domains = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"domains": domains})
}

func queryLimit(r *http.Request, fallback int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			return n
		}
	}
	return fallback
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

type searchHit struct {
	Content  string  `json:"content"`
	Start    int     `json:"start"`
	Score    float32 `json:"score"`
	PageUUID string  `json:"page_uuid,omitempty"`
	URL      string  `json:"url,omitempty"`
	Title    string  `json:"title,omitempty"`
	Domain   string  `json:"domain,omitempty"`
}

// handleSearch embeds the query, finds the nearest chunks and joins page
// metadata from the page store.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}
	topK := body.TopK
	if topK <= 0 || topK > 100 {
		topK = s.cfg.SearchTopK
	}

	vec, err := s.embedder.Embed(r.Context(), body.Query)
	if err != nil {
		jsonError(w, "embed query: "+err.Error(), http.StatusInternalServerError)
		return
	}

	results, err := s.vectors.Search(r.Context(), vec, topK)
	if err != nil {
		jsonError(w, "search: "+err.Error(), http.StatusInternalServerError)
		return
	}

	hits := make([]searchHit, 0, len(results))
	uuids := make([]string, 0, len(results))
	for _, res := range results {
		hits = append(hits, searchHit{
			Content:  res.Content,
			Start:    res.Start,
			Score:    res.Score,
			PageUUID: res.PageUUID,
		})
		if res.PageUUID != "" {
			uuids = append(uuids, res.PageUUID)
		}
	}

	// Page metadata is best-effort: a missing page store row should not
	// hide a chunk hit.
	if s.pages != nil && len(uuids) > 0 {
		pages, err := s.pages.PagesByUUIDs(uuids)
		if err != nil {
			s.log.Warn("page metadata join failed", "error", err)
		} else {
			for i := range hits {
				if page, ok := pages[hits[i].PageUUID]; ok {
					hits[i].URL = page.URL
					hits[i].Title = page.Title
					hits[i].Domain = page.Domain
				}
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": hits})
}

// Package api exposes the chunking, embedding, search and frontier
// endpoints over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cch137/semvec/internal/config"
	"github.com/cch137/semvec/internal/embedder"
	"github.com/cch137/semvec/internal/pagestore"
	"github.com/cch137/semvec/internal/pipeline"
	"github.com/cch137/semvec/internal/splitter"
	"github.com/cch137/semvec/internal/vectorstore"
)

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	embedder     embedder.Embedder
	vectors      vectorstore.Store
	pages        *pagestore.Client
	splitCfg     splitter.Config
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, emb embedder.Embedder, vs vectorstore.Store, pages *pagestore.Client, splitCfg splitter.Config, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		embedder:     emb,
		vectors:      vs,
		pages:        pages,
		splitCfg:     splitCfg,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Post("/em/", s.handleEmbed)
	r.Post("/search", s.handleSearch)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)

		r.Get("/next-pages", s.handleNextPages)
		r.Get("/next-domains", s.handleNextDomains)
		r.Post("/pages", s.handleUpsertPages)
		r.Post("/nodes", s.handleUpsertNodes)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

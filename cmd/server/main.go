package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cch137/semvec/internal/api"
	"github.com/cch137/semvec/internal/config"
	"github.com/cch137/semvec/internal/embedder"
	"github.com/cch137/semvec/internal/pagestore"
	"github.com/cch137/semvec/internal/pipeline"
	"github.com/cch137/semvec/internal/splitter"
	"github.com/cch137/semvec/internal/tokenizer"
	"github.com/cch137/semvec/internal/vectorstore"
	"github.com/cch137/semvec/internal/vectorstore/milvus"
	"github.com/cch137/semvec/internal/vectorstore/qdrant"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tok, err := tokenizer.ForName(cfg.Tokenizer, cfg.TikTokenEncoding)
	if err != nil {
		log.Error("tokenizer init failed", "error", err)
		os.Exit(1)
	}
	splitCfg := splitter.Config{MaxTokens: cfg.MaxTokens, Tokenizer: tok}

	emb := embedder.NewHuggingFace(embedder.HuggingFaceConfig{
		BaseURL: cfg.HFBaseURL,
		Model:   cfg.HFModel,
		APIKey:  cfg.HFAPIKey,
		Dim:     cfg.EmbedDim,
	})

	vs, err := openVectorStore(ctx, cfg)
	if err != nil {
		log.Error("vector store init failed", "driver", cfg.VectorDriver, "error", err)
		os.Exit(1)
	}
	if err := vs.Ensure(ctx, emb.Dim()); err != nil {
		log.Error("vector store ensure failed", "error", err)
		os.Exit(1)
	}

	// The page store is optional: without Supabase credentials the server
	// still chunks, embeds and searches, it just skips page metadata.
	var pages *pagestore.Client
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		pages, err = pagestore.New(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			log.Error("page store init failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("page store disabled: SUPABASE_URL or SUPABASE_KEY not set")
	}

	orch := pipeline.NewOrchestrator(cfg, emb, vs, pages, splitCfg, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, emb, vs, pages, splitCfg, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		vs.Close()
	}()

	log.Info("starting semvec", "port", cfg.Port, "driver", cfg.VectorDriver, "model", cfg.HFModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openVectorStore(ctx context.Context, cfg config.Config) (vectorstore.Store, error) {
	driver, err := vectorstore.ParseDriver(cfg.VectorDriver)
	if err != nil {
		return nil, err
	}
	switch driver {
	case vectorstore.DriverQdrant:
		return qdrant.New(qdrant.Config{
			URL:        cfg.QdrantURL,
			Collection: cfg.Collection,
			APIKey:     cfg.QdrantAPIKey,
		})
	default:
		return milvus.New(ctx, milvus.Config{
			Address:    cfg.MilvusAddr,
			Collection: cfg.Collection,
		})
	}
}

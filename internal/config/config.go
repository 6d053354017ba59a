package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Embedding
	HFAPIKey  string
	HFBaseURL string
	HFModel   string
	EmbedDim  int

	// Tokenizer
	Tokenizer        string
	TikTokenEncoding string
	MaxTokens        int

	// Vector store
	VectorDriver string
	Collection   string
	MilvusAddr   string
	QdrantURL    string
	QdrantAPIKey string

	// Page store
	SupabaseURL string
	SupabaseKey string

	// Crawl frontier
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentEmbed int

	// Upload limits
	MaxUploadBytes int64

	// Search
	SearchTopK int

	// Job state
	JobTTL time.Duration

	// Workers (crawler, tracer)
	APIBaseURL   string
	FetchTimeout time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("SEMVEC_API_KEY"),

		HFAPIKey:  os.Getenv("HF_API_KEY"),
		HFBaseURL: envOr("HF_BASE_URL", ""),
		HFModel:   envOr("HF_MODEL", "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"),
		EmbedDim:  envInt("EMBED_DIM", 384),

		Tokenizer:        envOr("TOKENIZER", "tiktoken"),
		TikTokenEncoding: envOr("TIKTOKEN_ENCODING", "cl100k_base"),
		MaxTokens:        envInt("MAX_TOKENS", 128),

		VectorDriver: envOr("VECTOR_DRIVER", "milvus"),
		Collection:   envOr("VECTOR_COLLECTION", "chunks"),
		MilvusAddr:   envOr("MILVUS_ADDR", "localhost:19530"),
		QdrantURL:    envOr("QDRANT_URL", "http://localhost:6334"),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),

		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_KEY"),

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentEmbed: envInt("MAX_CONCURRENT_EMBED", 5),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		SearchTopK: envInt("SEARCH_TOP_K", 10),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		APIBaseURL:   envOr("API_BASE_URL", "http://localhost:8090"),
		FetchTimeout: envDuration("FETCH_TIMEOUT", 10*time.Second),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentEmbed <= 0 {
		cfg.MaxConcurrentEmbed = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 128
	}
	if cfg.SearchTopK <= 0 {
		cfg.SearchTopK = 10
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("SEMVEC_API_KEY is required")
	}
	if c.HFAPIKey == "" {
		return fmt.Errorf("HF_API_KEY is required")
	}
	if c.VectorDriver != "milvus" && c.VectorDriver != "qdrant" {
		return fmt.Errorf("VECTOR_DRIVER must be milvus or qdrant, got %q", c.VectorDriver)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

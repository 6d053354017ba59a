package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the HuggingFace feature-extraction pipeline endpoint.
	DefaultBaseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction/"
	// DefaultModel mirrors the sentence-transformers model the service was
	// built around. It produces 384-dimensional vectors and counts at most
	// 128 tokens per input.
	DefaultModel = "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"
	// DefaultDim is DefaultModel's embedding size.
	DefaultDim = 384
)

// HuggingFace calls the hosted inference API for sentence-transformers
// feature extraction.
type HuggingFace struct {
	baseURL    string
	model      string
	apiKey     string
	dim        int
	httpClient *http.Client
}

// HuggingFaceConfig configures the client. Zero values fall back to the
// defaults above and a 30s HTTP timeout.
type HuggingFaceConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Dim     int
}

func NewHuggingFace(cfg HuggingFaceConfig) *HuggingFace {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dim <= 0 {
		cfg.Dim = DefaultDim
	}
	return &HuggingFace{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		dim:     cfg.Dim,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (h *HuggingFace) Dim() int {
	return h.dim
}

type embeddingRequest struct {
	Inputs  []string         `json:"inputs"`
	Options embeddingOptions `json:"options"`
}

type embeddingOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Embed requests a feature-extraction vector for text.
func (h *HuggingFace) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Inputs:  []string{text},
		Options: embeddingOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+h.model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, &RetryableError{Msg: fmt.Sprintf("embed request: %s", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := fmt.Sprintf("embed %s: status %d: %s", h.model, resp.StatusCode, string(respBody))
		// 429 is rate limiting, 503 is the model still loading.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &RetryableError{Status: resp.StatusCode, Msg: msg}
		}
		return nil, fmt.Errorf("%s", msg)
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed %s: empty response", h.model)
	}
	if len(vectors[0]) != h.dim {
		return nil, fmt.Errorf("embed %s: got %d dimensions, want %d", h.model, len(vectors[0]), h.dim)
	}
	return vectors[0], nil
}

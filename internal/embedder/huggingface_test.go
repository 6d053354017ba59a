package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHuggingFace_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Inputs) != 1 || req.Inputs[0] != "hello" {
			t.Errorf("unexpected inputs: %v", req.Inputs)
		}
		vec := make([]float32, 4)
		vec[0] = 0.5
		json.NewEncoder(w).Encode([][]float32{vec})
	}))
	defer srv.Close()

	h := NewHuggingFace(HuggingFaceConfig{BaseURL: srv.URL + "/", Model: "m", Dim: 4})
	vec, err := h.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 4 || vec[0] != 0.5 {
		t.Errorf("unexpected vector: %v", vec)
	}
}

func TestHuggingFace_RetryableStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		h := NewHuggingFace(HuggingFaceConfig{BaseURL: srv.URL + "/", Model: "m", Dim: 4})
		_, err := h.Embed(context.Background(), "hello")
		srv.Close()

		var retryable *RetryableError
		if !errors.As(err, &retryable) {
			t.Errorf("status %d: expected RetryableError, got %v", status, err)
		}
	}
}

func TestHuggingFace_BadRequestNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	h := NewHuggingFace(HuggingFaceConfig{BaseURL: srv.URL + "/", Model: "m", Dim: 4})
	_, err := h.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		t.Errorf("400 should not be retryable, got %v", err)
	}
}

func TestHuggingFace_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]float32{{1, 2}})
	}))
	defer srv.Close()

	h := NewHuggingFace(HuggingFaceConfig{BaseURL: srv.URL + "/", Model: "m", Dim: 4})
	if _, err := h.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

// Package embedder turns chunk text into fixed-length vectors via an
// external inference service.
package embedder

import "context"

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	// Embed returns the embedding for text. The vector length is constant
	// for a given model.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dim reports the vector length the model produces.
	Dim() int
}

// RetryableError marks a transient failure (rate limit, model loading,
// upstream 5xx) that the pipeline may retry with backoff.
type RetryableError struct {
	Status int
	Msg    string
}

func (e *RetryableError) Error() string {
	return e.Msg
}

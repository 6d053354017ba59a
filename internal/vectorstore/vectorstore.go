// Package vectorstore persists embedded chunks into a similarity-searchable
// index. Drivers share the Record shape; schema details stay inside each
// driver.
package vectorstore

import (
	"context"
	"errors"
)

// Record is the unit of persistence: one chunk of a page with its vector.
type Record struct {
	// ID identifies the chunk; assigned by the writer when empty.
	ID string
	// PageUUID identifies the page the chunk came from.
	PageUUID string
	// Start is the chunk's byte offset within the page text.
	Start int
	// Content is the chunk text.
	Content string
	// Vector is the chunk's embedding.
	Vector []float32
}

// Result is a search hit.
type Result struct {
	Record
	Score float32
}

// Store is the driver interface.
type Store interface {
	// Ensure creates the collection and its index if missing.
	Ensure(ctx context.Context, dim int) error
	// Insert writes records, assigning IDs where absent.
	Insert(ctx context.Context, records []Record) error
	// Search returns the topK records most similar to vector.
	Search(ctx context.Context, vector []float32, topK int) ([]Result, error)
	// Drop deletes the collection and all its data.
	Drop(ctx context.Context) error
	Close() error
}

// Common errors for store construction.
var (
	ErrInvalidConfig = errors.New("invalid vector store configuration")
	ErrInvalidDriver = errors.New("invalid vector store driver")
)

// Package milvus implements vectorstore.Store on a Milvus collection.
package milvus

import (
	"context"
	"fmt"

	milvusclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/cch137/semvec/internal/vectorstore"
	"github.com/google/uuid"
)

// Config holds Milvus connection configuration.
type Config struct {
	// Address is the Milvus endpoint, e.g. "127.0.0.1:19530".
	Address string
	// Collection is the chunk collection name.
	Collection string
}

// Store implements vectorstore.Store for Milvus.
type Store struct {
	db         milvusclient.Client
	collection string
}

var _ vectorstore.Store = (*Store)(nil)

// New connects to Milvus and returns a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: milvus address is required", vectorstore.ErrInvalidConfig)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", vectorstore.ErrInvalidConfig)
	}
	db, err := milvusclient.NewClient(ctx, milvusclient.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}
	return &Store{db: db, collection: cfg.Collection}, nil
}

// Ensure creates the chunk collection with an IVF_FLAT index when missing.
func (s *Store) Ensure(ctx context.Context, dim int) error {
	exists, err := s.db.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return s.db.LoadCollection(ctx, s.collection, false)
	}

	schema := entity.NewSchema().WithName(s.collection).WithAutoID(false).
		WithField(entity.NewField().WithName("chunk_uuid").WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true).WithIsAutoID(false)).
		WithField(entity.NewField().WithName("page_uuid").WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
		WithField(entity.NewField().WithName("start").WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName("content").WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))
	if err := s.db.CreateCollection(ctx, schema, 0); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.L2, 128)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := s.db.CreateIndex(ctx, s.collection, "vector", idx, false); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return s.db.LoadCollection(ctx, s.collection, false)
}

// Insert writes chunk records as columns.
func (s *Store) Insert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	pageUUIDs := make([]string, 0, len(records))
	starts := make([]int64, 0, len(records))
	contents := make([]string, 0, len(records))
	vectors := make([][]float32, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		ids = append(ids, r.ID)
		pageUUIDs = append(pageUUIDs, r.PageUUID)
		starts = append(starts, int64(r.Start))
		contents = append(contents, r.Content)
		vectors = append(vectors, r.Vector)
	}
	dim := len(records[0].Vector)
	_, err := s.db.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar("chunk_uuid", ids),
		entity.NewColumnVarChar("page_uuid", pageUUIDs),
		entity.NewColumnInt64("start", starts),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnFloatVector("vector", dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// Search performs an L2 similarity query.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.Result, error) {
	sp, err := entity.NewIndexIvfFlatSearchParam(10)
	if err != nil {
		return nil, fmt.Errorf("build search params: %w", err)
	}
	results, err := s.db.Search(ctx, s.collection, nil, "",
		[]string{"chunk_uuid", "page_uuid", "start", "content"},
		[]entity.Vector{entity.FloatVector(vector)},
		"vector", entity.L2, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	var hits []vectorstore.Result
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			var hit vectorstore.Result
			if i < len(result.Scores) {
				hit.Score = result.Scores[i]
			}
			for _, field := range []string{"chunk_uuid", "page_uuid", "start", "content"} {
				col := result.Fields.GetColumn(field)
				if col == nil {
					continue
				}
				switch field {
				case "chunk_uuid":
					hit.ID, _ = col.GetAsString(i)
				case "page_uuid":
					hit.PageUUID, _ = col.GetAsString(i)
				case "start":
					if v, err := col.GetAsInt64(i); err == nil {
						hit.Start = int(v)
					}
				case "content":
					hit.Content, _ = col.GetAsString(i)
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// Drop deletes the collection.
func (s *Store) Drop(ctx context.Context) error {
	exists, err := s.db.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return nil
	}
	return s.db.DropCollection(ctx, s.collection)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Package qdrant implements vectorstore.Store on a Qdrant collection.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/cch137/semvec/internal/vectorstore"
)

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant server address (e.g. "https://example.qdrant.io:6334").
	URL string
	// Collection is the chunk collection name.
	Collection string
	// APIKey is an optional API key.
	APIKey string
}

// Store implements vectorstore.Store for Qdrant.
type Store struct {
	client     *qdrant.Client
	collection string
}

var _ vectorstore.Store = (*Store)(nil)

// New creates a Qdrant-backed store.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", vectorstore.ErrInvalidConfig)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", vectorstore.ErrInvalidConfig)
	}

	raw := cfg.URL
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}
	port := 6334
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &Store{client: client, collection: cfg.Collection}, nil
}

// Ensure creates the collection with cosine distance when missing.
func (s *Store) Ensure(ctx context.Context, dim int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Insert upserts chunk points with page metadata in the payload.
func (s *Store) Insert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"page_uuid": r.PageUUID,
				"start":     int64(r.Start),
				"content":   r.Content,
			}),
		})
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

// Search queries the topK nearest points.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.Result, error) {
	limit := uint64(topK)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	results := make([]vectorstore.Result, 0, len(points))
	for _, point := range points {
		res := vectorstore.Result{Score: point.Score}
		if point.Id != nil {
			if id := point.Id.GetUuid(); id != "" {
				res.ID = id
			} else {
				res.ID = strconv.FormatUint(point.Id.GetNum(), 10)
			}
		}
		for k, v := range point.Payload {
			switch k {
			case "page_uuid":
				res.PageUUID = v.GetStringValue()
			case "start":
				res.Start = int(v.GetIntegerValue())
			case "content":
				res.Content = v.GetStringValue()
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Drop deletes the collection.
func (s *Store) Drop(ctx context.Context) error {
	return s.client.DeleteCollection(ctx, s.collection)
}

func (s *Store) Close() error {
	return s.client.Close()
}

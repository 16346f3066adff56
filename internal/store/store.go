// Package store provides the vector store gateway: named collections of
// (text, vector, metadata) tuples with similarity search.
package store

import (
	"context"
	"fmt"

	"chatquery/internal/config"
	"chatquery/internal/models"
)

// VectorStore is the contract the ingestion and query paths depend on.
// Distances are dissimilarity measures: smaller means more similar, and query
// results are ordered ascending by distance.
type VectorStore interface {
	// Store writes documents with their vectors and metadata into the named
	// collection, creating the collection on first use. Ids are generated.
	// The three slices must have matching lengths (metadata may be nil).
	Store(ctx context.Context, collection string, docs []string, vectors [][]float32, metadatas []models.ChunkMetadata) error

	// Query returns up to topK results ordered ascending by distance. A
	// missing collection surfaces util.ErrCollectionNotFound; callers treat
	// that as "no results", not a hard failure.
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]models.SearchResult, error)

	// Info reports the collection's document count and last update time, or
	// util.ErrCollectionNotFound.
	Info(ctx context.Context, collection string) (models.CollectionInfo, error)

	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, collection string) error

	// Clear removes every entry but keeps the collection itself.
	Clear(ctx context.Context, collection string) error

	Close()
}

// New builds the configured store implementation.
func New(ctx context.Context, cfg config.Config) (VectorStore, error) {
	switch cfg.StoreMode {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres", "":
		return NewPostgresStore(ctx, cfg.PostgresURL)
	default:
		return nil, fmt.Errorf("unknown store mode %q", cfg.StoreMode)
	}
}

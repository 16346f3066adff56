package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatquery/internal/models"
	"chatquery/internal/util"
)

type memoryEntry struct {
	id       string
	text     string
	vector   []float32
	metadata models.ChunkMetadata
}

type memoryCollection struct {
	entries     []memoryEntry
	lastUpdated time.Time
}

// MemoryStore is a brute-force in-process store. It normalizes vectors on
// write and ranks by cosine distance (1 - dot product of unit vectors).
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) Store(_ context.Context, collection string, docs []string, vectors [][]float32, metadatas []models.ChunkMetadata) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs/vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}
	if metadatas != nil && len(metadatas) != len(docs) {
		return fmt.Errorf("docs/metadata length mismatch: %d vs %d", len(docs), len(metadatas))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		col = &memoryCollection{}
		s.collections[collection] = col
	}
	for i, doc := range docs {
		e := memoryEntry{
			id:     uuid.NewString(),
			text:   util.SanitizeText(doc),
			vector: normalize(vectors[i]),
		}
		if metadatas != nil {
			e.metadata = metadatas[i]
		}
		col.entries = append(col.entries, e)
	}
	col.lastUpdated = time.Now()
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, vector []float32, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", collection, util.ErrCollectionNotFound)
	}
	q := normalize(vector)
	results := make([]models.SearchResult, 0, len(col.entries))
	for _, e := range col.entries {
		results = append(results, models.SearchResult{
			Text:     e.text,
			Metadata: e.metadata,
			Distance: 1 - dot(q, e.vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *MemoryStore) Info(_ context.Context, collection string) (models.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collection]
	if !ok {
		return models.CollectionInfo{}, fmt.Errorf("collection %s: %w", collection, util.ErrCollectionNotFound)
	}
	return models.CollectionInfo{
		Name:        collection,
		Count:       len(col.entries),
		LastUpdated: col.lastUpdated,
	}, nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Delete(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection]; !ok {
		return fmt.Errorf("collection %s: %w", collection, util.ErrCollectionNotFound)
	}
	delete(s.collections, collection)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s: %w", collection, util.ErrCollectionNotFound)
	}
	col.entries = nil
	col.lastUpdated = time.Now()
	return nil
}

func (s *MemoryStore) Close() {}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return append([]float32(nil), v...)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatquery/internal/models"
	"chatquery/internal/util"
)

// PostgresStore persists collections in Postgres with pgvector cosine search.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS collections (
  name TEXT PRIMARY KEY,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE TABLE IF NOT EXISTS chunks (
  chunk_id TEXT PRIMARY KEY,
  collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
  text TEXT NOT NULL,
  metadata JSONB,
  embedding vector
)`,
		`CREATE INDEX IF NOT EXISTS chunks_collection_idx ON chunks (collection)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Store(ctx context.Context, collection string, docs []string, vectors [][]float32, metadatas []models.ChunkMetadata) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs/vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}
	if metadatas != nil && len(metadatas) != len(docs) {
		return fmt.Errorf("docs/metadata length mismatch: %d vs %d", len(docs), len(metadatas))
	}
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx store chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Re-creating an existing collection is a no-op: store path is lazy and
	// idempotent on the collection itself.
	if _, err := tx.Exec(ctx, `
INSERT INTO collections (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET last_updated = now()`, collection); err != nil {
		return fmt.Errorf("ensure collection %s: %w", collection, err)
	}

	for i, doc := range docs {
		var metaJSON []byte
		if metadatas != nil {
			metaJSON, err = json.Marshal(metadatas[i])
			if err != nil {
				return fmt.Errorf("marshal chunk metadata: %w", err)
			}
		}
		_, err := tx.Exec(ctx, `
INSERT INTO chunks (chunk_id, collection, text, metadata, embedding)
VALUES ($1, $2, $3, $4, $5::vector)`,
			uuid.NewString(), collection, util.SanitizeText(doc), metaJSON, ToLiteral(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, vector []float32, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
SELECT text, metadata, embedding <=> $2::vector AS distance
FROM chunks
WHERE collection = $1 AND embedding IS NOT NULL
ORDER BY distance ASC
LIMIT $3`, collection, ToLiteral(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.SearchResult, 0, topK)
	for rows.Next() {
		var r models.SearchResult
		var metaJSON []byte
		if err := rows.Scan(&r.Text, &metaJSON, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &r.Metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

func (s *PostgresStore) Info(ctx context.Context, collection string) (models.CollectionInfo, error) {
	info := models.CollectionInfo{Name: collection}
	err := s.pool.QueryRow(ctx, `
SELECT c.last_updated, COUNT(k.chunk_id)
FROM collections c
LEFT JOIN chunks k ON k.collection = c.name
WHERE c.name = $1
GROUP BY c.last_updated`, collection).Scan(&info.LastUpdated, &info.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CollectionInfo{}, fmt.Errorf("collection %s: %w", collection, util.ErrCollectionNotFound)
	}
	if err != nil {
		return models.CollectionInfo{}, fmt.Errorf("collection info: %w", err)
	}
	return info, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM collections ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection name: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM collections WHERE name = $1`, collection)
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", collection, util.ErrCollectionNotFound)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, collection string) error {
	if err := s.requireCollection(ctx, collection); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("clear collection %s: %w", collection, err)
	}
	if _, err := s.pool.Exec(ctx, `UPDATE collections SET last_updated = now() WHERE name = $1`, collection); err != nil {
		return fmt.Errorf("touch collection %s: %w", collection, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) requireCollection(ctx context.Context, collection string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM collections WHERE name = $1)`, collection).Scan(&exists); err != nil {
		return fmt.Errorf("check collection %s: %w", collection, err)
	}
	if !exists {
		return fmt.Errorf("collection %s: %w", collection, util.ErrCollectionNotFound)
	}
	return nil
}

// ToLiteral renders a vector as the pgvector text literal "[x,y,...]".
func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Package activities holds the Temporal activity implementations for the
// ingestion pipeline: parse, chunk, embed, store, cleanup.
package activities

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.temporal.io/sdk/temporal"

	"chatquery/internal/chunker"
	"chatquery/internal/config"
	"chatquery/internal/embedding"
	"chatquery/internal/models"
	"chatquery/internal/parser"
	"chatquery/internal/providers"
	"chatquery/internal/store"
	"chatquery/internal/util"
)

type Activities struct {
	cfg     config.Config
	gateway *embedding.Gateway
	store   store.VectorStore
}

func New(cfg config.Config, vs store.VectorStore) (*Activities, error) {
	pm, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:     cfg,
		gateway: embedding.NewGatewayFromManager(pm, cfg.EmbedDim),
		store:   vs,
	}, nil
}

// ParseFileActivity extracts messages from an uploaded file. A file with no
// extractable content fails the activity so the workflow reports failure.
func (a *Activities) ParseFileActivity(ctx context.Context, in ParseFileInput) (ParseFileOutput, error) {
	_ = ctx
	msgs, err := parser.Parse(in.Path)
	if err != nil {
		return ParseFileOutput{}, fmt.Errorf("parse %s: %w", in.Filename, err)
	}
	if len(msgs) == 0 {
		return ParseFileOutput{}, fmt.Errorf("parse %s: no extractable content", in.Filename)
	}
	return ParseFileOutput{Messages: msgs, Stats: parser.ChatStats(msgs)}, nil
}

func (a *Activities) ChunkMessagesActivity(ctx context.Context, in ChunkMessagesInput) (ChunkMessagesOutput, error) {
	_ = ctx
	threshold := in.Threshold
	if threshold <= 0 {
		threshold = a.cfg.ChunkSize
	}
	chunks := chunker.Chunk(in.Messages, threshold)
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(in.Filename)), ".")
	for i := range chunks {
		chunks[i].Metadata.Filename = in.Filename
		chunks[i].Metadata.FileType = fileType
	}
	return ChunkMessagesOutput{Chunks: chunks}, nil
}

func (a *Activities) EmbedChunksActivity(ctx context.Context, in EmbedChunksInput) (EmbedChunksOutput, error) {
	texts := make([]string, len(in.Chunks))
	for i, c := range in.Chunks {
		texts[i] = c.Content
	}
	vectors, err := a.gateway.Embed(ctx, texts)
	if err != nil {
		// Quota and permanent provider failures will not heal on retry.
		if errors.Is(err, util.ErrPermanent) || errors.Is(err, util.ErrQuotaExhausted) {
			return EmbedChunksOutput{}, temporal.NewNonRetryableApplicationError("embed chunks", "EmbedFailure", err)
		}
		return EmbedChunksOutput{}, err
	}
	return EmbedChunksOutput{Vectors: vectors}, nil
}

func (a *Activities) StoreChunksActivity(ctx context.Context, in StoreChunksInput) (StoreChunksOutput, error) {
	docs := make([]string, len(in.Chunks))
	metas := make([]models.ChunkMetadata, len(in.Chunks))
	for i, c := range in.Chunks {
		docs[i] = c.Content
		metas[i] = c.Metadata
	}
	if err := a.store.Store(ctx, in.Collection, docs, in.Vectors, metas); err != nil {
		return StoreChunksOutput{}, fmt.Errorf("store %d chunks in %s: %w", len(docs), in.Collection, err)
	}
	return StoreChunksOutput{Stored: len(docs)}, nil
}

// CleanupFileActivity removes the uploaded temp file. Runs on both the
// success and failure paths; a file that is already gone is not an error.
func (a *Activities) CleanupFileActivity(ctx context.Context, in CleanupFileInput) error {
	_ = ctx
	if err := os.Remove(in.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("cleanup %s: %v", in.Path, err)
		return err
	}
	return nil
}

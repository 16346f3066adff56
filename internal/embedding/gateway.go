// Package embedding wraps the configured embedding providers behind the
// contract the ingestion and query paths rely on: batched calls, stable
// ordering, and a single fallback attempt before failing hard.
package embedding

import (
	"context"
	"fmt"
	"log"
	"sync"

	"chatquery/internal/providers"
)

// Gateway embeds texts through a primary provider, retrying once with a
// smaller fallback model when the primary is unavailable.
type Gateway struct {
	primary  providers.EmbeddingProvider
	fallback providers.EmbeddingProvider
	dim      int

	mu        sync.Mutex
	probedDim int
}

func NewGateway(primary, fallback providers.EmbeddingProvider, dim int) *Gateway {
	return &Gateway{primary: primary, fallback: fallback, dim: dim}
}

// NewGatewayFromManager wires the manager's first embedding provider as the
// primary and the second, when present, as the fallback.
func NewGatewayFromManager(m *providers.Manager, dim int) *Gateway {
	return NewGateway(m.PrimaryEmbedProvider(), m.FallbackEmbedProvider(), dim)
}

// Embed returns one vector per input text in the same order. An empty input
// yields an empty result without any provider call. All texts are batched
// into a single call.
func (g *Gateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	req := providers.EmbedRequest{Operation: "embed", Inputs: texts, Dimension: g.dim}
	vectors, _, err := g.primary.Embed(ctx, req)
	if err != nil && g.fallback != nil {
		log.Printf("primary embedding provider failed (%v), trying fallback", err)
		vectors, _, err = g.fallback.Embed(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), providers.Classified(err))
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedSingle embeds one text and returns its vector.
func (g *Gateway) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimension discovers the vector dimension empirically by embedding a probe
// string once and caching the result. Callers must not assume a declared
// compile-time dimension; models differ.
func (g *Gateway) Dimension(ctx context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.probedDim > 0 {
		return g.probedDim, nil
	}
	vec, err := g.embedProbe(ctx)
	if err != nil {
		return 0, err
	}
	g.probedDim = len(vec)
	return g.probedDim, nil
}

func (g *Gateway) embedProbe(ctx context.Context) ([]float32, error) {
	req := providers.EmbedRequest{Operation: "dimension_probe", Inputs: []string{"test"}, Dimension: g.dim}
	vectors, _, err := g.primary.Embed(ctx, req)
	if err != nil && g.fallback != nil {
		vectors, _, err = g.fallback.Embed(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("dimension probe: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("dimension probe returned no vector")
	}
	return vectors[0], nil
}

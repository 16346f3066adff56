// Package rag assembles answers: embed the query, retrieve the nearest
// chunks, and prompt the configured LLM with the retrieved context.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatquery/internal/embedding"
	"chatquery/internal/models"
	"chatquery/internal/providers"
	"chatquery/internal/store"
	"chatquery/internal/util"
)

const answerSystemPrompt = `You are a helpful assistant answering questions about a conversation or document.
Answer using only the provided context. If the context does not contain enough
information to answer, say so plainly. Do not invent details.`

const noContextAnswer = "I couldn't find any relevant information to answer your question. The collection may be empty or still processing."

// Assembler ties the embedding gateway, the vector store and an LLM into the
// question answering path.
type Assembler struct {
	gateway *embedding.Gateway
	store   store.VectorStore
	llm     providers.LLMProvider
	topK    int
}

func NewAssembler(gateway *embedding.Gateway, vs store.VectorStore, llm providers.LLMProvider, topK int) *Assembler {
	if topK <= 0 {
		topK = 5
	}
	return &Assembler{gateway: gateway, store: vs, llm: llm, topK: topK}
}

// Answer runs the full retrieval path for one query. It degrades instead of
// failing: a missing or empty collection yields the canned no-context answer,
// and collaborator errors yield an apologetic answer with confidence zero.
// The returned error is always nil so callers can render the result directly.
func (a *Assembler) Answer(ctx context.Context, query, collection string, topK int) (models.QueryResult, error) {
	if topK <= 0 {
		topK = a.topK
	}
	result := models.QueryResult{Query: query}

	vector, err := a.gateway.EmbedSingle(ctx, query)
	if err != nil {
		return a.degraded(result, fmt.Errorf("embed query: %w", err)), nil
	}

	hits, err := a.store.Query(ctx, collection, vector, topK)
	if errors.Is(err, util.ErrCollectionNotFound) {
		result.Answer = noContextAnswer
		return result, nil
	}
	if err != nil {
		return a.degraded(result, fmt.Errorf("search collection: %w", err)), nil
	}
	if len(hits) == 0 {
		result.Answer = noContextAnswer
		return result, nil
	}

	contextTexts := make([]string, len(hits))
	for i, h := range hits {
		contextTexts[i] = h.Text
	}

	resp, _, err := a.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "answer",
		System:    answerSystemPrompt,
		Prompt:    query,
		Context:   contextTexts,
	})
	if err != nil {
		return a.degraded(result, fmt.Errorf("generate answer: %w", err)), nil
	}

	result.Answer = strings.TrimSpace(resp.Text)
	result.Sources = hits
	result.Confidence = confidence(hits)
	return result, nil
}

func (a *Assembler) degraded(result models.QueryResult, err error) models.QueryResult {
	result.Answer = fmt.Sprintf("Sorry, I ran into a problem answering that: %v", err)
	result.Sources = nil
	result.Confidence = 0
	return result
}

// confidence maps the best (smallest) retrieved distance to 1-distance,
// clamped to [0,1]. Cosine distances can exceed 1 for anti-correlated
// vectors, and some backends report distances without a fixed upper bound.
func confidence(hits []models.SearchResult) float64 {
	if len(hits) == 0 {
		return 0.5
	}
	best := hits[0].Distance
	for _, h := range hits[1:] {
		if h.Distance < best {
			best = h.Distance
		}
	}
	c := 1 - best
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

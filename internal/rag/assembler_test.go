package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatquery/internal/embedding"
	"chatquery/internal/models"
	"chatquery/internal/providers"
	"chatquery/internal/store"
	"chatquery/internal/util"
)

type stubLLM struct {
	lastReq providers.GenerateRequest
	text    string
	err     error
}

func (s *stubLLM) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	s.lastReq = req
	if s.err != nil {
		return providers.GenerateResponse{}, providers.ProviderInfo{}, s.err
	}
	return providers.GenerateResponse{Text: s.text}, providers.ProviderInfo{Name: "stub"}, nil
}

type errStore struct {
	store.VectorStore
	err error
}

func (s *errStore) Query(context.Context, string, []float32, int) ([]models.SearchResult, error) {
	return nil, s.err
}

func newTestAssembler(t *testing.T, vs store.VectorStore, llm providers.LLMProvider) *Assembler {
	t.Helper()
	gw := embedding.NewGateway(providers.NewMockProvider(8), nil, 8)
	return NewAssembler(gw, vs, llm, 5)
}

func seedCollection(t *testing.T, vs store.VectorStore, collection string, texts ...string) {
	t.Helper()
	gw := embedding.NewGateway(providers.NewMockProvider(8), nil, 8)
	vectors, err := gw.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.NoError(t, vs.Store(context.Background(), collection, texts, vectors, nil))
}

func TestAnswerUsesRetrievedContext(t *testing.T) {
	vs := store.NewMemoryStore()
	seedCollection(t, vs, "chat",
		"[Alice]: the meeting is on friday at 10am",
		"[Bob]: bring the quarterly report",
	)
	llm := &stubLLM{text: "The meeting is on Friday at 10am."}
	a := newTestAssembler(t, vs, llm)

	result, err := a.Answer(context.Background(), "when is the meeting?", "chat", 5)
	require.NoError(t, err)

	assert.Equal(t, "The meeting is on Friday at 10am.", result.Answer)
	assert.Equal(t, "when is the meeting?", result.Query)
	assert.Len(t, result.Sources, 2)
	assert.Len(t, llm.lastReq.Context, 2)
	assert.Equal(t, "answer", llm.lastReq.Operation)
	assert.Equal(t, "when is the meeting?", llm.lastReq.Prompt)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestAnswerMissingCollection(t *testing.T) {
	vs := store.NewMemoryStore()
	llm := &stubLLM{text: "should not be called"}
	a := newTestAssembler(t, vs, llm)

	result, err := a.Answer(context.Background(), "anything?", "missing", 5)
	require.NoError(t, err)

	assert.Equal(t, noContextAnswer, result.Answer)
	assert.Empty(t, result.Sources)
	assert.Zero(t, result.Confidence)
	assert.Empty(t, llm.lastReq.Operation, "llm must not be invoked without context")
}

func TestAnswerEmptyCollection(t *testing.T) {
	vs := store.NewMemoryStore()
	require.NoError(t, vs.Store(context.Background(), "empty", nil, nil, nil))
	a := newTestAssembler(t, vs, &stubLLM{})

	result, err := a.Answer(context.Background(), "anything?", "empty", 5)
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, result.Answer)
	assert.Zero(t, result.Confidence)
}

func TestAnswerStoreErrorNeverPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	a := newTestAssembler(t, &errStore{err: boom}, &stubLLM{})

	result, err := a.Answer(context.Background(), "anything?", "chat", 5)
	require.NoError(t, err)
	assert.Contains(t, result.Answer, "connection refused")
	assert.Zero(t, result.Confidence)
	assert.Empty(t, result.Sources)
}

func TestAnswerLLMErrorNeverPropagates(t *testing.T) {
	vs := store.NewMemoryStore()
	seedCollection(t, vs, "chat", "[Alice]: hello there everyone")
	llm := &stubLLM{err: fmt.Errorf("rate limited: %w", util.ErrRateLimited)}
	a := newTestAssembler(t, vs, llm)

	result, err := a.Answer(context.Background(), "anything?", "chat", 5)
	require.NoError(t, err)
	assert.Contains(t, result.Answer, "rate limited")
	assert.Zero(t, result.Confidence)
}

func TestConfidenceClamped(t *testing.T) {
	assert.Equal(t, 1.0, confidence([]models.SearchResult{{Distance: -0.2}}))
	assert.Equal(t, 0.0, confidence([]models.SearchResult{{Distance: 1.7}}))
	assert.InDelta(t, 0.6, confidence([]models.SearchResult{{Distance: 0.9}, {Distance: 0.4}}), 1e-9)
	assert.Equal(t, 0.5, confidence(nil))
}

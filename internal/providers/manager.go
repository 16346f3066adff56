package providers

import (
	"fmt"
	"strings"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

// Manager holds the configured embedding and LLM providers. The first
// embedding provider is the primary model; the second, when configured, is the
// smaller fallback tried once before an embed fails hard.
type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider
}

func NewManager(llmList, embedList string, embedDim int) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(llmList) {
		p, err := buildProvider(ref, embedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support llm", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: llm})
	}
	for _, ref := range ParseProviderList(embedList) {
		p, err := buildProvider(ref, embedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	if len(m.embedProviders) == 0 {
		m.embedProviders = []NamedEmbedProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(embedDim)}}
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = []NamedLLMProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(embedDim)}}
	}
	return m, nil
}

func (m *Manager) PrimaryEmbedProvider() EmbeddingProvider {
	return m.embedProviders[0].Provider
}

// FallbackEmbedProvider returns the second configured embedding provider, or
// nil when only one is configured.
func (m *Manager) FallbackEmbedProvider() EmbeddingProvider {
	if len(m.embedProviders) < 2 {
		return nil
	}
	return m.embedProviders[1].Provider
}

func (m *Manager) FirstLLMProvider() LLMProvider {
	return m.llmProviders[0].Provider
}

func (m *Manager) EmbedCount() int { return len(m.embedProviders) }
func (m *Manager) LLMCount() int   { return len(m.llmProviders) }

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}

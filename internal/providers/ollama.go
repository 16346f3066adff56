package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OllamaEmbeddingProvider supports local, free embeddings via Ollama.
// Default model is all-minilm (384 dimensions).
type OllamaEmbeddingProvider struct {
	alias   string
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaEmbeddingProvider(alias string) *OllamaEmbeddingProvider {
	baseURL := strings.TrimSpace(os.Getenv("CHATQUERY_OLLAMA_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaEmbeddingProvider{
		alias:   alias,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   resolveOllamaEmbedModel(alias),
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

// Embed sends all inputs in one /api/embed call and returns vectors in input
// order.
func (o *OllamaEmbeddingProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "ollama", Model: o.model, Key: o.alias}
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	payload, _ := json.Marshal(map[string]any{
		"model": o.model,
		"input": req.Inputs,
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embed", bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, info, fmt.Errorf("ollama embedding request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, info, fmt.Errorf("ollama embedding error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, info, fmt.Errorf("decode ollama embedding response: %w", err)
	}
	if len(parsed.Embeddings) != len(req.Inputs) {
		return nil, info, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(parsed.Embeddings), len(req.Inputs))
	}
	return parsed.Embeddings, info, nil
}

func resolveOllamaEmbedModel(alias string) string {
	alias = strings.TrimSpace(alias)
	if alias != "" {
		switch strings.ToLower(alias) {
		case "minilm":
			return "all-minilm"
		case "nomic":
			return "nomic-embed-text"
		}
		// Allow direct model in provider list, e.g. ollama:all-minilm
		if strings.Contains(alias, "-") || strings.Contains(alias, "/") || strings.Contains(alias, ".") {
			return alias
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHATQUERY_OLLAMA_EMBED_MODEL")); v != "" {
		return v
	}
	return "all-minilm"
}

package embedding

import (
	"context"
	"fmt"
	"time"

	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
)

// openaiProvider adapts the OpenAI embedding client to the provider
// interface, narrowing it to single-text calls with float32 output.
type openaiProvider struct {
	embedder  *openaiembed.Embedder
	dimension int
}

var _ model.EmbeddingProvider = (*openaiProvider)(nil)

// NewOpenAIProvider builds the embedding provider from the OpenAI credentials
// and embedding settings. Construction fails fast on bad credentials so a
// misconfigured deployment never reaches the serving path.
func NewOpenAIProvider(ctx context.Context, openAICfg model.OpenAIConfig, cfg model.EmbeddingConfig) (model.EmbeddingProvider, error) {
	dim := cfg.Dimension
	embedder, err := openaiembed.NewEmbedder(ctx, &openaiembed.EmbeddingConfig{
		APIKey:     openAICfg.APIKey,
		BaseURL:    openAICfg.BaseURL,
		Model:      cfg.Model,
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		Dimensions: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("init embedding client: %w", err)
	}
	return &openaiProvider{embedder: embedder, dimension: dim}, nil
}

func (p *openaiProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed text: expected 1 vector, got %d", len(vectors))
	}
	vec := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (p *openaiProvider) Dimension() int {
	return p.dimension
}

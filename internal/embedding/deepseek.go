package embedding

import (
	"context"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperjump/toshokan/internal/config"
)

// DeepSeekEmbedder talks to DeepSeek's OpenAI-compatible embeddings endpoint.
type DeepSeekEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

var _ Embedder = (*DeepSeekEmbedder)(nil)

// NewDeepSeekEmbedder creates an embedder for cfg. The API key is required.
func NewDeepSeekEmbedder(cfg config.ProviderConfig) (*DeepSeekEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek api key is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	return &DeepSeekEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		dims:   cfg.Dimensions,
	}, nil
}

// Embed embeds a single text.
func (e *DeepSeekEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one API call. The result has the same length
// and order as texts.
func (e *DeepSeekEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("deepseek embeddings request: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("deepseek returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}
	// The API reports each embedding's input position; order by it.
	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	vecs := make([][]float32, len(texts))
	for i, d := range data {
		v := make([]float32, len(d.Embedding))
		copy(v, d.Embedding)
		if e.dims > 0 && len(v) != e.dims {
			return nil, fmt.Errorf("deepseek embedding dimension mismatch: got %d, expected %d", len(v), e.dims)
		}
		Normalize(v)
		vecs[i] = v
	}
	return vecs, nil
}

// Dimensions returns the configured embedding dimension.
func (e *DeepSeekEmbedder) Dimensions() int {
	return e.dims
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (e *DeepSeekEmbedder) Close() error {
	return nil
}

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hyperjump/toshokan/internal/config"
)

const chutesRequestTimeout = 60 * time.Second

// ChutesEmbedder talks to the Chutes embedding API, which takes one text per
// request and returns either a bare JSON array of floats or an object with an
// "embedding" field.
type ChutesEmbedder struct {
	client   *http.Client
	endpoint string
	apiKey   string
	dims     int
}

var _ Embedder = (*ChutesEmbedder)(nil)

// NewChutesEmbedder creates an embedder for cfg. Endpoint and API key are required.
func NewChutesEmbedder(cfg config.ProviderConfig) (*ChutesEmbedder, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("chutes endpoint is not set")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("chutes api key is not set")
	}
	transport := &http.Transport{
		MaxIdleConns:        8,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     30 * time.Second,
	}
	return &ChutesEmbedder{
		client:   &http.Client{Transport: transport, Timeout: chutesRequestTimeout},
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		dims:     cfg.Dimensions,
	}, nil
}

type chutesRequest struct {
	Inputs string `json:"inputs"`
}

// Embed embeds a single text.
func (e *ChutesEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(chutesRequest{Inputs: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chutes request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chutes returned %d: %s", resp.StatusCode, string(b))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chutes response: %w", err)
	}
	vec, err := parseChutesVector(raw)
	if err != nil {
		return nil, err
	}
	if e.dims > 0 && len(vec) != e.dims {
		return nil, fmt.Errorf("chutes embedding dimension mismatch: got %d, expected %d", len(vec), e.dims)
	}
	Normalize(vec)
	return vec, nil
}

// EmbedBatch embeds texts one request each, preserving input order.
func (e *ChutesEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// parseChutesVector accepts both response shapes the API is known to emit.
func parseChutesVector(raw []byte) ([]float32, error) {
	var list []float32
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var obj struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Embedding != nil {
		return obj.Embedding, nil
	}
	return nil, fmt.Errorf("chutes response is neither a vector nor an embedding object")
}

// Dimensions returns the configured embedding dimension.
func (e *ChutesEmbedder) Dimensions() int {
	return e.dims
}

// Close releases idle connections.
func (e *ChutesEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

package embedding

import (
	"fmt"
	"strings"

	"github.com/hyperjump/toshokan/internal/config"
)

// NewEmbedder creates the embedding provider selected by cfg.Type.
// Supported types: "deepseek" (default), "chutes", and "mock" for keyless
// development and tests. Both network providers expose the same contract and
// differ only in endpoint, credentials, and dimensionality.
func NewEmbedder(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Type) {
	case "deepseek", "":
		return NewDeepSeekEmbedder(cfg.DeepSeek)
	case "chutes":
		return NewChutesEmbedder(cfg.Chutes)
	case "mock":
		return NewMockEmbedder(cfg.Provider().Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding type: %s (supported: deepseek, chutes, mock)", cfg.Type)
	}
}

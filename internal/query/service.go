// Package query answers similarity searches against whatever snapshot is
// currently published. It never blocks on, or observes, an in-flight
// indexing cycle.
package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/toshokan/internal/embedding"
	"github.com/hyperjump/toshokan/internal/index"
	"github.com/hyperjump/toshokan/internal/models"
)

// Service embeds query text and searches the active snapshot.
type Service struct {
	holder   *index.Holder
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewService builds a query service over the holder and embedder.
func NewService(holder *index.Holder, embedder embedding.Embedder, logger *zap.Logger) *Service {
	return &Service{
		holder:   holder,
		embedder: embedder,
		logger:   logger,
	}
}

// Query returns up to topK chunks ranked by similarity to text. An empty
// active snapshot yields an empty result set without calling the embedding
// provider.
func (s *Service) Query(ctx context.Context, text string, topK int) ([]models.QueryResult, error) {
	snap := s.holder.Active()
	if snap.Size() == 0 {
		return []models.QueryResult{}, nil
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := snap.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]models.QueryResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, models.QueryResult{
			Document: h.Chunk.Text,
			Metadata: models.ChunkMetadata{
				Source:      h.Chunk.SourcePath,
				Repo:        h.Chunk.RepoName,
				ChunkIndex:  h.Chunk.ChunkIndex,
				TotalChunks: h.Chunk.TotalChunks,
			},
			Score: h.Score,
		})
	}

	s.logger.Debug("query answered",
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
		zap.Int("snapshot_size", snap.Size()))
	return results, nil
}

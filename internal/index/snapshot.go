// Package index provides immutable index snapshots and the atomic holder
// that publishes them to the query path.
package index

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/toshokan/internal/models"
	"github.com/hyperjump/toshokan/internal/vector"
)

// Snapshot is one fully built similarity index plus the metadata table that
// maps internal ids back to chunks. A Snapshot is never mutated after Build;
// any update produces a brand-new Snapshot.
type Snapshot struct {
	index   vector.Index
	chunks  []models.Chunk
	builtAt time.Time
}

// NewEmptySnapshot returns a queryable snapshot with no contents. Used as
// the initial published state before the first build completes.
func NewEmptySnapshot() *Snapshot {
	return &Snapshot{builtAt: time.Now()}
}

// Size returns the number of indexed chunks.
func (s *Snapshot) Size() int {
	return len(s.chunks)
}

// BuiltAt returns when the snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Hit is a snapshot search result: the chunk and its similarity score.
type Hit struct {
	Chunk models.Chunk
	Score float64
}

// Search returns up to k nearest chunks for the query vector, best first.
// An empty snapshot returns no hits and no error.
func (s *Snapshot) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if s.Size() == 0 {
		return nil, nil
	}
	results, err := s.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		if r.ID < 0 || r.ID >= len(s.chunks) {
			return nil, fmt.Errorf("index returned unknown id %d", r.ID)
		}
		hits = append(hits, Hit{Chunk: s.chunks[r.ID], Score: r.Score})
	}
	return hits, nil
}

// Builder constructs snapshots from embedded chunks. Every build allocates a
// fresh vector index; there is no incremental path.
type Builder struct {
	indexType string
}

// NewBuilder returns a builder that allocates indexes of indexType
// ("memory" or "hnsw").
func NewBuilder(indexType string) *Builder {
	return &Builder{indexType: indexType}
}

// Build constructs a complete snapshot from embedded. Ids are assigned
// sequentially so the vector index and the metadata table share one id
// space. Zero chunks is legal and yields an empty, queryable snapshot.
func (b *Builder) Build(ctx context.Context, embedded []models.EmbeddedChunk) (*Snapshot, error) {
	if len(embedded) == 0 {
		return NewEmptySnapshot(), nil
	}
	dims := len(embedded[0].Vector)
	idx, err := vector.NewIndex(b.indexType, dims)
	if err != nil {
		return nil, fmt.Errorf("allocate index: %w", err)
	}
	chunks := make([]models.Chunk, len(embedded))
	for i, ec := range embedded {
		if len(ec.Vector) != dims {
			return nil, fmt.Errorf("chunk %d: vector dimension %d differs from build dimension %d", i, len(ec.Vector), dims)
		}
		if err := idx.Add(ctx, i, ec.Vector); err != nil {
			return nil, fmt.Errorf("insert vector %d: %w", i, err)
		}
		chunks[i] = ec.Chunk
	}
	if idx.Size() != len(chunks) {
		return nil, fmt.Errorf("index holds %d vectors for %d chunks", idx.Size(), len(chunks))
	}
	return &Snapshot{index: idx, chunks: chunks, builtAt: time.Now()}, nil
}

package vector

import (
	"context"
	"fmt"

	"github.com/coder/hnsw"
)

// HNSWIndex is an approximate nearest-neighbor index backed by a pure-Go
// HNSW graph. Worth switching to when the corpus grows past what brute
// force handles comfortably.
type HNSWIndex struct {
	dimensions int
	graph      *hnsw.Graph[int]
	size       int
}

var _ Index = (*HNSWIndex)(nil)

// NewHNSWIndex creates an HNSW index with cosine distance.
func NewHNSWIndex(dimensions int) (*HNSWIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	graph := hnsw.NewGraph[int]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25
	return &HNSWIndex{dimensions: dimensions, graph: graph}, nil
}

// Add inserts one vector into the graph.
func (h *HNSWIndex) Add(ctx context.Context, id int, vector []float32) error {
	if len(vector) != h.dimensions {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vector), h.dimensions)
	}
	vec := make([]float32, h.dimensions)
	copy(vec, vector)
	h.graph.Add(hnsw.MakeNode(id, vec))
	h.size++
	return nil
}

// Search returns up to k approximate nearest neighbors, best first.
func (h *HNSWIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if len(query) != h.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), h.dimensions)
	}
	if k <= 0 || h.size == 0 {
		return nil, nil
	}
	nodes := h.graph.Search(query, k)
	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		// Cosine distance is 1 - similarity.
		dist := h.graph.Distance(query, node.Value)
		results = append(results, Result{ID: node.Key, Score: clamp01(1 - float64(dist))})
	}
	return results, nil
}

// Size returns the number of vectors in the index.
func (h *HNSWIndex) Size() int {
	return h.size
}

// Dimensions returns the vector dimension.
func (h *HNSWIndex) Dimensions() int {
	return h.dimensions
}

// Package vector provides similarity-search index implementations.
//
// Indexes here are build-once: a pipeline cycle constructs an index
// single-threaded, after which it is never mutated. Concurrent Search on a
// finished index is safe without locking.
package vector

import "context"

// Index is a nearest-neighbor index over fixed-dimension vectors with
// sequential integer ids.
type Index interface {
	// Add inserts one vector under id. Called only during a build.
	Add(ctx context.Context, id int, vector []float32) error
	// Search returns up to k nearest neighbors by cosine similarity,
	// best first. Scores are clamped to [0,1].
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
	Size() int
	Dimensions() int
}

// Result is a single nearest-neighbor hit.
type Result struct {
	ID    int
	Score float64
}

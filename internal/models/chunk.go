// Package models defines core data structures for chunks, queries, and query results.
package models

// Chunk is a bounded-size slice of a source document with provenance metadata.
// Chunks are immutable once created; ChunkIndex is 0-based within the source
// file and TotalChunks is the same for every chunk of that file.
type Chunk struct {
	Text        string `json:"text"`
	SourcePath  string `json:"source"`
	RepoName    string `json:"repo"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// EmbeddedChunk pairs a Chunk with its embedding vector. All vectors in one
// build come from the same provider and therefore share a dimension.
type EmbeddedChunk struct {
	Chunk  Chunk
	Vector []float32
}

package models

import "fmt"

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k,omitempty"`
}

// Validate checks the request and applies the default top_k.
// Empty text and non-positive top_k are client errors.
func (q *QueryRequest) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if q.TopK == 0 {
		q.TopK = 5
	}
	if q.TopK < 0 {
		return fmt.Errorf("top_k must be positive, got %d", q.TopK)
	}
	return nil
}

// ChunkMetadata is the provenance block returned with each query result.
type ChunkMetadata struct {
	Source      string `json:"source"`
	Repo        string `json:"repo"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// QueryResult is a single similarity hit. Score is cosine-derived; higher is
// more relevant.
type QueryResult struct {
	Document string        `json:"document"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
}

// QueryResponse is the body returned by POST /query. Results is never nil so
// an empty match set serializes as {"results": []}.
type QueryResponse struct {
	Results []QueryResult `json:"results"`
}

package query

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/toshokan/internal/embedding"
	"github.com/hyperjump/toshokan/internal/index"
	"github.com/hyperjump/toshokan/internal/models"
)

func buildSnapshot(t *testing.T, embedder embedding.Embedder, texts []string) *index.Snapshot {
	t.Helper()
	embedded := make([]models.EmbeddedChunk, len(texts))
	for i, text := range texts {
		vec, err := embedder.Embed(context.Background(), text)
		if err != nil {
			t.Fatal(err)
		}
		embedded[i] = models.EmbeddedChunk{
			Chunk: models.Chunk{
				Text:        text,
				SourcePath:  "docs/guide.md",
				RepoName:    "docs",
				ChunkIndex:  i,
				TotalChunks: len(texts),
			},
			Vector: vec,
		}
	}
	snap, err := index.NewBuilder("memory").Build(context.Background(), embedded)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestQueryEmptySnapshot(t *testing.T) {
	holder := index.NewHolder()
	svc := NewService(holder, embedding.NewMockEmbedder(64), zap.NewNop())

	results, err := svc.Query(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if results == nil {
		t.Fatal("results must be non-nil even when empty")
	}
	if len(results) != 0 {
		t.Errorf("got %d results from an empty snapshot, want 0", len(results))
	}
}

func TestQueryRanksExactMatchFirst(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	holder := index.NewHolder()
	holder.Publish(buildSnapshot(t, embedder, []string{
		"configuring the background scheduler",
		"chunking large markdown files",
	}))
	svc := NewService(holder, embedder, zap.NewNop())

	results, err := svc.Query(context.Background(), "configuring the background scheduler", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Document != "configuring the background scheduler" {
		t.Errorf("top result = %q, want the exact match", results[0].Document)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not ranked: %f < %f", results[0].Score, results[1].Score)
	}
	if results[0].Score < 0.99 {
		t.Errorf("identical text scored %f, want ~1", results[0].Score)
	}
	meta := results[0].Metadata
	if meta.Repo != "docs" || meta.Source != "docs/guide.md" || meta.TotalChunks != 2 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestQueryRespectsTopK(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	holder := index.NewHolder()
	holder.Publish(buildSnapshot(t, embedder, []string{"one", "two", "three", "four"}))
	svc := NewService(holder, embedder, zap.NewNop())

	results, err := svc.Query(context.Background(), "two", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

package chunker

import (
	"strings"
	"testing"
)

func TestChunker_WindowAndOverlap(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	c := New(100, 20)
	chunks := c.Chunk("docs/a.md", "protocol", text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if n := len([]rune(ch.Text)); n > 100 {
			t.Errorf("chunk %d: %d chars, want <= 100", i, n)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d: ChunkIndex=%d", i, ch.ChunkIndex)
		}
		if ch.TotalChunks != len(chunks) {
			t.Errorf("chunk %d: TotalChunks=%d, want %d", i, ch.TotalChunks, len(chunks))
		}
		if ch.SourcePath != "docs/a.md" || ch.RepoName != "protocol" {
			t.Errorf("chunk %d: provenance %s/%s", i, ch.RepoName, ch.SourcePath)
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		tail := string(prev[len(prev)-20:])
		if !strings.HasPrefix(string(cur), tail) {
			t.Errorf("chunks %d/%d do not share 20 chars of overlap", i-1, i)
		}
	}
}

func TestChunker_PrefersParagraphBoundary(t *testing.T) {
	text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
	c := New(100, 10)
	chunks := c.Chunk("f", "r", text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "\n") {
		t.Errorf("first chunk should end at the paragraph break, got %q tail", chunks[0].Text[len(chunks[0].Text)-5:])
	}
}

func TestChunker_EmptyText(t *testing.T) {
	c := New(100, 10)
	if got := c.Chunk("f", "r", "   \n\t  "); got != nil {
		t.Errorf("whitespace-only text should yield nil, got %d chunks", len(got))
	}
	if got := c.Chunk("f", "r", ""); got != nil {
		t.Errorf("empty text should yield nil, got %d chunks", len(got))
	}
}

func TestChunker_ShortTextSingleChunk(t *testing.T) {
	c := New(1000, 200)
	chunks := c.Chunk("f", "r", "just a short note")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].TotalChunks != 1 || chunks[0].ChunkIndex != 0 {
		t.Errorf("index/total: %d/%d", chunks[0].ChunkIndex, chunks[0].TotalChunks)
	}
}

func TestChunker_HardCutWithoutBoundary(t *testing.T) {
	text := strings.Repeat("x", 250)
	c := New(100, 0)
	chunks := c.Chunk("f", "r", text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Text) != 100 || len(chunks[2].Text) != 50 {
		t.Errorf("chunk sizes: %d, %d, %d", len(chunks[0].Text), len(chunks[1].Text), len(chunks[2].Text))
	}
}

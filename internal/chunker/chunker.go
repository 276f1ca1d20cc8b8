// Package chunker splits document text into bounded, overlapping segments.
package chunker

import (
	"strings"
	"unicode"

	"github.com/hyperjump/toshokan/internal/models"
)

// Chunker splits text into overlapping character-window chunks, preferring
// paragraph and line boundaries over mid-token cuts.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker with the given window size and overlap (in characters).
// Overlap is clamped below size so every step makes progress.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk splits text into ordered Chunks tagged with provenance. Empty or
// whitespace-only text yields nil. Every returned chunk carries the same
// TotalChunks and a 0-based ChunkIndex.
func (c *Chunker) Chunk(sourcePath, repoName, text string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	segments := c.split([]rune(text))
	if len(segments) == 0 {
		return nil
	}
	chunks := make([]models.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = models.Chunk{
			Text:        seg,
			SourcePath:  sourcePath,
			RepoName:    repoName,
			ChunkIndex:  i,
			TotalChunks: len(segments),
		}
	}
	return chunks
}

func (c *Chunker) split(runes []rune) []string {
	var segments []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snap(runes, start, end)
		}
		seg := string(runes[start:end])
		if strings.TrimSpace(seg) != "" {
			segments = append(segments, seg)
		}
		if end >= len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return segments
}

// snap moves the cut point back to the nearest natural boundary inside the
// back half of the window: paragraph break, then line break, then any
// whitespace. Falls back to the hard cut at end when none exists.
func snap(runes []rune, start, end int) int {
	floor := start + (end-start)/2
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

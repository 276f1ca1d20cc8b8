package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/toshokan/internal/config"
	"github.com/hyperjump/toshokan/internal/embedding"
	"github.com/hyperjump/toshokan/internal/index"
	"github.com/hyperjump/toshokan/internal/models"
	"github.com/hyperjump/toshokan/internal/pipeline"
	"github.com/hyperjump/toshokan/internal/query"
)

func newTestServer(t *testing.T, texts []string) *Server {
	t.Helper()
	logger := zap.NewNop()
	embedder := embedding.NewMockEmbedder(64)
	holder := index.NewHolder()

	if len(texts) > 0 {
		embedded := make([]models.EmbeddedChunk, len(texts))
		for i, text := range texts {
			vec, err := embedder.Embed(context.Background(), text)
			if err != nil {
				t.Fatal(err)
			}
			embedded[i] = models.EmbeddedChunk{
				Chunk: models.Chunk{
					Text:        text,
					SourcePath:  "docs/readme.md",
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
		holder.Publish(snap)
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	pipe := pipeline.New(nil, nil, nil, embedder, index.NewBuilder("memory"), holder, cfg.Embedding, logger)
	svc := query.NewService(holder, embedder, logger)
	return NewServer(svc, holder, pipe, cfg, logger)
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleQueryInvalidBody(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodPost, "/query", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleQueryEmptyText(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodPost, "/query", `{"text": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleQueryEmptyIndex(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodPost, "/query", `{"text": "anything", "top_k": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"results":[]}` {
		t.Errorf("body = %s, want empty results array", got)
	}
}

func TestHandleQueryReturnsRankedResults(t *testing.T) {
	s := newTestServer(t, []string{
		"installing the service",
		"writing configuration files",
	})
	rec := doRequest(s, http.MethodPost, "/query", `{"text": "installing the service", "top_k": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp models.QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].Document != "installing the service" {
		t.Errorf("top result = %q, want the exact match", resp.Results[0].Document)
	}
	if resp.Results[0].Metadata.Repo != "docs" {
		t.Errorf("metadata repo = %q, want docs", resp.Results[0].Metadata.Repo)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t, []string{"one chunk"})
	rec := doRequest(s, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if got := resp["indexed_chunks"].(float64); got != 1 {
		t.Errorf("indexed_chunks = %v, want 1", got)
	}
	if got := resp["pipeline_state"]; got != "idle" {
		t.Errorf("pipeline_state = %v, want idle", got)
	}
	if _, ok := resp["config"]; !ok {
		t.Error("status response missing config block")
	}
}

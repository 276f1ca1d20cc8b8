// Package pipeline rebuilds the searchable index in the background: sync
// repositories, chunk their files, embed the chunks, build an immutable
// snapshot, and publish it atomically. Queries keep hitting the previous
// snapshot until the very last step.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/toshokan/internal/chunker"
	"github.com/hyperjump/toshokan/internal/config"
	"github.com/hyperjump/toshokan/internal/embedding"
	"github.com/hyperjump/toshokan/internal/gitsync"
	"github.com/hyperjump/toshokan/internal/index"
	"github.com/hyperjump/toshokan/internal/models"
)

// ErrCycleInProgress is returned by Run when another cycle holds the guard.
var ErrCycleInProgress = errors.New("indexing cycle already in progress")

// FileSource lists indexable files after refreshing the working copies.
// *gitsync.Synchronizer is the production implementation.
type FileSource interface {
	Sync(ctx context.Context, descs []gitsync.Descriptor) ([]gitsync.File, int)
}

// CycleStats records the outcome of the most recent indexing cycle.
type CycleStats struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ms"`
	ReposSynced int           `json:"repos_synced"`
	Files       int           `json:"files"`
	Chunks      int           `json:"chunks"`
	Dropped     int           `json:"dropped"`
	Published   bool          `json:"published"`
	Error       string        `json:"error,omitempty"`
}

// Pipeline runs full-rebuild indexing cycles and publishes the result.
// At most one cycle runs at a time; Run refuses overlap.
type Pipeline struct {
	descs    []gitsync.Descriptor
	source   FileSource
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	builder  *index.Builder
	holder   *index.Holder
	embCfg   config.EmbeddingConfig
	retry    embedding.RetryConfig
	logger   *zap.Logger

	running atomic.Bool

	mu    sync.Mutex
	state State
	last  CycleStats
}

// Option adjusts pipeline behavior at construction time.
type Option func(*Pipeline)

// WithRetryConfig overrides the backoff schedule for provider calls.
func WithRetryConfig(cfg embedding.RetryConfig) Option {
	return func(p *Pipeline) { p.retry = cfg }
}

// New wires a pipeline over its collaborators. The holder keeps serving its
// current snapshot while cycles run.
func New(
	descs []gitsync.Descriptor,
	source FileSource,
	ch *chunker.Chunker,
	embedder embedding.Embedder,
	builder *index.Builder,
	holder *index.Holder,
	embCfg config.EmbeddingConfig,
	logger *zap.Logger,
	opts ...Option,
) *Pipeline {
	retry := embedding.DefaultRetryConfig()
	retry.MaxRetries = embCfg.MaxRetries
	p := &Pipeline{
		descs:    descs,
		source:   source,
		chunker:  ch,
		embedder: embedder,
		builder:  builder,
		holder:   holder,
		embCfg:   embCfg,
		retry:    retry,
		logger:   logger,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports where the pipeline currently is.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastCycle returns the most recently finished cycle's stats. The zero value
// means no cycle has completed yet.
func (p *Pipeline) LastCycle() CycleStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run executes one full indexing cycle. It returns ErrCycleInProgress when a
// previous cycle is still running. Any other error means the cycle aborted
// and the previously published snapshot stayed active.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrCycleInProgress
	}
	defer p.running.Store(false)

	stats := CycleStats{
		ID:        uuid.NewString()[:8],
		StartedAt: time.Now(),
	}
	log := p.logger.With(zap.String("cycle", stats.ID))
	log.Info("indexing cycle started", zap.Int("repositories", len(p.descs)))

	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
		p.mu.Lock()
		p.last = stats
		p.state = StateIdle
		p.mu.Unlock()
	}()

	abort := func(err error) error {
		p.setState(StateAborted)
		stats.Error = err.Error()
		log.Warn("indexing cycle aborted", zap.Error(err))
		return err
	}

	p.setState(StateSyncing)
	files, synced := p.source.Sync(ctx, p.descs)
	stats.ReposSynced = synced
	stats.Files = len(files)
	if len(p.descs) > 0 && synced == 0 {
		return abort(errors.New("no repositories could be synced"))
	}

	p.setState(StateChunking)
	chunks := p.chunkFiles(log, files)
	stats.Chunks = len(chunks)

	p.setState(StateEmbedding)
	embedded, dropped, err := p.embedChunks(ctx, log, chunks)
	stats.Dropped = dropped
	if err != nil {
		return abort(err)
	}

	p.setState(StateBuilding)
	snap, err := p.builder.Build(ctx, embedded)
	if err != nil {
		return abort(fmt.Errorf("building index: %w", err))
	}

	p.setState(StatePublishing)
	p.holder.Publish(snap)
	stats.Published = true

	log.Info("indexing cycle complete",
		zap.Int("repos_synced", synced),
		zap.Int("files", len(files)),
		zap.Int("chunks", len(chunks)),
		zap.Int("dropped", dropped),
		zap.Duration("took", time.Since(stats.StartedAt)))
	return nil
}

// chunkFiles reads and chunks every eligible file. Unreadable or non-UTF-8
// files are skipped; one bad file never fails the cycle.
func (p *Pipeline) chunkFiles(log *zap.Logger, files []gitsync.File) []models.Chunk {
	var chunks []models.Chunk
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			log.Warn("skipping unreadable file", zap.String("path", f.Path), zap.Error(err))
			continue
		}
		if !utf8.Valid(data) {
			log.Debug("skipping non-utf8 file", zap.String("path", f.Path))
			continue
		}
		chunks = append(chunks, p.chunker.Chunk(f.Path, f.RepoName, string(data))...)
	}
	return chunks
}

// embedChunks embeds chunks in batches. A batch that still fails after
// retries is dropped; the cycle aborts only when the dropped fraction
// exceeds the configured failure threshold or the context ends.
func (p *Pipeline) embedChunks(ctx context.Context, log *zap.Logger, chunks []models.Chunk) ([]models.EmbeddedChunk, int, error) {
	if len(chunks) == 0 {
		return nil, 0, nil
	}

	batchSize := p.embCfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	embedded := make([]models.EmbeddedChunk, 0, len(chunks))
	dropped := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		var vectors [][]float32
		err := embedding.WithRetry(ctx, p.retry, func() error {
			var embedErr error
			vectors, embedErr = p.embedder.EmbedBatch(ctx, texts)
			return embedErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, dropped, ctx.Err()
			}
			dropped += len(batch)
			log.Warn("dropping batch after retries",
				zap.Int("batch_start", start),
				zap.Int("batch_len", len(batch)),
				zap.Error(err))
			continue
		}

		for i, c := range batch {
			embedded = append(embedded, models.EmbeddedChunk{Chunk: c, Vector: vectors[i]})
		}
	}

	if rate := float64(dropped) / float64(len(chunks)); rate > p.embCfg.FailureThreshold {
		return nil, dropped, fmt.Errorf("embedding failure rate %.2f exceeds threshold %.2f (%d of %d chunks dropped)",
			rate, p.embCfg.FailureThreshold, dropped, len(chunks))
	}
	return embedded, dropped, nil
}

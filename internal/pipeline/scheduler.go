package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Runner is what the scheduler drives. *Pipeline is the production
// implementation.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler triggers indexing cycles: once immediately on Start, then at a
// fixed interval. A tick that fires while a cycle is still running is
// skipped, never queued.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

// NewScheduler builds a scheduler firing every interval.
func NewScheduler(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the scheduling loop in a goroutine. The loop stops when ctx
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Done is closed once the scheduling loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	s.trigger(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	switch err := s.runner.Run(ctx); {
	case err == nil:
	case errors.Is(err, ErrCycleInProgress):
		s.logger.Info("previous cycle still running, skipping tick")
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Warn("indexing cycle failed", zap.Error(err))
	}
}

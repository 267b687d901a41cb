package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// ErrAlreadyRunning signals that a trigger arrived while a run was
// active; the caller gets it immediately, no second run starts.
var ErrAlreadyRunning = errors.New("a pipeline run is already in progress")

// IngestRunner is the first phase of a run.
type IngestRunner interface {
	Run(ctx context.Context) ([]domain.Article, error)
}

// PostRunner is the second phase of a run.
type PostRunner interface {
	RunScheduledPosting(ctx context.Context) error
}

// Coordinator serializes runs: ingestion then scheduled posting, as two
// independently failing phases behind a single process-wide guard. The
// guard is in-memory only; a crash mid-run clears it, which is safe
// because the dedupe key and the posted latch make re-runs idempotent.
type Coordinator struct {
	pipeline IngestRunner
	poster   PostRunner
	audit    ports.AuditLogger
	logger   *slog.Logger
	running  atomic.Bool
}

// NewCoordinator constructs the run coordinator.
func NewCoordinator(pipeline IngestRunner, poster PostRunner, auditLog ports.AuditLogger, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		pipeline: pipeline,
		poster:   poster,
		audit:    auditLog,
		logger:   logger,
	}
}

// Trigger starts a run in the background and returns immediately.
// Fire-and-forget: the outcome is observable through system logs and
// stored articles only. The background run gets a fresh context so it
// outlives the triggering request.
func (c *Coordinator) Trigger() error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	go func() {
		defer c.running.Store(false)
		c.runPhases(context.Background())
	}()

	return nil
}

// RunNow executes a run synchronously under the same guard; used by the
// interval scheduler and operator tooling.
func (c *Coordinator) RunNow(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	c.runPhases(ctx)
	return nil
}

// Running reports whether a run is active.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// runPhases executes ingestion then posting. Posting runs even when
// ingestion failed, and neither phase's failure escapes the coordinator.
func (c *Coordinator) runPhases(ctx context.Context) {
	created, err := c.pipeline.Run(ctx)
	if err != nil {
		c.audit.Error(ctx, "Pipeline run failed", map[string]any{"error": err.Error()})
	} else {
		c.debug("ingestion phase finished", "created", len(created))
	}

	if err := c.poster.RunScheduledPosting(ctx); err != nil {
		c.audit.Error(ctx, "Scheduled posting failed", map[string]any{"error": err.Error()})
	}
}

func (c *Coordinator) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

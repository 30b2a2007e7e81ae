package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zengarden/zengarden-api/internal/observability"
	"github.com/zengarden/zengarden-api/internal/platform/rediscache"
	"github.com/zengarden/zengarden-api/internal/store"
)

// Dispatcher drives the single worker loop: every poll interval it
// claims at most one pending task and runs the pipeline on it. The
// claim itself is the cross-process mutual exclusion; the busy flag is
// a process-local guard so a tick that fires while a slow pipeline run
// is still in flight returns immediately instead of overlapping it.
type Dispatcher struct {
	logger  *slog.Logger
	tasks   store.TaskStore
	runner  *PipelineRunner
	retry   *RetryPolicy
	cache   *rediscache.TaskCache
	metrics *observability.Metrics

	pollInterval time.Duration

	busy atomic.Bool
	done chan struct{}
	wg   sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(logger *slog.Logger, tasks store.TaskStore, runner *PipelineRunner, retry *RetryPolicy, cache *rediscache.TaskCache, metrics *observability.Metrics, pollInterval time.Duration) (*Dispatcher, error) {
	switch {
	case logger == nil:
		return nil, errors.New("logger cannot be nil")
	case tasks == nil:
		return nil, errors.New("task store cannot be nil")
	case runner == nil:
		return nil, errors.New("pipeline runner cannot be nil")
	case retry == nil:
		return nil, errors.New("retry policy cannot be nil")
	case metrics == nil:
		return nil, errors.New("metrics cannot be nil")
	}

	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &Dispatcher{
		logger:       logger.With(slog.String("component", "dispatcher")),
		tasks:        tasks,
		runner:       runner,
		retry:        retry,
		cache:        cache,
		metrics:      metrics,
		pollInterval: pollInterval,
		done:         make(chan struct{}),
	}, nil
}

// Start recovers tasks stranded mid-pipeline by a previous crash, then
// begins the polling loop in a background goroutine.
func (d *Dispatcher) Start(ctx context.Context) error {
	reset, err := d.tasks.ResetInFlight(ctx)
	if err != nil {
		return fmt.Errorf("resetting in-flight tasks: %w", err)
	}
	if reset > 0 {
		d.logger.Warn("Requeued tasks stranded by a previous shutdown",
			slog.Int64("count", reset))
	}

	d.wg.Add(1)
	go d.loop(ctx)

	d.logger.Info("Dispatcher started",
		slog.Duration("poll_interval", d.pollInterval))
	return nil
}

// Stop halts the polling loop and waits for an in-flight tick to end.
func (d *Dispatcher) Stop() {
	close(d.done)
	d.wg.Wait()
	d.logger.Info("Dispatcher stopped")
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// tick claims at most one pending task and runs the pipeline on it.
// It never returns an error: a failed run goes through the retry
// policy, and any other problem is logged so the loop always survives
// to the next tick.
func (d *Dispatcher) tick(ctx context.Context) {
	if !d.busy.CompareAndSwap(false, true) {
		return
	}
	defer d.busy.Store(false)

	claimed, err := d.tasks.ClaimNext(ctx)
	if errors.Is(err, store.ErrNoPendingTask) {
		return
	}
	if err != nil {
		d.logger.Error("Failed to claim next task", slog.String("error", err.Error()))
		return
	}

	d.metrics.TasksClaimedTotal.Inc()
	d.cache.Invalidate(ctx, claimed.ID.String())
	d.logger.Info("Claimed task",
		slog.String("task_id", claimed.ID.String()),
		slog.Int("retry_count", claimed.RetryCount))

	if runErr := d.runner.Run(ctx, claimed); runErr != nil {
		if err := d.retry.HandleFailure(ctx, claimed, runErr); err != nil {
			d.logger.Error("Failed to record task failure",
				slog.String("task_id", claimed.ID.String()),
				slog.String("error", err.Error()))
		}
	}
}

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/observability"
	"github.com/zengarden/zengarden-api/internal/platform/rediscache"
	"github.com/zengarden/zengarden-api/internal/store"
)

// RetryPolicy decides the fate of a task whose pipeline run failed. It
// is a pure function of the stored counters: a run that fails with
// retryCount+1 < maxRetries goes back to pending, otherwise the task is
// terminally failed. No in-memory retry state survives between runs, so
// the policy stays correct across process restarts.
type RetryPolicy struct {
	logger  *slog.Logger
	tasks   store.TaskStore
	cache   *rediscache.TaskCache
	metrics *observability.Metrics
}

// NewRetryPolicy creates a RetryPolicy.
func NewRetryPolicy(logger *slog.Logger, tasks store.TaskStore, cache *rediscache.TaskCache, metrics *observability.Metrics) (*RetryPolicy, error) {
	switch {
	case logger == nil:
		return nil, errors.New("logger cannot be nil")
	case tasks == nil:
		return nil, errors.New("task store cannot be nil")
	case metrics == nil:
		return nil, errors.New("metrics cannot be nil")
	}

	return &RetryPolicy{
		logger:  logger.With(slog.String("component", "retry_policy")),
		tasks:   tasks,
		cache:   cache,
		metrics: metrics,
	}, nil
}

// HandleFailure records the failed run: the task either returns to
// pending with its retry count incremented, or becomes terminally
// failed once the budget is spent. The cause's message is stored either
// way so callers can see what went wrong.
func (p *RetryPolicy) HandleFailure(ctx context.Context, t *domain.FlowerTask, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	newCount := t.RetryCount + 1
	log := p.logger.With(
		slog.String("task_id", t.ID.String()),
		slog.Int("retry_count", newCount),
		slog.Int("max_retries", t.MaxRetries))

	if newCount < t.MaxRetries {
		if err := p.tasks.MarkRetry(ctx, t.ID, newCount, msg); err != nil {
			return fmt.Errorf("requeueing task %s: %w", t.ID, err)
		}
		p.cache.Invalidate(ctx, t.ID.String())
		p.metrics.TasksRetriedTotal.Inc()
		log.Warn("Pipeline run failed, task requeued", slog.String("error", msg))
		return nil
	}

	if err := p.tasks.MarkFailed(ctx, t.ID, newCount, msg); err != nil {
		return fmt.Errorf("failing task %s: %w", t.ID, err)
	}
	p.cache.Invalidate(ctx, t.ID.String())
	p.metrics.TasksFailedTotal.Inc()
	log.Error("Pipeline run failed, retries exhausted", slog.String("error", msg))
	return nil
}

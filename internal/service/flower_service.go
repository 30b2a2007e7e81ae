package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/observability"
	"github.com/zengarden/zengarden-api/internal/platform/rediscache"
	"github.com/zengarden/zengarden-api/internal/store"
)

// GenerationResult pairs the flower with the task tracking its growth.
type GenerationResult struct {
	Flower *domain.Flower    `json:"flower"`
	Task   *domain.FlowerTask `json:"task"`
}

// TaskStatusView is what the polling endpoint returns, and also the
// payload cached in Redis between status writes.
type TaskStatusView struct {
	Task   domain.FlowerTask `json:"task"`
	UserID uuid.UUID         `json:"user_id"`
}

// FlowerService provides flower generation and task tracking
// operations.
type FlowerService interface {
	// GenerateFlower creates a flower and its pending task for a
	// completed session. Idempotent per session: a repeat request
	// returns the existing flower and task.
	GenerateFlower(ctx context.Context, userID, sessionID uuid.UUID) (*GenerationResult, error)

	// GetTask returns the task's current state. Returns
	// ErrTaskNotFound if the task does not exist or belongs to another
	// user.
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.FlowerTask, error)

	// RetryTask requeues a terminally failed task with a fresh retry
	// budget. Returns ErrTaskNotRetryable for tasks in any other state.
	RetryTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.FlowerTask, error)

	// ListFlowers returns the user's flowers newest first, joined with
	// session inputs and task state.
	ListFlowers(ctx context.Context, userID uuid.UUID) ([]*store.FlowerDetail, error)
}

type flowerService struct {
	logger   *slog.Logger
	db       *sql.DB
	tasks    store.TaskStore
	flowers  store.FlowerStore
	sessions store.SessionStore
	cache    *rediscache.TaskCache
	metrics  *observability.Metrics

	// runTx wraps store.RunInTransaction so tests without a database
	// can run the transactional path.
	runTx func(ctx context.Context, fn store.TxFn) error
}

// NewFlowerService creates a FlowerService. The cache may be nil; task
// status lookups then always hit the database.
func NewFlowerService(logger *slog.Logger, db *sql.DB, tasks store.TaskStore, flowers store.FlowerStore, sessions store.SessionStore, cache *rediscache.TaskCache, metrics *observability.Metrics) (FlowerService, error) {
	switch {
	case logger == nil:
		return nil, errors.New("logger cannot be nil")
	case db == nil:
		return nil, errors.New("db cannot be nil")
	case tasks == nil:
		return nil, errors.New("task store cannot be nil")
	case flowers == nil:
		return nil, errors.New("flower store cannot be nil")
	case sessions == nil:
		return nil, errors.New("session store cannot be nil")
	case metrics == nil:
		return nil, errors.New("metrics cannot be nil")
	}

	s := &flowerService{
		logger:   logger.With(slog.String("component", "flower_service")),
		db:       db,
		tasks:    tasks,
		flowers:  flowers,
		sessions: sessions,
		cache:    cache,
		metrics:  metrics,
	}
	s.runTx = func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, s.db, fn)
	}
	return s, nil
}

func (s *flowerService) GenerateFlower(ctx context.Context, userID, sessionID uuid.UUID) (*GenerationResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if session.Status != domain.SessionStatusCompleted {
		return nil, ErrSessionNotCompleted
	}

	// Idempotency: a session grows at most one flower.
	if existing, err := s.flowers.GetBySessionID(ctx, sessionID); err == nil {
		return s.resultFor(ctx, existing)
	} else if !store.IsNotFound(err) {
		return nil, fmt.Errorf("checking for existing flower: %w", err)
	}

	flower, err := domain.NewFlower(userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("creating flower: %w", err)
	}
	task, err := domain.NewFlowerTask(flower.ID)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.flowers.WithTx(tx).Create(ctx, flower); err != nil {
			return err
		}
		return s.tasks.WithTx(tx).Create(ctx, task)
	})
	if errors.Is(err, store.ErrFlowerExists) {
		// Lost a race with a concurrent request for the same session;
		// the winner's flower is the one we return.
		existing, getErr := s.flowers.GetBySessionID(ctx, sessionID)
		if getErr != nil {
			return nil, fmt.Errorf("loading flower after create race: %w", getErr)
		}
		return s.resultFor(ctx, existing)
	}
	if err != nil {
		return nil, fmt.Errorf("persisting flower and task: %w", err)
	}

	s.logger.InfoContext(ctx, "Flower generation requested",
		slog.String("session_id", sessionID.String()),
		slog.String("flower_id", flower.ID.String()),
		slog.String("task_id", task.ID.String()))

	return &GenerationResult{Flower: flower, Task: task}, nil
}

// resultFor loads the task owning the given flower and pairs them.
func (s *flowerService) resultFor(ctx context.Context, flower *domain.Flower) (*GenerationResult, error) {
	task, err := s.tasks.GetByFlowerID(ctx, flower.ID)
	if err != nil {
		return nil, fmt.Errorf("loading task for flower %s: %w", flower.ID, err)
	}
	return &GenerationResult{Flower: flower, Task: task}, nil
}

func (s *flowerService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.FlowerTask, error) {
	var cached TaskStatusView
	if err := s.cache.Get(ctx, taskID.String(), &cached); err == nil {
		s.metrics.CacheHitsTotal.Inc()
		if cached.UserID != userID {
			return nil, ErrTaskNotFound
		}
		return &cached.Task, nil
	}
	s.metrics.CacheMissesTotal.Inc()

	task, flower, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, taskID.String(), TaskStatusView{Task: *task, UserID: flower.UserID})
	return task, nil
}

func (s *flowerService) RetryTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.FlowerTask, error) {
	task, _, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status != domain.TaskStatusFailed {
		return nil, ErrTaskNotRetryable
	}

	if err := s.tasks.ResetForRetry(ctx, taskID); err != nil {
		return nil, fmt.Errorf("resetting task %s: %w", taskID, err)
	}
	s.cache.Invalidate(ctx, taskID.String())

	s.logger.InfoContext(ctx, "Failed task requeued by user request",
		slog.String("task_id", taskID.String()))

	task.Status = domain.TaskStatusPending
	task.RetryCount = 0
	task.Error = ""
	return task, nil
}

func (s *flowerService) ListFlowers(ctx context.Context, userID uuid.UUID) ([]*store.FlowerDetail, error) {
	details, err := s.flowers.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing flowers for user %s: %w", userID, err)
	}
	return details, nil
}

// ownedTask loads a task and verifies it belongs to the user. A task
// owned by someone else is reported as not found rather than forbidden
// so task ids are not probeable.
func (s *flowerService) ownedTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.FlowerTask, *domain.Flower, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("loading task %s: %w", taskID, err)
	}

	flower, err := s.flowers.GetByID(ctx, task.FlowerID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading flower %s: %w", task.FlowerID, err)
	}
	if flower.UserID != userID {
		return nil, nil, ErrTaskNotFound
	}

	return task, flower, nil
}

package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/observability"
	"github.com/zengarden/zengarden-api/internal/store"
)

type flowerServiceFixture struct {
	tasks    *fakeTaskStore
	flowers  *fakeFlowerStore
	sessions *fakeSessionStore

	svc *flowerService

	userID  uuid.UUID
	session *domain.FocusSession
}

func newFlowerServiceFixture(t *testing.T) *flowerServiceFixture {
	t.Helper()

	f := &flowerServiceFixture{
		tasks:    newFakeTaskStore(),
		flowers:  newFakeFlowerStore(),
		sessions: newFakeSessionStore(),
		userID:   uuid.New(),
	}

	session, err := domain.NewFocusSession(f.userID, "read a chapter", 1500)
	require.NoError(t, err)
	require.NoError(t, session.Complete())
	f.session = session
	f.sessions.put(session)

	svc, err := NewFlowerService(slog.Default(), &sql.DB{}, f.tasks, f.flowers, f.sessions, nil,
		observability.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)

	impl := svc.(*flowerService)
	// No real database behind the fakes.
	impl.runTx = func(ctx context.Context, fn store.TxFn) error {
		return fn(ctx, nil)
	}
	f.svc = impl

	return f
}

func TestFlowerService_GenerateFlower(t *testing.T) {
	t.Parallel()

	t.Run("creates flower and pending task", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		result, err := f.svc.GenerateFlower(context.Background(), f.userID, f.session.ID)
		require.NoError(t, err)

		assert.Equal(t, f.userID, result.Flower.UserID)
		assert.Equal(t, f.session.ID, result.Flower.SessionID)
		assert.Equal(t, domain.TaskStatusPending, result.Task.Status)
		assert.Equal(t, result.Flower.ID, result.Task.FlowerID)
		assert.Equal(t, domain.DefaultMaxRetries, result.Task.MaxRetries)
	})

	t.Run("is idempotent per session", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		first, err := f.svc.GenerateFlower(context.Background(), f.userID, f.session.ID)
		require.NoError(t, err)

		second, err := f.svc.GenerateFlower(context.Background(), f.userID, f.session.ID)
		require.NoError(t, err)

		assert.Equal(t, first.Flower.ID, second.Flower.ID)
		assert.Equal(t, first.Task.ID, second.Task.ID)
	})

	t.Run("rejects sessions that are not completed", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		inProgress, err := domain.NewFocusSession(f.userID, "still focusing", 600)
		require.NoError(t, err)
		f.sessions.put(inProgress)

		_, err = f.svc.GenerateFlower(context.Background(), f.userID, inProgress.ID)
		assert.ErrorIs(t, err, ErrSessionNotCompleted)
	})

	t.Run("rejects other users' sessions", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		_, err := f.svc.GenerateFlower(context.Background(), uuid.New(), f.session.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		_, err := f.svc.GenerateFlower(context.Background(), f.userID, uuid.New())
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("create race falls back to the winner's flower", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)

		// The store reports a duplicate; a flower for the session
		// appears as if a concurrent request had just committed it.
		winner, err := domain.NewFlower(f.userID, f.session.ID)
		require.NoError(t, err)
		winnerTask, err := domain.NewFlowerTask(winner.ID)
		require.NoError(t, err)
		f.flowers.createErr = store.ErrFlowerExists
		f.flowers.put(winner)
		f.tasks.put(winnerTask)

		result, err := f.svc.GenerateFlower(context.Background(), f.userID, f.session.ID)
		require.NoError(t, err)
		assert.Equal(t, winner.ID, result.Flower.ID)
		assert.Equal(t, winnerTask.ID, result.Task.ID)
	})
}

func TestFlowerService_GetTask(t *testing.T) {
	t.Parallel()

	t.Run("returns the task for its owner", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		result, err := f.svc.GenerateFlower(context.Background(), f.userID, f.session.ID)
		require.NoError(t, err)

		task, err := f.svc.GetTask(context.Background(), f.userID, result.Task.ID)
		require.NoError(t, err)
		assert.Equal(t, result.Task.ID, task.ID)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
	})

	t.Run("hides other users' tasks", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		result, err := f.svc.GenerateFlower(context.Background(), f.userID, f.session.ID)
		require.NoError(t, err)

		_, err = f.svc.GetTask(context.Background(), uuid.New(), result.Task.ID)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("unknown task", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		_, err := f.svc.GetTask(context.Background(), f.userID, uuid.New())
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestFlowerService_RetryTask(t *testing.T) {
	t.Parallel()

	newFailedTask := func(t *testing.T, f *flowerServiceFixture) uuid.UUID {
		t.Helper()
		result, err := f.svc.GenerateFlower(context.Background(), f.userID, f.session.ID)
		require.NoError(t, err)
		require.NoError(t, f.tasks.MarkFailed(context.Background(), result.Task.ID, 3, "bucket unavailable"))
		return result.Task.ID
	}

	t.Run("requeues a failed task with a fresh budget", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		taskID := newFailedTask(t, f)

		task, err := f.svc.RetryTask(context.Background(), f.userID, taskID)
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Zero(t, task.RetryCount)
		assert.Empty(t, task.Error)

		stored := f.tasks.get(taskID)
		assert.Equal(t, domain.TaskStatusPending, stored.Status)
		assert.Zero(t, stored.RetryCount)
	})

	t.Run("rejects tasks that are not failed", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		result, err := f.svc.GenerateFlower(context.Background(), f.userID, f.session.ID)
		require.NoError(t, err)

		for _, status := range []domain.TaskStatus{
			domain.TaskStatusPending,
			domain.TaskStatusGenerating,
			domain.TaskStatusUploading,
			domain.TaskStatusMinting,
			domain.TaskStatusCompleted,
		} {
			require.NoError(t, f.tasks.SetStatus(context.Background(), result.Task.ID, status))
			_, err := f.svc.RetryTask(context.Background(), f.userID, result.Task.ID)
			assert.ErrorIs(t, err, ErrTaskNotRetryable, "status %s", status)
		}
		assert.Zero(t, f.tasks.resets)
	})

	t.Run("hides other users' tasks", func(t *testing.T) {
		t.Parallel()

		f := newFlowerServiceFixture(t)
		taskID := newFailedTask(t, f)

		_, err := f.svc.RetryTask(context.Background(), uuid.New(), taskID)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestFlowerService_ListFlowers(t *testing.T) {
	t.Parallel()

	f := newFlowerServiceFixture(t)
	_, err := f.svc.GenerateFlower(context.Background(), f.userID, f.session.ID)
	require.NoError(t, err)

	details, err := f.svc.ListFlowers(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, details, 1)

	other, err := f.svc.ListFlowers(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFocusService(t *testing.T) {
	t.Parallel()

	newFixture := func(t *testing.T) (FocusService, *fakeSessionStore, *fakeUserStore, uuid.UUID) {
		t.Helper()
		sessions := newFakeSessionStore()
		users := newFakeUserStore()
		userID := uuid.New()
		users.put(&domain.User{ID: userID, CreatedAt: time.Now().UTC()})

		svc, err := NewFocusService(slog.Default(), sessions, users)
		require.NoError(t, err)
		return svc, sessions, users, userID
	}

	t.Run("start and complete roll minutes into totals", func(t *testing.T) {
		t.Parallel()

		svc, sessions, users, userID := newFixture(t)

		session, err := svc.StartSession(context.Background(), userID, "morning pages", 1800)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusInProgress, session.Status)

		completed, err := svc.CompleteSession(context.Background(), userID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusCompleted, completed.Status)
		assert.NotNil(t, completed.CompletedAt)

		assert.Equal(t, domain.SessionStatusCompleted, sessions.get(session.ID).Status)
		user := users.get(userID)
		assert.Equal(t, 30, user.TotalFocusMinutes)
		assert.NotNil(t, user.LastFocusDate)
	})

	t.Run("interrupt marks the session and adds no minutes", func(t *testing.T) {
		t.Parallel()

		svc, _, users, userID := newFixture(t)

		session, err := svc.StartSession(context.Background(), userID, "deep work", 1500)
		require.NoError(t, err)

		interrupted, err := svc.InterruptSession(context.Background(), userID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusInterrupted, interrupted.Status)
		assert.True(t, interrupted.Interrupted)
		assert.Zero(t, users.get(userID).TotalFocusMinutes)
	})

	t.Run("completing twice fails", func(t *testing.T) {
		t.Parallel()

		svc, _, _, userID := newFixture(t)

		session, err := svc.StartSession(context.Background(), userID, "stretching", 600)
		require.NoError(t, err)

		_, err = svc.CompleteSession(context.Background(), userID, session.ID)
		require.NoError(t, err)

		_, err = svc.CompleteSession(context.Background(), userID, session.ID)
		assert.ErrorIs(t, err, ErrSessionNotInProgress)
	})

	t.Run("rejects empty reasons", func(t *testing.T) {
		t.Parallel()

		svc, _, _, userID := newFixture(t)
		_, err := svc.StartSession(context.Background(), userID, "", 600)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("hides other users' sessions", func(t *testing.T) {
		t.Parallel()

		svc, _, _, userID := newFixture(t)
		session, err := svc.StartSession(context.Background(), userID, "reading", 600)
		require.NoError(t, err)

		_, err = svc.CompleteSession(context.Background(), uuid.New(), session.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/platform/logger"
	"github.com/zengarden/zengarden-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using
// PostgreSQL. The flower_tasks table is the work queue.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// taskColumns is the column list shared by every task SELECT.
const taskColumns = `id, flower_id, status, retry_count, max_retries, error, created_at, started_at, completed_at`

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.FlowerTask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO flower_tasks (id, flower_id, status, retry_count, max_retries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.FlowerID,
		task.Status,
		task.RetryCount,
		task.MaxRetries,
		task.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("flower_id", task.FlowerID.String()))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("flower_id", task.FlowerID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.FlowerTask, error) {
	query := fmt.Sprintf(`SELECT %s FROM flower_tasks WHERE id = $1`, taskColumns)
	return s.scanTask(ctx, s.db.QueryRowContext(ctx, query, id))
}

// GetByFlowerID implements store.TaskStore.GetByFlowerID
func (s *PostgresTaskStore) GetByFlowerID(ctx context.Context, flowerID uuid.UUID) (*domain.FlowerTask, error) {
	query := fmt.Sprintf(`SELECT %s FROM flower_tasks WHERE flower_id = $1`, taskColumns)
	return s.scanTask(ctx, s.db.QueryRowContext(ctx, query, flowerID))
}

// ClaimNext implements store.TaskStore.ClaimNext.
//
// The claim is a single statement: the inner SELECT picks the oldest
// pending row with FOR UPDATE SKIP LOCKED and the outer UPDATE flips it
// to generating and stamps started_at before the row lock is released.
// A concurrent dispatcher (in this process or another one) either locks
// a different row or sees none, so no task can ever be claimed twice.
func (s *PostgresTaskStore) ClaimNext(ctx context.Context) (*domain.FlowerTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		UPDATE flower_tasks
		SET status = $1, started_at = $2
		WHERE id = (
			SELECT id FROM flower_tasks
			WHERE status = $3
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s
	`, taskColumns)

	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, query,
		domain.TaskStatusGenerating,
		now,
		domain.TaskStatusPending,
	)

	task, err := s.scanTask(ctx, row)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, store.ErrNoPendingTask
		}
		log.Error("failed to claim next task", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("task claimed",
		slog.String("task_id", task.ID.String()),
		slog.String("flower_id", task.FlowerID.String()))
	return task, nil
}

// SetStatus implements store.TaskStore.SetStatus
func (s *PostgresTaskStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	if !domain.IsValidTaskStatus(status) {
		return domain.ErrInvalidTaskStatus
	}

	query := `UPDATE flower_tasks SET status = $1 WHERE id = $2`
	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "task")
}

// MarkCompleted implements store.TaskStore.MarkCompleted
func (s *PostgresTaskStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE flower_tasks
		SET status = $1, completed_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, domain.TaskStatusCompleted, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "task")
}

// MarkRetry implements store.TaskStore.MarkRetry
func (s *PostgresTaskStore) MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	query := `
		UPDATE flower_tasks
		SET status = $1, retry_count = $2, error = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, domain.TaskStatusPending, retryCount, errMsg, id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "task")
}

// MarkFailed implements store.TaskStore.MarkFailed
func (s *PostgresTaskStore) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	query := `
		UPDATE flower_tasks
		SET status = $1, retry_count = $2, error = $3, completed_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		domain.TaskStatusFailed,
		retryCount,
		errMsg,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "task")
}

// ResetForRetry implements store.TaskStore.ResetForRetry
func (s *PostgresTaskStore) ResetForRetry(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE flower_tasks
		SET status = $1, retry_count = 0, error = '', started_at = NULL, completed_at = NULL
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, query, domain.TaskStatusPending, id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "task")
}

// ResetInFlight implements store.TaskStore.ResetInFlight
func (s *PostgresTaskStore) ResetInFlight(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE flower_tasks
		SET status = $1, started_at = NULL
		WHERE status IN ($2, $3, $4)
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		domain.TaskStatusPending,
		domain.TaskStatusGenerating,
		domain.TaskStatusUploading,
		domain.TaskStatusMinting,
	)
	if err != nil {
		log.Error("failed to reset in-flight tasks", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if count > 0 {
		log.Warn("reset stranded in-flight tasks to pending", slog.Int64("count", count))
	}
	return count, nil
}

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanTask scans one task row, mapping sql.ErrNoRows to ErrTaskNotFound.
func (s *PostgresTaskStore) scanTask(ctx context.Context, row *sql.Row) (*domain.FlowerTask, error) {
	var task domain.FlowerTask
	var errMsg sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.FlowerID,
		&task.Status,
		&task.RetryCount,
		&task.MaxRetries,
		&errMsg,
		&task.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}

	task.Error = errMsg.String
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return &task, nil
}

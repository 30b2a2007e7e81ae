package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zengarden/zengarden-api/internal/domain"
)

// TaskStore defines the interface for flower-task persistence. The
// flower_tasks table doubles as the work queue, so alongside plain CRUD
// it exposes the atomic claim operation the dispatcher builds on.
type TaskStore interface {
	// Create saves a new task to the store.
	Create(ctx context.Context, task *domain.FlowerTask) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FlowerTask, error)

	// GetByFlowerID retrieves the task owning the given flower.
	// Returns ErrTaskNotFound if no task exists for the flower.
	GetByFlowerID(ctx context.Context, flowerID uuid.UUID) (*domain.FlowerTask, error)

	// ClaimNext atomically claims the oldest pending task: it flips the
	// row from pending to generating and stamps started_at in a single
	// atomic operation, so concurrent claimants can never obtain the
	// same task. Returns ErrNoPendingTask when the queue is empty.
	ClaimNext(ctx context.Context) (*domain.FlowerTask, error)

	// SetStatus transitions a claimed task to the given pipeline state.
	// Returns ErrTaskNotFound if the task does not exist.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// MarkCompleted sets the terminal completed state and stamps
	// completed_at.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// MarkRetry requeues a failed pipeline run: status back to pending,
	// retry count set to the given value, last error recorded.
	MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error

	// MarkFailed sets the terminal failed state with the last error
	// recorded and stamps completed_at.
	MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error

	// ResetForRetry handles an explicit external retry request: status
	// back to pending, retry count zeroed, error cleared.
	ResetForRetry(ctx context.Context, id uuid.UUID) error

	// ResetInFlight returns tasks stranded in a non-terminal,
	// non-pending state (e.g. by a crash mid-pipeline) to pending.
	// Returns the number of tasks reset. Called once at startup before
	// the dispatcher begins ticking.
	ResetInFlight(ctx context.Context) (int64, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}

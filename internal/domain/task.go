package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a flower-generation task.
type TaskStatus string

// Possible task status values. A task moves forward through the pipeline
// states in order, or back to pending on retry. Completed and failed are
// terminal.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusGenerating TaskStatus = "generating"
	TaskStatusUploading  TaskStatus = "uploading"
	TaskStatusMinting    TaskStatus = "minting"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// DefaultMaxRetries is the retry budget assigned to new tasks.
const DefaultMaxRetries = 3

// Common validation errors for FlowerTask
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskFlowerID = errors.New("task flower ID cannot be empty")
	ErrNegativeRetries   = errors.New("task retry count cannot be negative")
)

// FlowerTask represents one unit of flower-generation work. The database
// row backing it doubles as the work queue: the dispatcher claims the
// oldest pending row and walks it through the pipeline states.
type FlowerTask struct {
	ID          uuid.UUID  `json:"id"`
	FlowerID    uuid.UUID  `json:"flower_id"`
	Status      TaskStatus `json:"status"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewFlowerTask creates a pending task for the given flower with the
// default retry budget.
func NewFlowerTask(flowerID uuid.UUID) (*FlowerTask, error) {
	task := &FlowerTask{
		ID:         uuid.New(),
		FlowerID:   flowerID,
		Status:     TaskStatusPending,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the FlowerTask has valid data.
func (t *FlowerTask) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.FlowerID == uuid.Nil {
		return ErrEmptyTaskFlowerID
	}

	if t.RetryCount < 0 {
		return ErrNegativeRetries
	}

	if !IsValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	return nil
}

// IsTerminal reports whether the task is in a terminal state.
func (t *FlowerTask) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// InFlight reports whether the task is currently being processed by the
// pipeline (claimed but not yet terminal or requeued).
func (t *FlowerTask) InFlight() bool {
	switch t.Status {
	case TaskStatusGenerating, TaskStatusUploading, TaskStatusMinting:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a status change follows the pipeline
// state machine: forward one stage at a time, back to pending from any
// in-flight state (retry), or to failed from any in-flight state.
func (t *FlowerTask) CanTransition(to TaskStatus) bool {
	if !IsValidTaskStatus(to) {
		return false
	}

	switch t.Status {
	case TaskStatusPending:
		return to == TaskStatusGenerating
	case TaskStatusGenerating:
		return to == TaskStatusUploading || to == TaskStatusPending || to == TaskStatusFailed
	case TaskStatusUploading:
		return to == TaskStatusMinting || to == TaskStatusPending || to == TaskStatusFailed
	case TaskStatusMinting:
		return to == TaskStatusCompleted || to == TaskStatusPending || to == TaskStatusFailed
	case TaskStatusFailed:
		// Only the explicit retry endpoint re-enters the queue.
		return to == TaskStatusPending
	default:
		// Completed is terminal.
		return false
	}
}

// IsValidTaskStatus checks if the given status is a valid TaskStatus.
func IsValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusGenerating, TaskStatusUploading,
		TaskStatusMinting, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

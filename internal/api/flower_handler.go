package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zengarden/zengarden-api/internal/api/middleware"
	"github.com/zengarden/zengarden-api/internal/api/shared"
	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/service"
	"github.com/zengarden/zengarden-api/internal/store"
)

// GenerateFlowerRequest is the body for POST /api/flowers/generate.
type GenerateFlowerRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

// TaskResponse is the task state returned by the generation and polling
// endpoints.
type TaskResponse struct {
	ID          string     `json:"id"`
	FlowerID    string     `json:"flower_id"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GenerateFlowerResponse pairs the flower with its task.
type GenerateFlowerResponse struct {
	FlowerID string       `json:"flower_id"`
	Task     TaskResponse `json:"task"`
}

// FlowerResponse is one entry in the garden listing.
type FlowerResponse struct {
	ID              string     `json:"id"`
	SessionReason   string     `json:"session_reason"`
	SessionDuration int        `json:"session_duration_seconds"`
	Prompt          string     `json:"prompt,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	MetadataURL     string     `json:"metadata_url,omitempty"`
	TxHash          string     `json:"tx_hash,omitempty"`
	TokenID         *int64     `json:"token_id,omitempty"`
	Minted          bool       `json:"minted"`
	TaskStatus      string     `json:"task_status"`
	TaskError       string     `json:"task_error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// FlowerHandler handles flower-related HTTP requests.
type FlowerHandler struct {
	flowerService service.FlowerService
}

// NewFlowerHandler creates a FlowerHandler.
func NewFlowerHandler(flowerService service.FlowerService) *FlowerHandler {
	return &FlowerHandler{flowerService: flowerService}
}

// GenerateFlower handles POST /api/flowers/generate. Repeating the
// request for the same session returns the existing flower and task.
func (h *FlowerHandler) GenerateFlower(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found")
		return
	}

	var req GenerateFlowerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session ID")
		return
	}

	result, err := h.flowerService.GenerateFlower(r.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			shared.RespondWithError(w, r, http.StatusNotFound, "Session not found")
		case errors.Is(err, service.ErrSessionNotCompleted):
			shared.RespondWithError(w, r, http.StatusConflict, "Session is not completed")
		default:
			shared.RespondWithInternalError(w, r, err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateFlowerResponse{
		FlowerID: result.Flower.ID.String(),
		Task:     taskToResponse(result.Task),
	})
}

// GetTask handles GET /api/flowers/task/{id}, the status polling
// endpoint.
func (h *FlowerHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.flowerService.GetTask(r.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		shared.RespondWithInternalError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// RetryTask handles POST /api/flowers/task/{id}/retry. Only terminally
// failed tasks can be requeued.
func (h *FlowerHandler) RetryTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.flowerService.RetryTask(r.Context(), userID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		case errors.Is(err, service.ErrTaskNotRetryable):
			shared.RespondWithError(w, r, http.StatusConflict, "Only failed tasks can be retried")
		default:
			shared.RespondWithInternalError(w, r, err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListFlowers handles GET /api/flowers.
func (h *FlowerHandler) ListFlowers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found")
		return
	}

	details, err := h.flowerService.ListFlowers(r.Context(), userID)
	if err != nil {
		shared.RespondWithInternalError(w, r, err)
		return
	}

	responses := make([]FlowerResponse, 0, len(details))
	for _, d := range details {
		responses = append(responses, flowerToResponse(d))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

func taskToResponse(task *domain.FlowerTask) TaskResponse {
	return TaskResponse{
		ID:          task.ID.String(),
		FlowerID:    task.FlowerID.String(),
		Status:      string(task.Status),
		RetryCount:  task.RetryCount,
		MaxRetries:  task.MaxRetries,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
}

func flowerToResponse(d *store.FlowerDetail) FlowerResponse {
	return FlowerResponse{
		ID:              d.Flower.ID.String(),
		SessionReason:   d.SessionReason,
		SessionDuration: d.SessionDuration,
		Prompt:          d.Flower.Prompt,
		ImageURL:        d.Flower.ImageURL,
		MetadataURL:     d.Flower.MetadataURL,
		TxHash:          d.Flower.TxHash,
		TokenID:         d.Flower.TokenID,
		Minted:          d.Flower.Minted,
		TaskStatus:      string(d.TaskStatus),
		TaskError:       d.TaskError,
		CreatedAt:       d.Flower.CreatedAt,
	}
}

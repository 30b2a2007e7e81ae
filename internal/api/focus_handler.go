package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zengarden/zengarden-api/internal/api/middleware"
	"github.com/zengarden/zengarden-api/internal/api/shared"
	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/service"
)

// StartSessionRequest is the body for POST /api/focus/start.
type StartSessionRequest struct {
	Reason          string `json:"reason" validate:"required,min=1,max=200"`
	DurationSeconds int    `json:"duration_seconds" validate:"required,gt=0,lte=14400"`
}

// SessionResponse is the session state returned by the focus endpoints.
type SessionResponse struct {
	ID              string     `json:"id"`
	Reason          string     `json:"reason"`
	DurationSeconds int        `json:"duration_seconds"`
	Status          string     `json:"status"`
	Interrupted     bool       `json:"interrupted"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// FocusHandler handles focus session HTTP requests.
type FocusHandler struct {
	focusService service.FocusService
}

// NewFocusHandler creates a FocusHandler.
func NewFocusHandler(focusService service.FocusService) *FocusHandler {
	return &FocusHandler{focusService: focusService}
}

// StartSession handles POST /api/focus/start.
func (h *FocusHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found")
		return
	}

	var req StartSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	session, err := h.focusService.StartSession(r.Context(), userID, req.Reason, req.DurationSeconds)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session")
			return
		}
		shared.RespondWithInternalError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session))
}

// CompleteSession handles POST /api/focus/{id}/complete.
func (h *FocusHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.focusService.CompleteSession)
}

// InterruptSession handles POST /api/focus/{id}/interrupt.
func (h *FocusHandler) InterruptSession(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.focusService.InterruptSession)
}

func (h *FocusHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, sessionID uuid.UUID) (*domain.FocusSession, error)) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found")
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := fn(r.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			shared.RespondWithError(w, r, http.StatusNotFound, "Session not found")
		case errors.Is(err, service.ErrSessionNotInProgress):
			shared.RespondWithError(w, r, http.StatusConflict, "Session is not in progress")
		default:
			shared.RespondWithInternalError(w, r, err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

func sessionToResponse(session *domain.FocusSession) SessionResponse {
	return SessionResponse{
		ID:              session.ID.String(),
		Reason:          session.Reason,
		DurationSeconds: session.DurationSeconds,
		Status:          string(session.Status),
		Interrupted:     session.Interrupted,
		StartedAt:       session.StartedAt,
		CompletedAt:     session.CompletedAt,
	}
}

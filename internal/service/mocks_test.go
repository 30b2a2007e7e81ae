package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/store"
)

// fakeTaskStore is a minimal in-memory store.TaskStore for service
// tests. Queue operations the service layer never calls are stubbed.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.FlowerTask

	createErr error
	resets    int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.FlowerTask)}
}

func (s *fakeTaskStore) put(t *domain.FlowerTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
}

func (s *fakeTaskStore) get(id uuid.UUID) domain.FlowerTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tasks[id]
}

func (s *fakeTaskStore) Create(_ context.Context, t *domain.FlowerTask) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.put(t)
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.FlowerTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTaskStore) GetByFlowerID(_ context.Context, flowerID uuid.UUID) (*domain.FlowerTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.FlowerID == flowerID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

func (s *fakeTaskStore) ClaimNext(_ context.Context) (*domain.FlowerTask, error) {
	return nil, store.ErrNoPendingTask
}

func (s *fakeTaskStore) SetStatus(_ context.Context, id uuid.UUID, status domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = status
	return nil
}

func (s *fakeTaskStore) MarkCompleted(_ context.Context, id uuid.UUID) error {
	return s.SetStatus(context.Background(), id, domain.TaskStatusCompleted)
}

func (s *fakeTaskStore) MarkRetry(_ context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = domain.TaskStatusPending
	t.RetryCount = retryCount
	t.Error = errMsg
	return nil
}

func (s *fakeTaskStore) MarkFailed(_ context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = domain.TaskStatusFailed
	t.RetryCount = retryCount
	t.Error = errMsg
	return nil
}

func (s *fakeTaskStore) ResetForRetry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = domain.TaskStatusPending
	t.RetryCount = 0
	t.Error = ""
	s.resets++
	return nil
}

func (s *fakeTaskStore) ResetInFlight(_ context.Context) (int64, error) { return 0, nil }

func (s *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return s }

// fakeFlowerStore is a minimal in-memory store.FlowerStore.
type fakeFlowerStore struct {
	mu      sync.Mutex
	flowers map[uuid.UUID]*domain.Flower

	createErr error
	listErr   error
}

func newFakeFlowerStore() *fakeFlowerStore {
	return &fakeFlowerStore{flowers: make(map[uuid.UUID]*domain.Flower)}
}

func (s *fakeFlowerStore) put(f *domain.Flower) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.flowers[f.ID] = &cp
}

func (s *fakeFlowerStore) Create(_ context.Context, f *domain.Flower) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.flowers {
		if existing.SessionID == f.SessionID {
			return store.ErrFlowerExists
		}
	}
	cp := *f
	s.flowers[f.ID] = &cp
	return nil
}

func (s *fakeFlowerStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Flower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flowers[id]
	if !ok {
		return nil, store.ErrFlowerNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *fakeFlowerStore) GetBySessionID(_ context.Context, sessionID uuid.UUID) (*domain.Flower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.flowers {
		if f.SessionID == sessionID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, store.ErrFlowerNotFound
}

func (s *fakeFlowerStore) SetPrompt(_ context.Context, _ uuid.UUID, _ string) error    { return nil }
func (s *fakeFlowerStore) SetImageURL(_ context.Context, _ uuid.UUID, _ string) error  { return nil }
func (s *fakeFlowerStore) SetMetadataURL(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}
func (s *fakeFlowerStore) SetMintResult(_ context.Context, _ uuid.UUID, _ string, _ int64) error {
	return nil
}

func (s *fakeFlowerStore) ListByUserID(_ context.Context, userID uuid.UUID) ([]*store.FlowerDetail, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*store.FlowerDetail
	for _, f := range s.flowers {
		if f.UserID == userID {
			cp := *f
			out = append(out, &store.FlowerDetail{Flower: cp})
		}
	}
	return out, nil
}

func (s *fakeFlowerStore) WithTx(_ *sql.Tx) store.FlowerStore { return s }

// fakeSessionStore is a minimal in-memory store.SessionStore.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.FocusSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*domain.FocusSession)}
}

func (s *fakeSessionStore) put(sess *domain.FocusSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
}

func (s *fakeSessionStore) get(id uuid.UUID) domain.FocusSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.sessions[id]
}

func (s *fakeSessionStore) Create(_ context.Context, sess *domain.FocusSession) error {
	s.put(sess)
	return nil
}

func (s *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeSessionStore) Update(_ context.Context, sess *domain.FocusSession) error {
	s.put(sess)
	return nil
}

func (s *fakeSessionStore) WithTx(_ *sql.Tx) store.SessionStore { return s }

// fakeUserStore is a minimal in-memory store.UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *fakeUserStore) put(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *fakeUserStore) get(id uuid.UUID) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) IncrementFlowerCount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.TotalFlowers++
	return nil
}

func (s *fakeUserStore) AddFocusTime(_ context.Context, id uuid.UUID, minutes int, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.TotalFocusMinutes += minutes
	u.LastFocusDate = &when
	return nil
}

func (s *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return s }

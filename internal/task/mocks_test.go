package task

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/generation"
	"github.com/zengarden/zengarden-api/internal/minting"
	"github.com/zengarden/zengarden-api/internal/store"
)

// memTaskStore is an in-memory store.TaskStore with the same claim
// semantics as the SQL implementation: at most one claimant can flip a
// pending task to generating.
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.FlowerTask

	claimErr     error
	setStatusErr error
	history      map[uuid.UUID][]domain.TaskStatus
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{
		tasks:   make(map[uuid.UUID]*domain.FlowerTask),
		history: make(map[uuid.UUID][]domain.TaskStatus),
	}
}

func (s *memTaskStore) put(t *domain.FlowerTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
}

func (s *memTaskStore) get(id uuid.UUID) domain.FlowerTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tasks[id]
}

func (s *memTaskStore) statusHistory(id uuid.UUID) []domain.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TaskStatus(nil), s.history[id]...)
}

func (s *memTaskStore) recordLocked(id uuid.UUID, status domain.TaskStatus) {
	s.history[id] = append(s.history[id], status)
}

func (s *memTaskStore) Create(_ context.Context, t *domain.FlowerTask) error {
	s.put(t)
	return nil
}

func (s *memTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.FlowerTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTaskStore) GetByFlowerID(_ context.Context, flowerID uuid.UUID) (*domain.FlowerTask, error) {
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

func (s *memTaskStore) ClaimNext(_ context.Context) (*domain.FlowerTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.claimErr != nil {
		return nil, s.claimErr
	}

	var oldest *domain.FlowerTask
	for _, t := range s.tasks {
		if t.Status != domain.TaskStatusPending {
			continue
		}
		if oldest == nil || t.CreatedAt.Before(oldest.CreatedAt) {
			oldest = t
		}
	}
	if oldest == nil {
		return nil, store.ErrNoPendingTask
	}

	now := time.Now().UTC()
	oldest.Status = domain.TaskStatusGenerating
	oldest.StartedAt = &now
	s.recordLocked(oldest.ID, domain.TaskStatusGenerating)

	cp := *oldest
	return &cp, nil
}

func (s *memTaskStore) SetStatus(_ context.Context, id uuid.UUID, status domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setStatusErr != nil {
		return s.setStatusErr
	}
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = status
	s.recordLocked(id, status)
	return nil
}

func (s *memTaskStore) MarkCompleted(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	now := time.Now().UTC()
	t.Status = domain.TaskStatusCompleted
	t.CompletedAt = &now
	s.recordLocked(id, domain.TaskStatusCompleted)
	return nil
}

func (s *memTaskStore) MarkRetry(_ context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = domain.TaskStatusPending
	t.RetryCount = retryCount
	t.Error = errMsg
	s.recordLocked(id, domain.TaskStatusPending)
	return nil
}

func (s *memTaskStore) MarkFailed(_ context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	now := time.Now().UTC()
	t.Status = domain.TaskStatusFailed
	t.RetryCount = retryCount
	t.Error = errMsg
	t.CompletedAt = &now
	s.recordLocked(id, domain.TaskStatusFailed)
	return nil
}

func (s *memTaskStore) ResetForRetry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = domain.TaskStatusPending
	t.RetryCount = 0
	t.Error = ""
	s.recordLocked(id, domain.TaskStatusPending)
	return nil
}

func (s *memTaskStore) ResetInFlight(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tasks {
		if t.Status == domain.TaskStatusGenerating ||
			t.Status == domain.TaskStatusUploading ||
			t.Status == domain.TaskStatusMinting {
			t.Status = domain.TaskStatusPending
			n++
		}
	}
	return n, nil
}

func (s *memTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return s }

// memFlowerStore is an in-memory store.FlowerStore.
type memFlowerStore struct {
	mu      sync.Mutex
	flowers map[uuid.UUID]*domain.Flower
}

func newMemFlowerStore() *memFlowerStore {
	return &memFlowerStore{flowers: make(map[uuid.UUID]*domain.Flower)}
}

func (s *memFlowerStore) put(f *domain.Flower) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.flowers[f.ID] = &cp
}

func (s *memFlowerStore) get(id uuid.UUID) domain.Flower {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.flowers[id]
}

func (s *memFlowerStore) Create(_ context.Context, f *domain.Flower) error {
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

func (s *memFlowerStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Flower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flowers[id]
	if !ok {
		return nil, store.ErrFlowerNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *memFlowerStore) GetBySessionID(_ context.Context, sessionID uuid.UUID) (*domain.Flower, error) {
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

func (s *memFlowerStore) SetPrompt(_ context.Context, id uuid.UUID, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flowers[id]
	if !ok {
		return store.ErrFlowerNotFound
	}
	f.Prompt = prompt
	return nil
}

func (s *memFlowerStore) SetImageURL(_ context.Context, id uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flowers[id]
	if !ok {
		return store.ErrFlowerNotFound
	}
	f.ImageURL = url
	return nil
}

func (s *memFlowerStore) SetMetadataURL(_ context.Context, id uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flowers[id]
	if !ok {
		return store.ErrFlowerNotFound
	}
	f.MetadataURL = url
	return nil
}

func (s *memFlowerStore) SetMintResult(_ context.Context, id uuid.UUID, txHash string, tokenID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flowers[id]
	if !ok {
		return store.ErrFlowerNotFound
	}
	f.TxHash = txHash
	f.TokenID = &tokenID
	f.Minted = true
	return nil
}

func (s *memFlowerStore) ListByUserID(_ context.Context, userID uuid.UUID) ([]*store.FlowerDetail, error) {
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

func (s *memFlowerStore) WithTx(_ *sql.Tx) store.FlowerStore { return s }

// memSessionStore is an in-memory store.SessionStore.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.FocusSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[uuid.UUID]*domain.FocusSession)}
}

func (s *memSessionStore) put(sess *domain.FocusSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
}

func (s *memSessionStore) Create(_ context.Context, sess *domain.FocusSession) error {
	s.put(sess)
	return nil
}

func (s *memSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *memSessionStore) Update(_ context.Context, sess *domain.FocusSession) error {
	s.put(sess)
	return nil
}

func (s *memSessionStore) WithTx(_ *sql.Tx) store.SessionStore { return s }

// memUserStore is an in-memory store.UserStore.
type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *memUserStore) put(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *memUserStore) get(id uuid.UUID) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) IncrementFlowerCount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.TotalFlowers++
	return nil
}

func (s *memUserStore) AddFocusTime(_ context.Context, id uuid.UUID, minutes int, when time.Time) error {
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

func (s *memUserStore) WithTx(_ *sql.Tx) store.UserStore { return s }

// mockGenerator returns canned outputs or injected errors.
type mockGenerator struct {
	prompt    string
	promptErr error
	image     *generation.ImageResult
	imageErr  error

	mu          sync.Mutex
	promptCalls int
	imageCalls  int
}

func (g *mockGenerator) GeneratePrompt(_ context.Context, _ string, _ int) (string, error) {
	g.mu.Lock()
	g.promptCalls++
	g.mu.Unlock()
	if g.promptErr != nil {
		return "", g.promptErr
	}
	return g.prompt, nil
}

func (g *mockGenerator) GenerateImage(_ context.Context, _ string) (*generation.ImageResult, error) {
	g.mu.Lock()
	g.imageCalls++
	g.mu.Unlock()
	if g.imageErr != nil {
		return nil, g.imageErr
	}
	return g.image, nil
}

// mockStorage records uploads and returns deterministic URLs.
type mockStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	putErr   error
	jsonErr  error
	lastJSON any
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: make(map[string][]byte)}
}

func (s *mockStorage) PutObject(_ context.Context, key string, data []byte, _ string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (s *mockStorage) PutJSON(_ context.Context, key string, v any) (string, error) {
	if s.jsonErr != nil {
		return "", s.jsonErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = nil
	s.lastJSON = v
	return "https://cdn.test/" + key, nil
}

// mockMinter returns a canned result or an injected error.
type mockMinter struct {
	result *minting.MintResult
	err    error

	mu    sync.Mutex
	calls int
}

func (m *mockMinter) Mint(_ context.Context, _ string, _ string, _ string) (*minting.MintResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

package task

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/generation"
	"github.com/zengarden/zengarden-api/internal/minting"
	"github.com/zengarden/zengarden-api/internal/observability"
)

// pipelineFixture wires a PipelineRunner against in-memory stores with
// one user, one completed session, one flower and one claimed task.
type pipelineFixture struct {
	tasks    *memTaskStore
	flowers  *memFlowerStore
	sessions *memSessionStore
	users    *memUserStore

	generator *mockGenerator
	storage   *mockStorage
	minter    *mockMinter

	runner *PipelineRunner

	user    *domain.User
	session *domain.FocusSession
	flower  *domain.Flower
	task    *domain.FlowerTask
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		tasks:    newMemTaskStore(),
		flowers:  newMemFlowerStore(),
		sessions: newMemSessionStore(),
		users:    newMemUserStore(),
		generator: &mockGenerator{
			prompt: "a silver lotus under moonlight",
			image:  &generation.ImageResult{Data: []byte("png-bytes"), MIMEType: "image/png"},
		},
		storage: newMockStorage(),
		minter:  &mockMinter{result: &minting.MintResult{TxHash: "0xabc", TokenID: 7}},
	}

	user := &domain.User{
		ID:            uuid.New(),
		WalletAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		CreatedAt:     time.Now().UTC(),
	}
	f.user = user
	f.users.put(user)

	session, err := domain.NewFocusSession(user.ID, "write the thesis", 1500)
	require.NoError(t, err)
	require.NoError(t, session.Complete())
	f.session = session
	f.sessions.put(session)

	flower, err := domain.NewFlower(user.ID, session.ID)
	require.NoError(t, err)
	f.flower = flower
	f.flowers.put(flower)

	task, err := domain.NewFlowerTask(flower.ID)
	require.NoError(t, err)
	f.tasks.put(task)

	claimed, err := f.tasks.ClaimNext(context.Background())
	require.NoError(t, err)
	f.task = claimed

	runner, err := NewPipelineRunner(PipelineParams{
		Logger:       slog.Default(),
		Tasks:        f.tasks,
		Flowers:      f.flowers,
		Sessions:     f.sessions,
		Users:        f.users,
		Generator:    f.generator,
		Storage:      f.storage,
		Minter:       f.minter,
		Metrics:      observability.NewMetrics(prometheus.NewRegistry()),
		StageTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	f.runner = runner

	return f
}

func TestPipelineRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("full run mints and completes", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t)
		require.NoError(t, f.runner.Run(context.Background(), f.task))

		task := f.tasks.get(f.task.ID)
		assert.Equal(t, domain.TaskStatusCompleted, task.Status)
		assert.NotNil(t, task.CompletedAt)
		assert.Equal(t, 0, task.RetryCount)

		flower := f.flowers.get(f.flower.ID)
		assert.Equal(t, "a silver lotus under moonlight", flower.Prompt)
		assert.NotEmpty(t, flower.ImageURL)
		assert.NotEmpty(t, flower.MetadataURL)
		assert.Equal(t, "0xabc", flower.TxHash)
		require.NotNil(t, flower.TokenID)
		assert.Equal(t, int64(7), *flower.TokenID)
		assert.True(t, flower.Minted)

		assert.Equal(t, 1, f.users.get(f.user.ID).TotalFlowers)

		// Forward transitions only, one stage at a time.
		assert.Equal(t, []domain.TaskStatus{
			domain.TaskStatusGenerating,
			domain.TaskStatusUploading,
			domain.TaskStatusMinting,
			domain.TaskStatusCompleted,
		}, f.tasks.statusHistory(f.task.ID))
	})

	t.Run("mint failure still completes the task", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t)
		f.minter.err = errors.New("chain unavailable")

		require.NoError(t, f.runner.Run(context.Background(), f.task))

		task := f.tasks.get(f.task.ID)
		assert.Equal(t, domain.TaskStatusCompleted, task.Status)
		assert.Empty(t, task.Error)

		flower := f.flowers.get(f.flower.ID)
		assert.False(t, flower.Minted)
		assert.Empty(t, flower.TxHash)
		assert.Nil(t, flower.TokenID)
		assert.NotEmpty(t, flower.ImageURL)
		assert.NotEmpty(t, flower.MetadataURL)

		assert.Equal(t, 1, f.users.get(f.user.ID).TotalFlowers)
	})

	t.Run("mint skipped for user without wallet", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t)
		f.user.WalletAddress = ""
		f.users.put(f.user)

		require.NoError(t, f.runner.Run(context.Background(), f.task))

		assert.Equal(t, domain.TaskStatusCompleted, f.tasks.get(f.task.ID).Status)
		assert.Zero(t, f.minter.calls)
		assert.False(t, f.flowers.get(f.flower.ID).Minted)
		assert.Equal(t, 1, f.users.get(f.user.ID).TotalFlowers)
	})

	t.Run("minter not configured is a skip", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t)
		f.minter.err = minting.ErrNotConfigured

		require.NoError(t, f.runner.Run(context.Background(), f.task))
		assert.Equal(t, domain.TaskStatusCompleted, f.tasks.get(f.task.ID).Status)
		assert.False(t, f.flowers.get(f.flower.ID).Minted)
	})

	t.Run("generate failure aborts the run", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t)
		f.generator.promptErr = errors.New("model overloaded")

		err := f.runner.Run(context.Background(), f.task)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "generating prompt")

		// The runner does not decide the task's fate; that is the retry
		// policy's job.
		assert.Equal(t, domain.TaskStatusGenerating, f.tasks.get(f.task.ID).Status)
		assert.Zero(t, f.users.get(f.user.ID).TotalFlowers)
	})

	t.Run("image upload failure keeps the persisted prompt", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t)
		f.storage.putErr = errors.New("bucket unavailable")

		err := f.runner.Run(context.Background(), f.task)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "uploading image")

		flower := f.flowers.get(f.flower.ID)
		assert.Equal(t, "a silver lotus under moonlight", flower.Prompt)
		assert.Empty(t, flower.ImageURL)
	})

	t.Run("metadata upload failure keeps the persisted image URL", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t)
		f.storage.jsonErr = errors.New("bucket unavailable")

		err := f.runner.Run(context.Background(), f.task)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "uploading metadata")

		flower := f.flowers.get(f.flower.ID)
		assert.NotEmpty(t, flower.ImageURL)
		assert.Empty(t, flower.MetadataURL)
	})

	t.Run("metadata document embeds session inputs", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t)
		require.NoError(t, f.runner.Run(context.Background(), f.task))

		doc, ok := f.storage.lastJSON.(metadataDocument)
		require.True(t, ok)

		assert.Contains(t, doc.Name, "Zen Flower #")
		assert.Contains(t, doc.Description, "write the thesis")
		assert.Contains(t, doc.Description, "25 minutes")
		assert.Equal(t, f.flowers.get(f.flower.ID).ImageURL, doc.Image)

		require.Len(t, doc.Attributes, 3)
		assert.Equal(t, "Focus Reason", doc.Attributes[0].TraitType)
		assert.Equal(t, "write the thesis", doc.Attributes[0].Value)
		assert.Equal(t, "Duration", doc.Attributes[1].TraitType)
		assert.Equal(t, "1500 seconds", doc.Attributes[1].Value)
		assert.Equal(t, "Date", doc.Attributes[2].TraitType)
	})
}

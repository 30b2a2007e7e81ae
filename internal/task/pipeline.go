package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zengarden/zengarden-api/internal/domain"
	"github.com/zengarden/zengarden-api/internal/generation"
	"github.com/zengarden/zengarden-api/internal/minting"
	"github.com/zengarden/zengarden-api/internal/observability"
	"github.com/zengarden/zengarden-api/internal/platform/rediscache"
	"github.com/zengarden/zengarden-api/internal/storage"
	"github.com/zengarden/zengarden-api/internal/store"
)

// metadataDocument is the JSON document uploaded alongside each flower
// image and referenced by the mint.
type metadataDocument struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []metadataAttribute `json:"attributes"`
}

type metadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// PipelineRunner executes the four stages for one claimed task:
// generate the image, upload it, upload the metadata document, mint.
// A stage-1..3 failure aborts the run and surfaces to the caller; the
// mint stage can only skip, never fail the task.
type PipelineRunner struct {
	logger   *slog.Logger
	tasks    store.TaskStore
	flowers  store.FlowerStore
	sessions store.SessionStore
	users    store.UserStore

	generator generation.Generator
	storage   storage.Storage
	minter    minting.Minter

	cache   *rediscache.TaskCache
	metrics *observability.Metrics

	// stageTimeout bounds each stage's external calls so a hung remote
	// cannot block the single worker indefinitely. Zero disables it.
	stageTimeout time.Duration

	now func() time.Time
}

// PipelineParams collects the dependencies of a PipelineRunner.
type PipelineParams struct {
	Logger       *slog.Logger
	Tasks        store.TaskStore
	Flowers      store.FlowerStore
	Sessions     store.SessionStore
	Users        store.UserStore
	Generator    generation.Generator
	Storage      storage.Storage
	Minter       minting.Minter
	Cache        *rediscache.TaskCache
	Metrics      *observability.Metrics
	StageTimeout time.Duration
}

// NewPipelineRunner creates a PipelineRunner from its dependencies.
func NewPipelineRunner(p PipelineParams) (*PipelineRunner, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger cannot be nil")
	case p.Tasks == nil:
		return nil, errors.New("task store cannot be nil")
	case p.Flowers == nil:
		return nil, errors.New("flower store cannot be nil")
	case p.Sessions == nil:
		return nil, errors.New("session store cannot be nil")
	case p.Users == nil:
		return nil, errors.New("user store cannot be nil")
	case p.Generator == nil:
		return nil, errors.New("generator cannot be nil")
	case p.Storage == nil:
		return nil, errors.New("storage cannot be nil")
	case p.Minter == nil:
		return nil, errors.New("minter cannot be nil")
	case p.Metrics == nil:
		return nil, errors.New("metrics cannot be nil")
	}

	return &PipelineRunner{
		logger:       p.Logger.With(slog.String("component", "pipeline")),
		tasks:        p.Tasks,
		flowers:      p.Flowers,
		sessions:     p.Sessions,
		users:        p.Users,
		generator:    p.Generator,
		storage:      p.Storage,
		minter:       p.Minter,
		cache:        p.Cache,
		metrics:      p.Metrics,
		stageTimeout: p.StageTimeout,
		now:          time.Now,
	}, nil
}

// Run executes the pipeline for a claimed task. The task must already
// be in the generating state from the claim. The returned error, if
// any, is the stage failure the retry policy should act on.
func (p *PipelineRunner) Run(ctx context.Context, t *domain.FlowerTask) error {
	log := p.logger.With(slog.String("task_id", t.ID.String()))

	flower, err := p.flowers.GetByID(ctx, t.FlowerID)
	if err != nil {
		return fmt.Errorf("loading flower %s: %w", t.FlowerID, err)
	}
	session, err := p.sessions.GetByID(ctx, flower.SessionID)
	if err != nil {
		return fmt.Errorf("loading session %s: %w", flower.SessionID, err)
	}
	user, err := p.users.GetByID(ctx, flower.UserID)
	if err != nil {
		return fmt.Errorf("loading user %s: %w", flower.UserID, err)
	}

	// Stage 1: generate. The claim already set the task to generating.
	var (
		prompt string
		image  *generation.ImageResult
	)
	res := p.runStage(ctx, StageGenerate, func(ctx context.Context) StageResult {
		var err error
		prompt, err = p.generator.GeneratePrompt(ctx, session.Reason, session.DurationSeconds)
		if err != nil {
			return Retryable(fmt.Errorf("generating prompt: %w", err))
		}
		image, err = p.generator.GenerateImage(ctx, prompt)
		if err != nil {
			return Retryable(fmt.Errorf("generating image: %w", err))
		}
		return OK()
	})
	if res.Failed() {
		return res.Err
	}

	// Persist the prompt now so a later-stage failure does not lose it.
	if err := p.flowers.SetPrompt(ctx, flower.ID, prompt); err != nil {
		return fmt.Errorf("persisting prompt: %w", err)
	}

	// Stage 2: upload the image.
	if err := p.setStatus(ctx, t, domain.TaskStatusUploading); err != nil {
		return err
	}
	var imageURL string
	res = p.runStage(ctx, StageUploadImage, func(ctx context.Context) StageResult {
		key := fmt.Sprintf("flowers/%s/%d%s", flower.UserID, p.now().UnixMilli(), extensionFor(image.MIMEType))
		var err error
		imageURL, err = p.storage.PutObject(ctx, key, image.Data, image.MIMEType)
		if err != nil {
			return Retryable(fmt.Errorf("uploading image: %w", err))
		}
		return OK()
	})
	if res.Failed() {
		return res.Err
	}
	if err := p.flowers.SetImageURL(ctx, flower.ID, imageURL); err != nil {
		return fmt.Errorf("persisting image URL: %w", err)
	}

	// Stage 3: upload the metadata document.
	if err := p.setStatus(ctx, t, domain.TaskStatusMinting); err != nil {
		return err
	}
	var (
		metadataURL string
		displayName string
	)
	res = p.runStage(ctx, StageUploadMetadata, func(ctx context.Context) StageResult {
		ms := p.now().UnixMilli()
		displayName = fmt.Sprintf("Zen Flower #%d", ms)
		doc := metadataDocument{
			Name: displayName,
			Description: fmt.Sprintf("A flower grown after focusing on %q for %d minutes.",
				session.Reason, session.DurationSeconds/60),
			Image: imageURL,
			Attributes: []metadataAttribute{
				{TraitType: "Focus Reason", Value: session.Reason},
				{TraitType: "Duration", Value: fmt.Sprintf("%d seconds", session.DurationSeconds)},
				{TraitType: "Date", Value: p.now().UTC().Format("2006-01-02")},
			},
		}
		key := fmt.Sprintf("metadata/%s/%d.json", flower.UserID, ms)
		var err error
		metadataURL, err = p.storage.PutJSON(ctx, key, doc)
		if err != nil {
			return Retryable(fmt.Errorf("uploading metadata: %w", err))
		}
		return OK()
	})
	if res.Failed() {
		return res.Err
	}
	if err := p.flowers.SetMetadataURL(ctx, flower.ID, metadataURL); err != nil {
		return fmt.Errorf("persisting metadata URL: %w", err)
	}

	// Stage 4: mint. Never fails the task: a flower without an NFT is
	// still a flower.
	minted := false
	res = p.runStage(ctx, StageMint, func(ctx context.Context) StageResult {
		if !user.HasWallet() {
			return Skip(nil)
		}
		result, err := p.minter.Mint(ctx, user.WalletAddress, metadataURL, displayName)
		if err != nil {
			return Skip(err)
		}
		if err := p.flowers.SetMintResult(ctx, flower.ID, result.TxHash, result.TokenID); err != nil {
			return Skip(err)
		}
		minted = true
		return OK()
	})
	if res.Outcome == OutcomeSkip {
		switch {
		case res.Err == nil:
			log.Info("Mint skipped, user has no wallet address")
		case errors.Is(res.Err, minting.ErrNotConfigured):
			log.Info("Mint skipped, minter not configured")
		default:
			log.Error("Mint failed, completing task without NFT",
				slog.String("error", res.Err.Error()))
		}
	}

	if err := p.users.IncrementFlowerCount(ctx, flower.UserID); err != nil {
		return fmt.Errorf("incrementing flower count: %w", err)
	}
	if err := p.tasks.MarkCompleted(ctx, t.ID); err != nil {
		return fmt.Errorf("marking task completed: %w", err)
	}
	p.cache.Invalidate(ctx, t.ID.String())
	p.metrics.TasksCompletedTotal.Inc()

	log.Info("Flower task completed",
		slog.String("flower_id", flower.ID.String()),
		slog.Bool("minted", minted))

	return nil
}

// setStatus transitions the task and keeps the status cache honest.
func (p *PipelineRunner) setStatus(ctx context.Context, t *domain.FlowerTask, status domain.TaskStatus) error {
	if err := p.tasks.SetStatus(ctx, t.ID, status); err != nil {
		return fmt.Errorf("transitioning task to %s: %w", status, err)
	}
	t.Status = status
	p.cache.Invalidate(ctx, t.ID.String())
	return nil
}

// runStage times the stage, records its duration and bounds its
// external calls with the configured per-stage timeout.
func (p *PipelineRunner) runStage(ctx context.Context, name string, fn func(context.Context) StageResult) StageResult {
	if p.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.stageTimeout)
		defer cancel()
	}

	start := time.Now()
	res := fn(ctx)
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return res
}

// extensionFor maps an image MIME type to a file extension.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

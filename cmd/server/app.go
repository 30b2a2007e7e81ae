package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zengarden/zengarden-api/internal/config"
	"github.com/zengarden/zengarden-api/internal/observability"
	"github.com/zengarden/zengarden-api/internal/platform/chain"
	"github.com/zengarden/zengarden-api/internal/platform/gemini"
	"github.com/zengarden/zengarden-api/internal/platform/postgres"
	"github.com/zengarden/zengarden-api/internal/platform/r2"
	"github.com/zengarden/zengarden-api/internal/platform/rediscache"
	"github.com/zengarden/zengarden-api/internal/service"
	"github.com/zengarden/zengarden-api/internal/service/auth"
	"github.com/zengarden/zengarden-api/internal/store"
	"github.com/zengarden/zengarden-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore    store.UserStore
	sessionStore store.SessionStore
	flowerStore  store.FlowerStore
	taskStore    store.TaskStore

	// Platform clients
	cache    *rediscache.TaskCache
	registry *prometheus.Registry
	metrics  *observability.Metrics

	// Services
	jwtService    auth.JWTService
	flowerService service.FlowerService
	focusService  service.FocusService

	// Background pipeline
	dispatcher *task.Dispatcher
}

// newApplication creates an application instance with all dependencies
// initialized. External clients are constructed fail-fast: a missing or
// invalid generator, storage, or relay configuration aborts startup
// rather than surfacing mid-pipeline.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.sessionStore = postgres.NewPostgresSessionStore(db, logger)
	app.flowerStore = postgres.NewPostgresFlowerStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	generator, err := gemini.NewGeminiGenerator(
		ctx,
		logger.With("component", "generator"),
		cfg.Generator,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image generator: %w", err)
	}

	objectStorage, err := r2.NewStorage(logger.With("component", "storage"), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	minter, err := chain.NewRelayMinter(logger.With("component", "minter"), cfg.Minter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minter: %w", err)
	}
	if !minter.Enabled() {
		logger.Info("Minting disabled, flowers will be generated without NFTs")
	}

	// nil cache means caching is disabled; TaskCache methods are
	// nil-receiver safe.
	app.cache, err = rediscache.NewTaskCache(ctx, logger.With("component", "cache"), cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize task cache: %w", err)
	}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = observability.NewMetrics(app.registry)

	runner, err := task.NewPipelineRunner(task.PipelineParams{
		Logger:       logger.With("component", "pipeline"),
		Tasks:        app.taskStore,
		Flowers:      app.flowerStore,
		Sessions:     app.sessionStore,
		Users:        app.userStore,
		Generator:    generator,
		Storage:      objectStorage,
		Minter:       minter,
		Cache:        app.cache,
		Metrics:      app.metrics,
		StageTimeout: time.Duration(cfg.Worker.StageTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline runner: %w", err)
	}

	retryPolicy, err := task.NewRetryPolicy(
		logger.With("component", "retry"),
		app.taskStore,
		app.cache,
		app.metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry policy: %w", err)
	}

	app.dispatcher, err = task.NewDispatcher(
		logger.With("component", "dispatcher"),
		app.taskStore,
		runner,
		retryPolicy,
		app.cache,
		app.metrics,
		time.Duration(cfg.Worker.PollIntervalSeconds)*time.Second,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	app.flowerService, err = service.NewFlowerService(
		logger,
		db,
		app.taskStore,
		app.flowerStore,
		app.sessionStore,
		app.cache,
		app.metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flower service: %w", err)
	}

	app.focusService, err = service.NewFocusService(logger, app.sessionStore, app.userStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create focus service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the background dispatcher and the HTTP server, blocking
// until shutdown.
func (app *application) Run(ctx context.Context) error {
	if err := app.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. The
// dispatcher stops first so no task is mid-flight when the database
// connection closes.
func (app *application) cleanup() {
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("Error closing cache connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

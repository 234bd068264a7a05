package app

import (
	"context"
	"fmt"
	"log/slog"

	"chainbrief/internal/config"
	"chainbrief/internal/feed"
	"chainbrief/internal/infrastructure/httpapi"
	"chainbrief/internal/infrastructure/llm"
	"chainbrief/internal/infrastructure/scheduler"
	"chainbrief/internal/infrastructure/storage"
	"chainbrief/internal/infrastructure/telegram"
	"chainbrief/internal/language"
	"chainbrief/internal/legitimacy"
	"chainbrief/internal/logging"
	"chainbrief/internal/ports"
	"chainbrief/internal/scanner"
	"chainbrief/internal/usecase"
)

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	server    *httpapi.Server
	closeFn   func() error
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	repo := storage.NewPostgresRepository(db)

	filter := language.NewFilter(cfg.Language.MinRatio, cfg.Language.MinConfidence)
	client := feed.NewHTTPClient(0)

	registry := scanner.NewRegistry()
	registry.Register(feed.NewRSSScanner(client, filter, logging.Component(baseLogger, "scanner.rss")))
	registry.Register(feed.NewSnapshotScanner(client, filter, logging.Component(baseLogger, "scanner.snapshot")))
	registry.Register(feed.NewFarcasterScanner(client, filter, logging.Component(baseLogger, "scanner.farcaster")))

	source := feed.NewAggregatorSource(registry, cfg.Sources, logging.Component(baseLogger, "source"))

	var enricher ports.Enricher
	if cfg.Enrichment.APIKey != "" {
		enricher = llm.NewGeminiClient(cfg.Enrichment)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Repository: repo,
		Enricher:   enricher,
		Checker:    legitimacy.NewChecker(),
		Notifier:   notifier,
		Enrichment: cfg.Enrichment,
		Digest:     cfg.Notifications.Digest,
		Logger:     logging.Component(baseLogger, "pipeline"),
	})

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval.Std(), cfg.Scheduler.RunOnStart)
	sched := usecase.NewScheduler(driver, pipeline, logging.Component(baseLogger, "scheduler"))
	server := httpapi.New(repo, pipeline, cfg.Server.Addr, logging.Component(baseLogger, "api"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  pipeline,
		scheduler: sched,
		server:    server,
		closeFn:   db.Close,
	}, nil
}

// RunOnce executes a single ingestion cycle and returns the stored count.
func (a *Application) RunOnce(ctx context.Context) (int, error) {
	return a.pipeline.RunCycle(ctx)
}

// Serve starts the scheduler and the HTTP API, blocking until the context is
// cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		_ = a.scheduler.Stop(context.Background())
	}()

	a.logger.Info("serving",
		"addr", a.cfg.Server.Addr,
		"interval", a.cfg.Scheduler.Interval.Std().String())

	return a.server.Run(ctx)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

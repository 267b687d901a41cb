package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/herdirudian/pressflow/internal/audit"
	"github.com/herdirudian/pressflow/internal/config"
	"github.com/herdirudian/pressflow/internal/infrastructure/feed"
	"github.com/herdirudian/pressflow/internal/infrastructure/llm"
	"github.com/herdirudian/pressflow/internal/infrastructure/scheduler"
	"github.com/herdirudian/pressflow/internal/infrastructure/scraper"
	"github.com/herdirudian/pressflow/internal/infrastructure/storage"
	"github.com/herdirudian/pressflow/internal/infrastructure/wordpress"
	"github.com/herdirudian/pressflow/internal/logging"
	"github.com/herdirudian/pressflow/internal/server"
	"github.com/herdirudian/pressflow/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	db          *sql.DB
	coordinator *usecase.Coordinator
	httpServer  *server.Server
	scheduler   *scheduler.IntervalScheduler
}

// New connects the database and assembles every component.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	sources := storage.NewSourceRepository(db)
	articles := storage.NewArticleRepository(db)
	accounts := storage.NewAccountRepository(db)
	processingLogs := storage.NewProcessingLogRepository(db)
	systemLogs := storage.NewSystemLogRepository(db)

	auditLog := audit.New(systemLogs, baseLogger.With("component", "audit"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:        sources,
		Articles:       articles,
		ProcessingLogs: processingLogs,
		Feed:           feed.NewFetcher(nil, baseLogger.With("component", "feed")),
		Rewriter:       llm.NewRewriteClient(cfg.Rewrite),
		Audit:          auditLog,
		Logger:         baseLogger.With("component", "pipeline"),
		RewriteDelay:   cfg.Rewrite.Wait(),
	})

	poster := usecase.NewPoster(usecase.PosterDeps{
		Articles:  articles,
		Accounts:  accounts,
		Publisher: wordpress.NewClient(nil),
		Audit:     auditLog,
		Logger:    baseLogger.With("component", "poster"),
		Location:  cfg.Scheduler.Location(),
	})

	importer := usecase.NewImporter(usecase.ImporterDeps{
		Sources:        sources,
		Articles:       articles,
		ProcessingLogs: processingLogs,
		Scraper:        scraper.New(nil),
		Rewriter:       llm.NewRewriteClient(cfg.Rewrite),
		Audit:          auditLog,
	})

	coordinator := usecase.NewCoordinator(pipeline, poster, auditLog, baseLogger.With("component", "coordinator"))

	httpServer := server.New(cfg.Server.Port, baseLogger.With("component", "http"))
	server.NewRouter(httpServer.Echo, coordinator, importer, sources, db).Bind()

	return &Application{
		cfg:         cfg,
		logger:      baseLogger,
		db:          db,
		coordinator: coordinator,
		httpServer:  httpServer,
		scheduler:   scheduler.NewIntervalScheduler(cfg.Scheduler.Every()),
	}, nil
}

// Run serves until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	job := func(t time.Time) {
		if err := a.coordinator.RunNow(ctx); err != nil {
			if errors.Is(err, usecase.ErrAlreadyRunning) {
				a.logger.Debug("scheduled run skipped, already running", "tick", t)
				return
			}
			a.logger.Error("scheduled run failed", "error", err)
		}
	}
	if err := a.scheduler.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		_ = a.scheduler.Stop(context.Background())
	}()

	a.logger.Info("server starting", "port", a.cfg.Server.Port)
	err := a.httpServer.Start(ctx)

	if closeErr := a.db.Close(); closeErr != nil {
		a.logger.Error("close database", "error", closeErr)
	}

	return err
}

package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duchph/approvebot/internal/core/config"
	"github.com/duchph/approvebot/internal/core/domain"
	"github.com/duchph/approvebot/internal/core/progress"
	"github.com/duchph/approvebot/internal/health"
	"github.com/duchph/approvebot/internal/infra/browser"
	"github.com/duchph/approvebot/internal/infra/checkpoint"
	"github.com/duchph/approvebot/internal/infra/excel"
	"github.com/duchph/approvebot/internal/run"
)

// App is the main application struct that wires the batch pipeline together.
type App struct {
	cfg          *config.AppConfig
	records      []domain.Record
	tracker      *progress.Tracker
	driver       browser.Driver
	runner       *run.Runner
	healthServer *health.Server
	store        checkpoint.Store
	log          *slog.Logger
}

// NewApp creates an App with all dependencies initialized: the checkpoint
// store, the progress tracker loaded from it, the input records and the
// browser driver.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	store, err := NewStore(cfg.Checkpoint)
	if err != nil {
		return nil, err
	}

	tracker, err := progress.Load(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	records, err := excel.LoadRecords(cfg.Input)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records found in %s", cfg.Input.Path)
	}

	driver, err := browser.NewCDPDriver(cfg.BrowserDriver())
	if err != nil {
		return nil, fmt.Errorf("failed to init browser driver: %w", err)
	}

	inner, outer := cfg.Policies()
	exec := run.NewExecutor(run.ExecutorConfig{
		Approvers:     cfg.Run.Approvers,
		PerItemDelay:  cfg.ItemDelay(),
		SubmitTimeout: cfg.BrowserDriver().NavTimeout,
		Inner:         inner,
		Outer:         outer,
	}, driver, tracker)

	runner := run.NewRunner(run.RunnerConfig{
		Resume:      cfg.ResumeEnabled(),
		StopOnError: cfg.Run.StopOnError,
	}, exec, tracker)

	var healthServer *health.Server
	if cfg.Server.Port > 0 {
		healthServer = health.NewServer(tracker, cfg.Server.Port)
	}

	return &App{
		cfg:          cfg,
		records:      records,
		tracker:      tracker,
		driver:       driver,
		runner:       runner,
		healthServer: healthServer,
		store:        store,
		log:          slog.Default(),
	}, nil
}

// NewStore builds the checkpoint store selected by the configuration.
func NewStore(cfg config.CheckpointConfig) (checkpoint.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return checkpoint.NewFileStore(cfg.Path), nil
	case config.BackendRedis:
		store, err := checkpoint.NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis checkpoint store: %w", err)
		}
		return store, nil
	case config.BackendMemory:
		return checkpoint.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported checkpoint backend %q", cfg.Backend)
	}
}

// Run executes the batch over all input records. It blocks until the run
// finishes or ctx is cancelled, then reports the summary.
func (a *App) Run(ctx context.Context) error {
	if a.healthServer != nil {
		go func() {
			if err := a.healthServer.Start(); err != nil {
				a.log.Error("Health server failed", "error", err)
			}
		}()
	}

	a.log.Info("Starting run",
		"records", len(a.records),
		"resume", a.cfg.ResumeEnabled(),
		"stop_on_error", a.cfg.Run.StopOnError)

	sum, err := a.runner.Run(ctx, a.records)

	a.log.Info("Run finished",
		"completed", sum.Completed,
		"skipped", sum.Skipped,
		"failed", sum.Failed)

	return err
}

// Stop releases the browser session and shuts down the health server.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping...")

	if err := a.driver.Close(); err != nil {
		a.log.Warn("Failed to close browser driver", "error", err)
	}

	if closer, ok := a.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn("Failed to close checkpoint store", "error", err)
		}
	}

	if a.healthServer != nil {
		return a.healthServer.Stop(ctx)
	}
	return nil
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/automation-dashboard/internal/config"
	"github.com/kirillkom/automation-dashboard/internal/core/domain"
	"github.com/kirillkom/automation-dashboard/internal/core/ports"
	"github.com/kirillkom/automation-dashboard/internal/core/usecase"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/queue/nats"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/render/htmlview"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/repository/localfile"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/resilience"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/seed"
	"github.com/kirillkom/automation-dashboard/internal/observability/metrics"
)

const serviceName = "api"

type App struct {
	Config config.Config

	Store    *usecase.ProcessStore
	Catalog  *usecase.ProcessCatalogUseCase
	View     *usecase.ViewService
	Renderer ports.ViewRenderer
	Exporter ports.ProcessExporter

	HTTPMetrics    *metrics.HTTPServerMetrics
	CatalogMetrics *metrics.CatalogMetrics

	events  *nats.Queue
	wg      sync.WaitGroup
	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	catalogMetrics := metrics.NewCatalogMetrics(serviceName, httpMetrics.Registry())

	resilienceCfg := cfg.Resilience()
	resilienceCfg.OnStateChange = catalogMetrics.ObserveBreakerState
	executor := resilience.NewExecutor(resilienceCfg)

	repo, closeRepo, err := OpenRepository(ctx, cfg, executor)
	if err != nil {
		return nil, err
	}

	var notifier ports.ChangeNotifier
	var events *nats.Queue
	if cfg.EventsEnabled {
		events, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ClientName:         "automation-dashboard-" + serviceName,
			ResilienceExecutor: executor,
		})
		if err != nil {
			closeRepo()
			return nil, fmt.Errorf("init change events: %w", err)
		}
		notifier = events
	}

	store := usecase.NewProcessStore()
	catalog := usecase.NewProcessCatalogUseCase(repo, store, notifier, catalogMetrics, uuid.NewString())
	view := usecase.NewViewService(store, catalogMetrics, usecase.ViewConfig{
		DefaultItemsPerPage: cfg.DefaultItemsPerPage,
		ReadyTimeout:        cfg.ViewReadyTimeout,
		SessionIdleTimeout:  cfg.SessionIdleTimeout,
	})

	return &App{
		Config:         cfg,
		Store:          store,
		Catalog:        catalog,
		View:           view,
		Renderer:       htmlview.NewRenderer(),
		Exporter:       xlsx.NewExporter(),
		HTTPMetrics:    httpMetrics,
		CatalogMetrics: catalogMetrics,
		events:         events,
		closeFn: func() {
			if events != nil {
				events.Close()
			}
			closeRepo()
		},
	}, nil
}

// OpenRepository selects the configured backend. The returned func releases it.
func OpenRepository(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.ProcessRepository, func(), error) {
	switch cfg.ProcessStore {
	case config.StoreBackendPostgres:
		db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewProcessRepository(db, executor)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, func() { _ = db.Close() }, nil
	case config.StoreBackendLocal, "":
		repo, err := localfile.New(cfg.LocalStorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open local store: %w", err)
		}
		return repo, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown PROCESS_STORE %q (want %q or %q)", cfg.ProcessStore, config.StoreBackendPostgres, config.StoreBackendLocal)
	}
}

// Start seeds the backend if configured, loads the store in the background
// until it succeeds and follows change events from other instances.
func (a *App) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if a.Config.SeedFile != "" {
			if err := a.seed(ctx); err != nil {
				slog.Error("process_seed_failed", "file", a.Config.SeedFile, "error", err)
			}
		}
		LoadUntilReady(ctx, a.Catalog, a.Config.StoreLoadRetryWait)
	}()

	if a.events == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := a.events.SubscribeProcessesChanged(ctx, func(ctx context.Context, event domain.ProcessesChanged) error {
			a.CatalogMetrics.ObserveChangeEvent(event.Kind, event.Origin == a.Catalog.Origin())
			return a.Catalog.HandleChange(ctx, event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("process_change_subscription_failed", "error", err)
		}
	}()
}

func (a *App) seed(ctx context.Context) error {
	inputs, err := seed.LoadFile(a.Config.SeedFile)
	if err != nil {
		return err
	}
	created, err := a.Catalog.Seed(ctx, inputs)
	if err != nil {
		return err
	}
	if created > 0 {
		slog.Info("process_seed_applied", "file", a.Config.SeedFile, "created", created)
	}
	return nil
}

type loader interface {
	Load(ctx context.Context) error
	Ready() bool
}

// LoadUntilReady retries the initial store load until it succeeds or ctx ends.
// Later loads happen after mutations and change events.
func LoadUntilReady(ctx context.Context, l loader, wait time.Duration) {
	if wait <= 0 {
		wait = 2 * time.Second
	}
	for attempt := 1; ; attempt++ {
		if l.Ready() {
			return
		}
		err := l.Load(ctx)
		if err == nil {
			slog.Info("process_store_ready", "attempts", attempt)
			return
		}
		slog.Warn("process_store_load_failed", "attempt", attempt, "retry_in", wait.String(), "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Close waits for background work started by Start; cancel its context first.
func (a *App) Close() {
	a.wg.Wait()
	if a.closeFn != nil {
		a.closeFn()
	}
}

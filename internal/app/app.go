package app

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/grafana/pyroscope-go"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/GHILLIExSTEW/sportfeed/external/provider"
	"github.com/GHILLIExSTEW/sportfeed/internal/config"
	"github.com/GHILLIExSTEW/sportfeed/internal/discovery"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/game"
	"github.com/GHILLIExSTEW/sportfeed/internal/infrastructure/repository/memory"
	"github.com/GHILLIExSTEW/sportfeed/internal/infrastructure/repository/postgres"
	"github.com/GHILLIExSTEW/sportfeed/internal/normalize"
	"github.com/GHILLIExSTEW/sportfeed/internal/observability"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/logging"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/ratelimit"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/resilience"
	"github.com/GHILLIExSTEW/sportfeed/internal/usecase"
)

// App owns the wired service graph and its shutdown order.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	db        *sqlx.DB
	scheduler *usecase.Scheduler
	profiler  *pyroscope.Profiler
	tracing   func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, crerr.Mark(err, usecase.ErrConfiguration)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)

	tracing, err := observability.SetupUptrace(cfg)
	if err != nil {
		return nil, crerr.Mark(err, usecase.ErrConfiguration)
	}
	profiler, err := observability.StartPyroscope(cfg)
	if err != nil {
		logger.Warn("profiler unavailable, continuing without it", "error", err)
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		profiler: profiler,
		tracing:  tracing,
	}

	repo, err := a.buildRepository(ctx)
	if err != nil {
		a.close(ctx)
		return nil, crerr.Mark(err, usecase.ErrConfiguration)
	}

	scheduler, err := a.buildScheduler(repo)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.scheduler = scheduler

	logger.InfoContext(ctx, "ingestor wired",
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"discovery_mode", cfg.DiscoveryMode,
		"sports", len(cfg.DiscoverySports),
		"mapped_leagues", len(cfg.Leagues),
		"run_once", cfg.RunOnce,
	)

	return a, nil
}

func (a *App) buildRepository(ctx context.Context) (game.Repository, error) {
	if a.cfg.StoreDriver == config.StoreDriverMemory {
		return memory.NewGameRepository(), nil
	}

	dbURL, err := prepareDBURL(a.cfg.DBURL, a.cfg.DBDisablePreparedBinary)
	if err != nil {
		return nil, err
	}

	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName("sportfeed"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	a.db = db
	return postgres.NewGameRepository(db), nil
}

func (a *App) buildScheduler(repo game.Repository) (*usecase.Scheduler, error) {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Enabled:          a.cfg.ProviderCircuitEnabled,
		FailureThreshold: a.cfg.ProviderCircuitFailures,
		OpenTimeout:      a.cfg.ProviderCircuitOpenTimeout,
	})

	stats := usecase.NewStatsCollector(nil)
	client, err := provider.NewClient(provider.ClientConfig{
		APIKey:            a.cfg.ProviderAPIKey,
		Timeout:           a.cfg.ProviderTimeout,
		MaxRetries:        a.cfg.ProviderMaxRetries,
		RetryBaseDelay:    a.cfg.ProviderRetryBaseDelay,
		RetryAfterDefault: a.cfg.ProviderRetryAfterDefault,
		Limiter:           ratelimit.New(a.cfg.CallsPerMinute),
		Breaker:           breaker,
		Logger:            a.logger,
		OnHTTPStatus:      stats.RecordHTTPStatus,
	})
	if err != nil {
		return nil, crerr.Mark(err, usecase.ErrConfiguration)
	}

	leagueCatalog := a.cfg.Catalog()
	disc, err := discovery.NewService(discovery.Config{
		Mode:       a.cfg.DiscoveryMode,
		Catalog:    leagueCatalog,
		Client:     client,
		CacheTTL:   a.cfg.DiscoveryCacheTTL,
		Logger:     a.logger,
		SportPause: a.cfg.SportPause,
	})
	if err != nil {
		return nil, crerr.Mark(err, usecase.ErrConfiguration)
	}

	fetch, err := usecase.NewFetchService(usecase.FetchConfig{
		Catalog:    leagueCatalog,
		Client:     client,
		Normalizer: normalize.New(a.logger),
		Repo:       repo,
		Stats:      stats,
		Logger:     a.logger,
		Workers:    a.cfg.FetchWorkers,
		PauseMin:   a.cfg.FetchPauseMin,
		PauseMax:   a.cfg.FetchPauseMax,
		WindowDays: a.cfg.DateWindowDays,
	})
	if err != nil {
		return nil, err
	}

	return usecase.NewScheduler(usecase.SchedulerConfig{
		Fetch:               fetch,
		Discovery:           disc,
		Repo:                repo,
		Wagers:              usecase.NoopWagerSource{},
		Logger:              a.logger,
		FullRefreshInterval: a.cfg.FullRefreshInterval,
		LiveSyncInterval:    a.cfg.LiveSyncInterval,
		RunOnce:             a.cfg.RunOnce,
	})
}

// Run blocks until ctx is cancelled or, in run-once mode, until the
// single refresh completes.
func (a *App) Run(ctx context.Context) error {
	return a.scheduler.Run(ctx)
}

func (a *App) Close(ctx context.Context) {
	a.close(ctx)
}

func (a *App) close(ctx context.Context) {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close db", "error", err)
		}
	}
	if a.profiler != nil {
		if err := a.profiler.Stop(); err != nil {
			a.logger.Warn("stop profiler", "error", err)
		}
	}
	if a.tracing != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := a.tracing(shutdownCtx); err != nil {
			a.logger.Warn("shutdown tracing", "error", err)
		}
	}
	_ = a.logger.Sync()
}

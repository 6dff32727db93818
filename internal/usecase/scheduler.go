package usecase

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"

	"github.com/GHILLIExSTEW/sportfeed/internal/domain/catalog"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/game"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/logging"
)

// LeagueSource resolves the league set for a refresh run.
type LeagueSource interface {
	Leagues(ctx context.Context) (map[string][]catalog.League, error)
	Invalidate(ctx context.Context)
}

type SchedulerConfig struct {
	Fetch               *FetchService
	Discovery           LeagueSource
	Repo                game.Repository
	Wagers              ActiveWagerSource
	Logger              *logging.Logger
	FullRefreshInterval time.Duration
	LiveSyncInterval    time.Duration
	RunOnce             bool
}

// Scheduler drives the two ingestion loops: the periodic full refresh
// that rebuilds the schedule from a clean slate, and the tight live
// sync that keeps games with active wagers fresh. The loops run
// independently; a slow refresh never blocks live updates.
type Scheduler struct {
	fetch               *FetchService
	discovery           LeagueSource
	repo                game.Repository
	wagers              ActiveWagerSource
	logger              *logging.Logger
	fullRefreshInterval time.Duration
	liveSyncInterval    time.Duration
	runOnce             bool

	now func() time.Time
}

func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Fetch == nil {
		return nil, crerr.Wrap(ErrConfiguration, "fetch service is required")
	}
	if cfg.Discovery == nil {
		return nil, crerr.Wrap(ErrConfiguration, "league source is required")
	}
	if cfg.Repo == nil {
		return nil, crerr.Wrap(ErrConfiguration, "game repository is required")
	}

	wagers := cfg.Wagers
	if wagers == nil {
		wagers = NoopWagerSource{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	fullRefreshInterval := cfg.FullRefreshInterval
	if fullRefreshInterval <= 0 {
		fullRefreshInterval = time.Hour
	}
	liveSyncInterval := cfg.LiveSyncInterval
	if liveSyncInterval <= 0 {
		liveSyncInterval = 5 * time.Second
	}

	return &Scheduler{
		fetch:               cfg.Fetch,
		discovery:           cfg.Discovery,
		repo:                cfg.Repo,
		wagers:              wagers,
		logger:              logger,
		fullRefreshInterval: fullRefreshInterval,
		liveSyncInterval:    liveSyncInterval,
		runOnce:             cfg.RunOnce,
		now:                 time.Now,
	}, nil
}

// Run blocks until ctx is cancelled. In run-once mode it performs a
// single full refresh and returns.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.runOnce {
		_, err := s.RunFullRefresh(ctx)
		return err
	}

	var wg conc.WaitGroup
	wg.Go(func() { s.fullRefreshLoop(ctx) })
	wg.Go(func() { s.liveSyncLoop(ctx) })
	wg.Wait()

	return ctx.Err()
}

func (s *Scheduler) fullRefreshLoop(ctx context.Context) {
	if _, err := s.RunFullRefresh(ctx); err != nil {
		s.logger.ErrorContext(ctx, "full refresh failed", "error", err)
	}

	for {
		// Align the next run to the interval boundary so hourly runs
		// land on the hour.
		now := s.now()
		next := now.Truncate(s.fullRefreshInterval).Add(s.fullRefreshInterval)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.RunFullRefresh(ctx); err != nil {
			s.logger.ErrorContext(ctx, "full refresh failed", "error", err)
		}
	}
}

func (s *Scheduler) liveSyncLoop(ctx context.Context) {
	ticker := time.NewTicker(s.liveSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ids, err := s.wagers.ActiveGameIDs(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "active wager lookup failed", "error", err)
			continue
		}
		if len(ids) == 0 {
			continue
		}

		if err := s.fetch.SyncGames(ctx, ids); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "live sync failed", "error", err)
		}
	}
}

// RunFullRefresh rebuilds the stored schedule: prune stale rows, wipe
// the table, re-discover the league set, and fetch every league's
// window.
func (s *Scheduler) RunFullRefresh(ctx context.Context) (FetchRun, error) {
	ctx, span := startSpan(ctx, "scheduler.full_refresh")
	defer span.End()

	s.discovery.Invalidate(ctx)
	grouped, err := s.discovery.Leagues(ctx)
	if err != nil {
		return FetchRun{}, crerr.Mark(err, ErrRefreshFailed)
	}

	total := 0
	for _, leagues := range grouped {
		total += len(leagues)
	}

	stats := s.fetch.Stats()
	stats.Begin(len(grouped), total)

	exempt, err := s.wagers.ActiveGameIDs(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "active wager lookup failed, pruning without exemptions", "error", err)
		exempt = nil
	}

	pruned, err := s.repo.PrunePastAndFinished(ctx, s.now(), exempt)
	if err != nil {
		return FetchRun{}, crerr.Mark(err, ErrRefreshFailed)
	}
	stats.RecordPruned(pruned)

	if err := s.repo.ClearAll(ctx); err != nil {
		return FetchRun{}, crerr.Mark(err, ErrRefreshFailed)
	}

	if err := s.fetch.FetchAll(ctx, grouped); err != nil {
		return FetchRun{}, crerr.Mark(err, ErrRefreshFailed)
	}

	run := stats.Finish()
	s.logger.InfoContext(ctx, "full refresh finished",
		"run_id", run.RunID,
		"duration", run.Duration().String(),
		"sports", run.Sports,
		"leagues", run.Leagues,
		"games_seen", run.GamesSeen,
		"games_written", run.GamesWritten,
		"games_skipped", run.GamesSkipped,
		"inserted", run.Inserted,
		"updated", run.Updated,
		"pruned", run.Pruned,
		"failures", run.Failures,
	)

	return run, nil
}

package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/GHILLIExSTEW/sportfeed/external/provider"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/catalog"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/game"
	"github.com/GHILLIExSTEW/sportfeed/internal/normalize"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/logging"
)

// GameFetcher is the provider surface the fetch pipeline needs.
type GameFetcher interface {
	Games(ctx context.Context, sport catalog.Sport, leagueID int64, season int, date, to string) ([]provider.RawGame, error)
}

// GameNormalizer converts one raw provider object into a canonical
// game.
type GameNormalizer interface {
	Game(ctx context.Context, league catalog.League, raw provider.RawGame) (game.Game, error)
}

type FetchConfig struct {
	Catalog    catalog.Config
	Client     GameFetcher
	Normalizer GameNormalizer
	Repo       game.Repository
	Stats      *StatsCollector
	Logger     *logging.Logger
	Workers    int
	PauseMin   time.Duration
	PauseMax   time.Duration
	WindowDays int
}

// FetchService pulls schedule slices from the provider, normalizes
// them, and writes canonical games to the store.
type FetchService struct {
	catalog    catalog.Config
	client     GameFetcher
	normalizer GameNormalizer
	repo       game.Repository
	stats      *StatsCollector
	logger     *logging.Logger
	workers    int
	pauseMin   time.Duration
	pauseMax   time.Duration
	windowDays int

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewFetchService(cfg FetchConfig) (*FetchService, error) {
	if cfg.Client == nil {
		return nil, crerr.Wrap(ErrConfiguration, "fetch client is required")
	}
	if cfg.Repo == nil {
		return nil, crerr.Wrap(ErrConfiguration, "game repository is required")
	}

	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = normalize.New(cfg.Logger)
	}
	stats := cfg.Stats
	if stats == nil {
		stats = NewStatsCollector(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 4
	}
	windowDays := cfg.WindowDays
	if windowDays < 1 {
		windowDays = 7
	}

	return &FetchService{
		catalog:    cfg.Catalog,
		client:     cfg.Client,
		normalizer: normalizer,
		repo:       cfg.Repo,
		stats:      stats,
		logger:     logger,
		workers:    workers,
		pauseMin:   cfg.PauseMin,
		pauseMax:   cfg.PauseMax,
		windowDays: windowDays,
		now:        time.Now,
		sleep:      sleepContext,
	}, nil
}

func (s *FetchService) Stats() *StatsCollector {
	return s.stats
}

// FetchAll fans one fetch task per league out over a bounded worker
// pool. A failing league is counted and logged; the rest of the run
// keeps going.
func (s *FetchService) FetchAll(ctx context.Context, grouped map[string][]catalog.League) error {
	ctx, span := startSpan(ctx, "fetch.all")
	defer span.End()

	total := 0
	for _, leagues := range grouped {
		total += len(leagues)
	}
	span.SetAttributes(
		attribute.Int("sports", len(grouped)),
		attribute.Int("leagues", total),
	)
	if total == 0 {
		return nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return fmt.Errorf("create fetch pool: %w", err)
	}
	defer pool.Release()

	from := s.now().UTC()
	var wg sync.WaitGroup
	for _, sport := range sortedSports(grouped) {
		for _, league := range grouped[sport] {
			league := league
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				if err := s.pause(ctx); err != nil {
					return
				}
				if err := s.FetchLeague(ctx, league, from); err != nil {
					s.stats.RecordFailure()
					s.logger.ErrorContext(ctx, "league fetch failed",
						"sport", league.Sport,
						"league_id", league.ID,
						"league", league.Name,
						"error", err,
					)
				}
			})
			if submitErr != nil {
				wg.Done()
				s.stats.RecordFailure()
			}
		}
	}
	wg.Wait()

	return ctx.Err()
}

// FetchLeague pulls one league's schedule window starting at from and
// upserts every normalizable game.
func (s *FetchService) FetchLeague(ctx context.Context, league catalog.League, from time.Time) error {
	ctx, span := startSpan(ctx, "fetch.league")
	defer span.End()
	span.SetAttributes(
		attribute.String("sport", league.Sport),
		attribute.Int64("league_id", league.ID),
		attribute.Int("season", league.Season),
	)

	sport, ok := s.catalog.SportByID(league.Sport)
	if !ok {
		return crerr.Wrapf(ErrConfiguration, "unknown sport %q", league.Sport)
	}

	date := from.UTC().Format("2006-01-02")
	to := ""
	if s.windowDays > 1 {
		to = from.UTC().AddDate(0, 0, s.windowDays-1).Format("2006-01-02")
	}

	raws, err := s.client.Games(ctx, sport, league.ID, league.Season, date, to)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "fetched league slice",
		"sport", league.Sport,
		"league_id", league.ID,
		"date", date,
		"to", to,
		"games", len(raws),
	)

	for _, raw := range raws {
		item, err := s.normalizer.Game(ctx, league, raw)
		if err != nil {
			s.stats.RecordSkipped()
			continue
		}

		inserted, err := s.repo.Upsert(ctx, item)
		if err != nil {
			// A failed write loses one game, not the whole slice.
			s.stats.RecordFailure()
			s.logger.ErrorContext(ctx, "game upsert failed",
				"sport", league.Sport,
				"league_id", league.ID,
				"external_id", item.ExternalID,
				"error", err,
			)
			continue
		}
		s.stats.RecordGame(inserted)
	}

	return nil
}

// syncUnit identifies one provider query needed to refresh a set of
// tracked games.
type syncUnit struct {
	sport    string
	leagueID int64
	season   int
	date     string
}

// SyncGames re-fetches the provider slices covering the given external
// ids and upserts the fresh rows. Games without a stored start time
// fall back to today's slice.
func (s *FetchService) SyncGames(ctx context.Context, ids map[string]struct{}) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, span := startSpan(ctx, "fetch.sync")
	defer span.End()
	span.SetAttributes(attribute.Int("tracked", len(ids)))

	keys := make([]string, 0, len(ids))
	for id := range ids {
		keys = append(keys, id)
	}
	sort.Strings(keys)

	rows, err := s.repo.ListByExternalIDs(ctx, keys)
	if err != nil {
		return err
	}

	units := make(map[syncUnit]catalog.League)
	for _, row := range rows {
		date := s.now().UTC().Format("2006-01-02")
		if !row.StartTime.IsZero() {
			date = row.StartTime.UTC().Format("2006-01-02")
		}
		unit := syncUnit{
			sport:    row.Sport,
			leagueID: row.LeagueID,
			season:   row.Season,
			date:     date,
		}
		units[unit] = catalog.League{
			ID:     row.LeagueID,
			Name:   row.LeagueName,
			Season: row.Season,
			Sport:  row.Sport,
		}
	}

	for unit, league := range units {
		if err := s.syncUnit(ctx, unit, league, ids); err != nil {
			s.logger.ErrorContext(ctx, "live sync unit failed",
				"sport", unit.sport,
				"league_id", unit.leagueID,
				"date", unit.date,
				"error", err,
			)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return nil
}

func (s *FetchService) syncUnit(ctx context.Context, unit syncUnit, league catalog.League, tracked map[string]struct{}) error {
	sport, ok := s.catalog.SportByID(unit.sport)
	if !ok {
		return crerr.Wrapf(ErrConfiguration, "unknown sport %q", unit.sport)
	}

	raws, err := s.client.Games(ctx, sport, unit.leagueID, unit.season, unit.date, "")
	if err != nil {
		return err
	}

	for _, raw := range raws {
		item, err := s.normalizer.Game(ctx, league, raw)
		if err != nil {
			continue
		}
		if _, ok := tracked[item.ExternalID]; !ok {
			continue
		}
		if _, err := s.repo.Upsert(ctx, item); err != nil {
			return err
		}
	}

	return nil
}

// pause sleeps a jittered interval between provider calls so bursts
// from the worker pool stay polite.
func (s *FetchService) pause(ctx context.Context) error {
	if s.pauseMax <= 0 || s.pauseMax < s.pauseMin {
		return nil
	}

	delay := s.pauseMin
	if spread := s.pauseMax - s.pauseMin; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}
	if delay <= 0 {
		return nil
	}

	return s.sleep(ctx, delay)
}

func sortedSports(grouped map[string][]catalog.League) []string {
	out := make([]string, 0, len(grouped))
	for sport := range grouped {
		out = append(out, sport)
	}
	sort.Strings(out)
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/GHILLIExSTEW/sportfeed/external/provider"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/catalog"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/cache"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/logging"
)

const (
	ModeMapped = "mapped"
	ModeFull   = "full"
)

// LeagueLister is the provider surface discovery needs.
type LeagueLister interface {
	Leagues(ctx context.Context, sport catalog.Sport, season int) ([]provider.League, error)
}

// Service resolves the set of leagues to ingest on each refresh run.
// Mapped mode builds the set from the curated configuration without any
// provider calls; full mode enumerates every league the provider
// advertises for each configured sport. Both modes return the same
// League shape.
type Service struct {
	mode       string
	catalog    catalog.Config
	client     LeagueLister
	store      *cache.Store
	logger     *logging.Logger
	sportPause time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

type Config struct {
	Mode       string
	Catalog    catalog.Config
	Client     LeagueLister
	CacheTTL   time.Duration
	Logger     *logging.Logger
	SportPause time.Duration
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Mode != ModeMapped && cfg.Mode != ModeFull {
		return nil, fmt.Errorf("invalid discovery mode %q", cfg.Mode)
	}
	if cfg.Mode == ModeFull && cfg.Client == nil {
		return nil, fmt.Errorf("discovery client is required in full mode")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Service{
		mode:       cfg.Mode,
		catalog:    cfg.Catalog,
		client:     cfg.Client,
		store:      cache.NewStore(cfg.CacheTTL),
		logger:     logger,
		sportPause: cfg.SportPause,
		now:        time.Now,
		sleep:      sleepContext,
	}, nil
}

// Leagues returns the leagues to ingest, grouped by sport. Results are
// cached so scheduler ticks inside the TTL reuse one provider pass.
func (s *Service) Leagues(ctx context.Context) (map[string][]catalog.League, error) {
	value, err := s.store.GetOrLoad(ctx, "leagues:"+s.mode, func(ctx context.Context) (any, error) {
		if s.mode == ModeFull {
			return s.discoverFull(ctx)
		}
		return s.discoverMapped(ctx)
	})
	if err != nil {
		return nil, err
	}

	leagues, ok := value.(map[string][]catalog.League)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value %T", value)
	}
	return leagues, nil
}

func (s *Service) discoverMapped(ctx context.Context) (map[string][]catalog.League, error) {
	now := s.now()
	out := make(map[string][]catalog.League)
	for _, entry := range s.catalog.Leagues() {
		if _, ok := s.catalog.SportByID(entry.Sport); !ok {
			s.logger.WarnContext(ctx, "mapped league references unknown sport",
				"league_key", entry.Key,
				"sport", entry.Sport,
			)
			continue
		}
		league := entry.League(now)
		out[league.Sport] = append(out[league.Sport], league)
	}

	sortLeagues(out)
	return out, nil
}

func (s *Service) discoverFull(ctx context.Context) (map[string][]catalog.League, error) {
	now := s.now()
	season := now.UTC().Year()
	sports := s.catalog.Sports()

	out := make(map[string][]catalog.League, len(sports))
	for i, sport := range sports {
		if i > 0 && s.sportPause > 0 {
			if err := s.sleep(ctx, s.sportPause); err != nil {
				return nil, err
			}
		}

		found, err := s.client.Leagues(ctx, sport, season)
		if err != nil {
			// One unreachable sport must not sink the whole run.
			s.logger.ErrorContext(ctx, "league discovery failed for sport",
				"sport", sport.ID,
				"error", err,
			)
			continue
		}

		leagues := make([]catalog.League, 0, len(found))
		for _, item := range found {
			league := catalog.League{
				ID:      item.ID,
				Key:     item.Name,
				Name:    item.Name,
				Country: item.Country,
				Season:  season,
				Sport:   sport.ID,
			}
			if err := league.Validate(); err != nil {
				continue
			}
			leagues = append(leagues, league)
		}
		if len(leagues) > 0 {
			out[sport.ID] = leagues
		}

		s.logger.InfoContext(ctx, "discovered leagues",
			"sport", sport.ID,
			"season", season,
			"count", len(leagues),
		)
	}

	sortLeagues(out)
	return out, nil
}

// Invalidate drops the cached league set so the next call re-discovers.
func (s *Service) Invalidate(ctx context.Context) {
	s.store.Delete(ctx, "leagues:"+s.mode)
}

func sortLeagues(grouped map[string][]catalog.League) {
	for _, leagues := range grouped {
		sort.SliceStable(leagues, func(i, j int) bool { return leagues[i].ID < leagues[j].ID })
	}
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

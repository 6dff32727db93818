package usecase

import (
	"context"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GHILLIExSTEW/sportfeed/external/provider"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/catalog"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/game"
	"github.com/GHILLIExSTEW/sportfeed/internal/infrastructure/repository/memory"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/logging"
)

type stubLeagueSource struct {
	grouped     map[string][]catalog.League
	err         error
	invalidated int
}

func (s *stubLeagueSource) Leagues(context.Context) (map[string][]catalog.League, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.grouped, nil
}

func (s *stubLeagueSource) Invalidate(context.Context) {
	s.invalidated++
}

func newScheduler(t *testing.T, fetcher *stubFetcher, repo game.Repository, source LeagueSource, wagers ActiveWagerSource) *Scheduler {
	t.Helper()

	svc := newFetchService(t, fetcher, repo)
	scheduler, err := NewScheduler(SchedulerConfig{
		Fetch:     svc,
		Discovery: source,
		Repo:      repo,
		Wagers:    wagers,
		Logger:    logging.NewNop(),
		RunOnce:   true,
	})
	require.NoError(t, err)
	scheduler.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return scheduler
}

func TestRunFullRefreshRebuildsSchedule(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewGameRepository()

	// A leftover row from the previous run disappears with the clean
	// slate rebuild.
	_, err := repo.Upsert(ctx, game.Game{
		ExternalID: "stale", Sport: "basketball", LeagueID: 12, Season: 2025,
		StartTime: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Status: game.StatusFinished,
	})
	require.NoError(t, err)

	fetcher := &stubFetcher{byLeague: map[int64][]provider.RawGame{
		12: {
			rawFromJSON(t, `{"id":101,"date":"2025-06-02T19:00:00+00:00","status":{"short":"NS"}}`),
			rawFromJSON(t, `{"id":102,"date":"2025-06-03T19:00:00+00:00","status":{"short":"NS"}}`),
		},
	}}
	source := &stubLeagueSource{grouped: map[string][]catalog.League{
		"basketball": {{ID: 12, Name: "NBA", Season: 2025, Sport: "basketball"}},
	}}

	scheduler := newScheduler(t, fetcher, repo, source, nil)

	run, err := scheduler.RunFullRefresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, source.invalidated)
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, 1, run.Sports)
	assert.Equal(t, 1, run.Leagues)
	assert.Equal(t, 2, run.GamesWritten)
	assert.Equal(t, 1, run.Pruned)
	assert.Equal(t, 2, repo.Len())

	got, err := repo.ListByExternalIDs(ctx, []string{"stale"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRunFullRefreshFailsWhenDiscoveryFails(t *testing.T) {
	repo := memory.NewGameRepository()
	fetcher := &stubFetcher{}
	source := &stubLeagueSource{err: crerr.New("provider down")}

	scheduler := newScheduler(t, fetcher, repo, source, nil)

	_, err := scheduler.RunFullRefresh(context.Background())
	require.Error(t, err)
	assert.True(t, crerr.Is(err, ErrRefreshFailed))
	assert.False(t, Fatal(err), "a failed refresh must not kill the process")
}

func TestRunOnceModePerformsSingleRefresh(t *testing.T) {
	repo := memory.NewGameRepository()
	fetcher := &stubFetcher{byLeague: map[int64][]provider.RawGame{
		12: {rawFromJSON(t, `{"id":101,"date":"2025-06-02T19:00:00+00:00"}`)},
	}}
	source := &stubLeagueSource{grouped: map[string][]catalog.League{
		"basketball": {{ID: 12, Name: "NBA", Season: 2025, Sport: "basketball"}},
	}}

	scheduler := newScheduler(t, fetcher, repo, source, nil)

	require.NoError(t, scheduler.Run(context.Background()))
	assert.Equal(t, 1, repo.Len())
	assert.Len(t, fetcher.calls, 1)
}

func TestWageredGamesAreExemptFromPruning(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewGameRepository()

	wagered := game.Game{
		ExternalID: "wagered", Sport: "basketball", LeagueID: 12, LeagueName: "NBA",
		Season: 2025, StartTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Status: game.StatusLive,
	}
	_, err := repo.Upsert(ctx, wagered)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, game.Game{
		ExternalID: "old", Sport: "basketball", LeagueID: 12, Season: 2025,
		StartTime: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), Status: game.StatusScheduled,
	})
	require.NoError(t, err)

	removed, err := repo.PrunePastAndFinished(ctx, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), map[string]struct{}{"wagered": {}})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := repo.ListByExternalIDs(ctx, []string{"wagered"})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GHILLIExSTEW/sportfeed/external/provider"
	"github.com/GHILLIExSTEW/sportfeed/internal/domain/catalog"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/logging"
)

type stubLister struct {
	calls    int
	bySports map[string][]provider.League
	err      error
}

func (s *stubLister) Leagues(_ context.Context, sport catalog.Sport, _ int) ([]provider.League, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.bySports[sport.ID], nil
}

func testCatalog() catalog.Config {
	return catalog.NewConfig(
		[]catalog.Sport{
			{ID: "basketball", BaseURL: "https://v1.basketball.api-sports.io"},
			{ID: "baseball", BaseURL: "https://v1.baseball.api-sports.io"},
		},
		[]catalog.LeagueConfig{
			{
				Key:         "MLB",
				Sport:       "baseball",
				LeagueID:    1,
				Name:        "Major League Baseball",
				SeasonStart: time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC),
				SeasonEnd:   time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC),
			},
			{
				Key:         "NBA",
				Sport:       "basketball",
				LeagueID:    12,
				Name:        "NBA",
				SeasonStart: time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC),
				SeasonEnd:   time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC),
			},
		},
	)
}

func TestMappedModeDerivesSeasonsWithoutProviderCalls(t *testing.T) {
	lister := &stubLister{}
	svc, err := NewService(Config{
		Mode:    ModeMapped,
		Catalog: testCatalog(),
		Client:  lister,
		Logger:  logging.NewNop(),
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	leagues, err := svc.Leagues(context.Background())
	require.NoError(t, err)

	assert.Zero(t, lister.calls)
	require.Len(t, leagues["baseball"], 1)
	require.Len(t, leagues["basketball"], 1)

	mlb := leagues["baseball"][0]
	assert.Equal(t, int64(1), mlb.ID)
	assert.Equal(t, "Major League Baseball", mlb.Name)
	assert.Equal(t, 2025, mlb.Season)

	nba := leagues["basketball"][0]
	assert.Equal(t, int64(12), nba.ID)
	assert.Equal(t, 2024, nba.Season)
}

func TestMappedModeSeasonBeforeWindow(t *testing.T) {
	svc, err := NewService(Config{Mode: ModeMapped, Catalog: testCatalog(), Logger: logging.NewNop()})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC) }

	leagues, err := svc.Leagues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2024, leagues["baseball"][0].Season)
}

func TestFullModeEnumeratesEverySport(t *testing.T) {
	lister := &stubLister{bySports: map[string][]provider.League{
		"basketball": {{ID: 12, Name: "NBA", Country: "USA"}},
		"baseball":   {{ID: 1, Name: "MLB", Country: "USA"}, {ID: 2, Name: "NPB", Country: "Japan"}},
	}}
	svc, err := NewService(Config{
		Mode:    ModeFull,
		Catalog: testCatalog(),
		Client:  lister,
		Logger:  logging.NewNop(),
	})
	require.NoError(t, err)

	leagues, err := svc.Leagues(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, lister.calls)
	assert.Len(t, leagues["baseball"], 2)
	assert.Len(t, leagues["basketball"], 1)
	assert.Equal(t, "Japan", leagues["baseball"][1].Country)
}

func TestLeaguesAreCachedUntilInvalidated(t *testing.T) {
	lister := &stubLister{bySports: map[string][]provider.League{
		"basketball": {{ID: 12, Name: "NBA"}},
	}}
	svc, err := NewService(Config{
		Mode:     ModeFull,
		Catalog:  testCatalog(),
		Client:   lister,
		CacheTTL: time.Hour,
		Logger:   logging.NewNop(),
	})
	require.NoError(t, err)

	_, err = svc.Leagues(context.Background())
	require.NoError(t, err)
	_, err = svc.Leagues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls)

	svc.Invalidate(context.Background())
	_, err = svc.Leagues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, lister.calls)
}

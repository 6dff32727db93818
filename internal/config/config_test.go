package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PROVIDER_API_KEY", "test-key")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LEAGUE_MAP", "baseball|MLB|1|2025-03-27|2025-09-28|Major League Baseball")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.AppEnv)
	assert.Equal(t, 60, cfg.CallsPerMinute)
	assert.Equal(t, 3, cfg.ProviderMaxRetries)
	assert.Equal(t, 5*time.Second, cfg.ProviderRetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, time.Hour, cfg.FullRefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.LiveSyncInterval)
	assert.Equal(t, 7, cfg.DateWindowDays)
	assert.Equal(t, DiscoveryModeMapped, cfg.DiscoveryMode)
	assert.False(t, cfg.RunOnce)
	assert.NotEmpty(t, cfg.DiscoverySports)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PROVIDER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROVIDER_API_KEY")
}

func TestLoadRequiresDBURLForPostgres(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL")
}

func TestLoadParsesLeagueMap(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LEAGUE_MAP", "baseball|MLB|1|2025-03-27|2025-09-28|Major League Baseball, basketball|NBA|12|2024-10-22|2025-06-22")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Leagues, 2)

	mlb := cfg.Leagues[0]
	assert.Equal(t, "MLB", mlb.Key)
	assert.Equal(t, "baseball", mlb.Sport)
	assert.Equal(t, int64(1), mlb.LeagueID)
	assert.Equal(t, "Major League Baseball", mlb.Name)
	assert.Equal(t, time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC), mlb.SeasonStart)

	nba := cfg.Leagues[1]
	assert.Equal(t, "NBA", nba.Name, "display name defaults to the key")
}

func TestLoadRejectsInvalidLeagueMap(t *testing.T) {
	cases := map[string]string{
		"too few fields":     "baseball|MLB|1|2025-03-27",
		"bad league id":      "baseball|MLB|abc|2025-03-27|2025-09-28",
		"bad date":           "baseball|MLB|1|soon|2025-09-28",
		"end before start":   "baseball|MLB|1|2025-09-28|2025-03-27",
		"missing league key": "baseball||1|2025-03-27|2025-09-28",
	}
	for name, entry := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("LEAGUE_MAP", entry)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadRequiresLeagueMapInMappedMode(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LEAGUE_MAP", "")
	t.Setenv("DISCOVERY_MODE", "mapped")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("DISCOVERY_MODE", "full")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Leagues)
}

func TestCatalogBuildsSportsFromTemplate(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DISCOVERY_SPORTS", "basketball,football")

	cfg, err := Load()
	require.NoError(t, err)

	leagueCatalog := cfg.Catalog()
	basketball, ok := leagueCatalog.SportByID("basketball")
	require.True(t, ok)
	assert.Equal(t, "https://v1.basketball.api-sports.io", basketball.BaseURL)
	assert.Equal(t, "v1.basketball.api-sports.io", basketball.Host())
	assert.False(t, basketball.UsesFixtures)

	football, ok := leagueCatalog.SportByID("football")
	require.True(t, ok)
	assert.True(t, football.UsesFixtures)
}

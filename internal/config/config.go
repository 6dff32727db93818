package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/GHILLIExSTEW/sportfeed/internal/domain/catalog"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	DiscoveryModeMapped = "mapped"
	DiscoveryModeFull   = "full"
)

// Config stores runtime configuration for the ingestion service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	StoreDriver             string
	DBURL                   string
	DBDisablePreparedBinary bool

	ProviderAPIKey             string
	ProviderBaseURLTemplate    string
	ProviderTimeout            time.Duration
	ProviderMaxRetries         int
	ProviderRetryBaseDelay     time.Duration
	ProviderRetryAfterDefault  time.Duration
	ProviderCircuitEnabled     bool
	ProviderCircuitFailures    int
	ProviderCircuitOpenTimeout time.Duration

	CallsPerMinute int

	DiscoveryMode     string
	DiscoveryCacheTTL time.Duration
	DiscoverySports   []string
	Leagues           []catalog.LeagueConfig

	DateWindowDays      int
	FetchWorkers        int
	FetchPauseMin       time.Duration
	FetchPauseMax       time.Duration
	SportPause          time.Duration
	FullRefreshInterval time.Duration
	LiveSyncInterval    time.Duration
	RunOnce             bool

	UptraceEnabled         bool
	UptraceDSN             string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	storeDriver := strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", StoreDriverPostgres)))
	if storeDriver != StoreDriverPostgres && storeDriver != StoreDriverMemory {
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q: valid values are %s, %s", storeDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storeDriver == StoreDriverPostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORE_DRIVER=postgres")
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	apiKey := strings.TrimSpace(getEnv("PROVIDER_API_KEY", ""))
	if apiKey == "" {
		return Config{}, fmt.Errorf("PROVIDER_API_KEY is required")
	}

	providerTimeout, err := getEnvAsDuration("PROVIDER_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	maxRetries, err := getEnvAsInt("PROVIDER_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROVIDER_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return Config{}, fmt.Errorf("PROVIDER_MAX_RETRIES must be >= 0")
	}
	retryBaseDelay, err := getEnvAsDuration("PROVIDER_RETRY_BASE_DELAY", "5s")
	if err != nil {
		return Config{}, err
	}
	retryAfterDefault, err := getEnvAsDuration("PROVIDER_RETRY_AFTER_DEFAULT", "60s")
	if err != nil {
		return Config{}, err
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("PROVIDER_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROVIDER_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailures, err := getEnvAsInt("PROVIDER_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROVIDER_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailures < 1 {
		return Config{}, fmt.Errorf("PROVIDER_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	circuitOpenTimeout, err := getEnvAsDuration("PROVIDER_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	callsPerMinute, err := getEnvAsInt("PROVIDER_CALLS_PER_MINUTE", 60)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROVIDER_CALLS_PER_MINUTE: %w", err)
	}
	if callsPerMinute < 1 {
		return Config{}, fmt.Errorf("PROVIDER_CALLS_PER_MINUTE must be >= 1")
	}

	discoveryMode := strings.ToLower(strings.TrimSpace(getEnv("DISCOVERY_MODE", DiscoveryModeMapped)))
	if discoveryMode != DiscoveryModeMapped && discoveryMode != DiscoveryModeFull {
		return Config{}, fmt.Errorf("invalid DISCOVERY_MODE %q: valid values are %s, %s", discoveryMode, DiscoveryModeMapped, DiscoveryModeFull)
	}
	discoveryCacheTTL, err := getEnvAsDuration("DISCOVERY_CACHE_TTL", "30m")
	if err != nil {
		return Config{}, err
	}

	leagues, err := parseLeagueMap(getEnv("LEAGUE_MAP", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUE_MAP: %w", err)
	}
	if discoveryMode == DiscoveryModeMapped && len(leagues) == 0 {
		return Config{}, fmt.Errorf("LEAGUE_MAP is required when DISCOVERY_MODE=mapped")
	}

	dateWindowDays, err := getEnvAsInt("FETCH_DATE_WINDOW_DAYS", 7)
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_DATE_WINDOW_DAYS: %w", err)
	}
	if dateWindowDays < 1 {
		return Config{}, fmt.Errorf("FETCH_DATE_WINDOW_DAYS must be >= 1")
	}
	fetchWorkers, err := getEnvAsInt("FETCH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_WORKERS: %w", err)
	}
	if fetchWorkers < 1 {
		return Config{}, fmt.Errorf("FETCH_WORKERS must be >= 1")
	}
	fetchPauseMin, err := getEnvAsDuration("FETCH_PAUSE_MIN", "500ms")
	if err != nil {
		return Config{}, err
	}
	fetchPauseMax, err := getEnvAsDuration("FETCH_PAUSE_MAX", "1200ms")
	if err != nil {
		return Config{}, err
	}
	if fetchPauseMax < fetchPauseMin {
		return Config{}, fmt.Errorf("FETCH_PAUSE_MAX must be >= FETCH_PAUSE_MIN")
	}
	sportPause, err := getEnvAsDuration("DISCOVERY_SPORT_PAUSE", "250ms")
	if err != nil {
		return Config{}, err
	}
	fullRefreshInterval, err := getEnvAsDuration("FULL_REFRESH_INTERVAL", "1h")
	if err != nil {
		return Config{}, err
	}
	liveSyncInterval, err := getEnvAsDuration("LIVE_SYNC_INTERVAL", "5s")
	if err != nil {
		return Config{}, err
	}
	runOnce, err := strconv.ParseBool(getEnv("RUN_ONCE", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RUN_ONCE: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "sportfeed-ingestor"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		StoreDriver:                storeDriver,
		DBURL:                      dbURL,
		DBDisablePreparedBinary:    dbDisablePreparedBinary,
		ProviderAPIKey:             apiKey,
		ProviderBaseURLTemplate:    strings.TrimSpace(getEnv("PROVIDER_BASE_URL_TEMPLATE", "https://v1.%s.api-sports.io")),
		ProviderTimeout:            providerTimeout,
		ProviderMaxRetries:         maxRetries,
		ProviderRetryBaseDelay:     retryBaseDelay,
		ProviderRetryAfterDefault:  retryAfterDefault,
		ProviderCircuitEnabled:     circuitEnabled,
		ProviderCircuitFailures:    circuitFailures,
		ProviderCircuitOpenTimeout: circuitOpenTimeout,
		CallsPerMinute:             callsPerMinute,
		DiscoveryMode:              discoveryMode,
		DiscoveryCacheTTL:          discoveryCacheTTL,
		DiscoverySports:            splitCSV(getEnv("DISCOVERY_SPORTS", defaultSportsCSV)),
		Leagues:                    leagues,
		DateWindowDays:             dateWindowDays,
		FetchWorkers:               fetchWorkers,
		FetchPauseMin:              fetchPauseMin,
		FetchPauseMax:              fetchPauseMax,
		SportPause:                 sportPause,
		FullRefreshInterval:        fullRefreshInterval,
		LiveSyncInterval:           liveSyncInterval,
		RunOnce:                    runOnce,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if len(cfg.DiscoverySports) == 0 {
		return Config{}, fmt.Errorf("DISCOVERY_SPORTS cannot be empty")
	}

	return cfg, nil
}

const defaultSportsCSV = "basketball,football,baseball,hockey,american-football,rugby,volleyball,handball"

// sports whose provider schema uses "fixtures" terminology.
var fixtureSports = map[string]struct{}{
	"football": {},
}

// Catalog builds the immutable sport/league configuration from the
// loaded settings.
func (c Config) Catalog() catalog.Config {
	sports := make([]catalog.Sport, 0, len(c.DiscoverySports))
	for _, id := range c.DiscoverySports {
		_, usesFixtures := fixtureSports[id]
		sports = append(sports, catalog.Sport{
			ID:           id,
			BaseURL:      fmt.Sprintf(c.ProviderBaseURLTemplate, id),
			UsesFixtures: usesFixtures,
		})
	}
	return catalog.NewConfig(sports, c.Leagues)
}

var leagueValidator = validator.New()

// parseLeagueMap reads comma-separated mapped-league entries of the
// form sport|KEY|league_id|season_start|season_end[|Display Name].
func parseLeagueMap(raw string) ([]catalog.LeagueConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make([]catalog.LeagueConfig, 0, 8)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		fields := strings.Split(item, "|")
		if len(fields) < 5 {
			return nil, fmt.Errorf("invalid entry %q, expected sport|key|id|start|end[|name]", item)
		}

		leagueID, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid league id in entry %q: %w", item, err)
		}
		start, err := time.Parse("2006-01-02", strings.TrimSpace(fields[3]))
		if err != nil {
			return nil, fmt.Errorf("invalid season start in entry %q: %w", item, err)
		}
		end, err := time.Parse("2006-01-02", strings.TrimSpace(fields[4]))
		if err != nil {
			return nil, fmt.Errorf("invalid season end in entry %q: %w", item, err)
		}

		entry := catalog.LeagueConfig{
			Key:         strings.TrimSpace(fields[1]),
			Sport:       strings.ToLower(strings.TrimSpace(fields[0])),
			LeagueID:    leagueID,
			Name:        strings.TrimSpace(fields[1]),
			SeasonStart: start.UTC(),
			SeasonEnd:   end.UTC(),
		}
		if len(fields) >= 6 && strings.TrimSpace(fields[5]) != "" {
			entry.Name = strings.TrimSpace(fields[5])
		}
		if err := leagueValidator.Struct(entry); err != nil {
			return nil, fmt.Errorf("invalid entry %q: %w", item, err)
		}

		out = append(out, entry)
	}

	return out, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.ToLower(strings.TrimSpace(part))
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

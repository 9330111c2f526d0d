package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config stores runtime configuration for the service and the sync job.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	StorageDriver           string
	DBURL                   string
	DBDisablePreparedBinary bool
	DBMaxOpenConns          int
	CacheEnabled            bool
	CacheTTL                time.Duration

	InternalJobToken string

	Season                     string
	Competition                string
	SeasonStart                time.Time
	MatchweekMax               int
	MatchweekClusterDays       int
	MatchweekCompleteThreshold int
	StatusFinishGrace          time.Duration
	KickoffTimeZone            string
	ClubAliasFile              string

	SourcePriority   []string
	SourceTimeout    time.Duration
	SourceMinRecords int
	SourceFetchMode  string
	SourceWorkers    int
	SyncCycleTimeout time.Duration

	FetchUserAgent string
	FetchTimeout   time.Duration
	FetchRetries   int

	SportMonks   SportMonksConfig
	FootballData FootballDataConfig
	FixturePage  FixturePageConfig

	UptraceEnabled         bool
	UptraceDSN             string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

type CircuitConfig struct {
	Enabled        bool
	FailureCount   int
	OpenTimeout    time.Duration
	HalfOpenMaxReq int
}

type SportMonksConfig struct {
	Enabled    bool
	BaseURL    string
	Token      string
	SeasonID   int64
	Timeout    time.Duration
	MaxRetries int
	Circuit    CircuitConfig
}

type FootballDataConfig struct {
	Enabled         bool
	BaseURL         string
	SeasonCode      string
	Division        string
	IncludeUpcoming bool
}

type FixturePageConfig struct {
	Enabled            bool
	ID                 string
	URL                string
	Layout             string
	TimeZone           string
	RowSelector        string
	DateHeaderSelector string
	DateSelector       string
	TimeSelector       string
	HomeSelector       string
	AwaySelector       string
	ScoreSelector      string
	StatusSelector     string
	RoundSelector      string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:           appEnv,
		ServiceName:      strings.TrimSpace(getEnv("APP_SERVICE_NAME", "fixture-reconciler")),
		ServiceVersion:   strings.TrimSpace(getEnv("APP_SERVICE_VERSION", "dev")),
		HTTPAddr:         strings.TrimSpace(getEnv("APP_HTTP_ADDR", ":8080")),
		LogLevel:         logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		DBURL:            strings.TrimSpace(getEnv("DB_URL", "")),
		Season:           strings.TrimSpace(getEnv("SEASON", "")),
		Competition:      strings.TrimSpace(getEnv("COMPETITION", "Premier League")),
		KickoffTimeZone:  strings.TrimSpace(getEnv("KICKOFF_TIMEZONE", "Europe/London")),
		ClubAliasFile:    strings.TrimSpace(getEnv("CLUB_ALIAS_FILE", "")),
		SourceFetchMode:  strings.ToLower(strings.TrimSpace(getEnv("SOURCE_FETCH_MODE", "parallel"))),
		FetchUserAgent:   strings.TrimSpace(getEnv("FETCH_USER_AGENT", "")),
		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}

	if cfg.ReadTimeout, err = parsePositiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = parsePositiveDuration("APP_WRITE_TIMEOUT", "60s"); err != nil {
		return Config{}, err
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", StoragePostgres)))
	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s", cfg.StorageDriver, StoragePostgres, StorageMemory)
	}
	if cfg.DBDisablePreparedBinary, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true")); err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	if cfg.DBMaxOpenConns, err = parsePositiveInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.CacheEnabled, err = strconv.ParseBool(getEnv("CACHE_ENABLED", "true")); err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	if cfg.CacheTTL, err = parsePositiveDuration("CACHE_TTL", "30s"); err != nil {
		return Config{}, err
	}

	if cfg.Season == "" {
		return Config{}, fmt.Errorf("SEASON is required")
	}
	if raw := strings.TrimSpace(getEnv("SEASON_START", "")); raw != "" {
		cfg.SeasonStart, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SEASON_START: %w", err)
		}
	}
	if cfg.MatchweekMax, err = parsePositiveInt("MATCHWEEK_MAX", 38); err != nil {
		return Config{}, err
	}
	if cfg.MatchweekClusterDays, err = parsePositiveInt("MATCHWEEK_CLUSTER_DAYS", 3); err != nil {
		return Config{}, err
	}
	if cfg.MatchweekCompleteThreshold, err = parsePositiveInt("MATCHWEEK_COMPLETE_THRESHOLD", 8); err != nil {
		return Config{}, err
	}
	if cfg.StatusFinishGrace, err = parsePositiveDuration("STATUS_FINISH_GRACE", "3h"); err != nil {
		return Config{}, err
	}
	if _, err := time.LoadLocation(cfg.KickoffTimeZone); err != nil {
		return Config{}, fmt.Errorf("parse KICKOFF_TIMEZONE: %w", err)
	}

	cfg.SourcePriority = splitCSV(getEnv("SOURCE_PRIORITY", "sportmonks,football-data,fixture-page"))
	if len(cfg.SourcePriority) == 0 {
		return Config{}, fmt.Errorf("SOURCE_PRIORITY cannot be empty")
	}
	if cfg.SourceTimeout, err = parsePositiveDuration("SOURCE_TIMEOUT", "45s"); err != nil {
		return Config{}, err
	}
	if cfg.SourceMinRecords, err = parsePositiveInt("SOURCE_MIN_RECORDS", 10); err != nil {
		return Config{}, err
	}
	if cfg.SourceWorkers, err = parsePositiveInt("SOURCE_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.SyncCycleTimeout, err = parsePositiveDuration("SYNC_CYCLE_TIMEOUT", "5m"); err != nil {
		return Config{}, err
	}

	if cfg.FetchTimeout, err = parsePositiveDuration("FETCH_TIMEOUT", "20s"); err != nil {
		return Config{}, err
	}
	if cfg.FetchRetries, err = getEnvAsInt("FETCH_RETRIES", 2); err != nil {
		return Config{}, fmt.Errorf("parse FETCH_RETRIES: %w", err)
	}
	if cfg.FetchRetries < 0 {
		return Config{}, fmt.Errorf("FETCH_RETRIES must be >= 0")
	}

	if cfg.SportMonks, err = loadSportMonks(); err != nil {
		return Config{}, err
	}
	if cfg.FootballData, err = loadFootballData(); err != nil {
		return Config{}, err
	}
	if cfg.FixturePage, err = loadFixturePage(cfg.KickoffTimeZone); err != nil {
		return Config{}, err
	}

	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	if cfg.PyroscopeUploadRate, err = parsePositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadSportMonks() (SportMonksConfig, error) {
	var (
		out SportMonksConfig
		err error
	)
	if out.Enabled, err = strconv.ParseBool(getEnv("SPORTMONKS_ENABLED", "false")); err != nil {
		return out, fmt.Errorf("parse SPORTMONKS_ENABLED: %w", err)
	}
	out.BaseURL = strings.TrimSpace(getEnv("SPORTMONKS_BASE_URL", "https://api.sportmonks.com/v3/football"))
	out.Token = strings.TrimSpace(getEnv("SPORTMONKS_TOKEN", ""))
	if out.Timeout, err = parsePositiveDuration("SPORTMONKS_TIMEOUT", "20s"); err != nil {
		return out, err
	}
	if out.MaxRetries, err = getEnvAsInt("SPORTMONKS_MAX_RETRIES", 2); err != nil {
		return out, fmt.Errorf("parse SPORTMONKS_MAX_RETRIES: %w", err)
	}
	if out.MaxRetries < 0 {
		return out, fmt.Errorf("SPORTMONKS_MAX_RETRIES must be >= 0")
	}
	seasonID, err := strconv.ParseInt(getEnv("SPORTMONKS_SEASON_ID", "0"), 10, 64)
	if err != nil {
		return out, fmt.Errorf("parse SPORTMONKS_SEASON_ID: %w", err)
	}
	out.SeasonID = seasonID
	if out.Circuit, err = loadCircuit("SPORTMONKS"); err != nil {
		return out, err
	}

	if out.Enabled {
		if out.Token == "" {
			return out, fmt.Errorf("SPORTMONKS_TOKEN is required when SPORTMONKS_ENABLED=true")
		}
		if out.SeasonID <= 0 {
			return out, fmt.Errorf("SPORTMONKS_SEASON_ID must be > 0 when SPORTMONKS_ENABLED=true")
		}
	}
	return out, nil
}

func loadFootballData() (FootballDataConfig, error) {
	var (
		out FootballDataConfig
		err error
	)
	if out.Enabled, err = strconv.ParseBool(getEnv("FOOTBALLDATA_ENABLED", "true")); err != nil {
		return out, fmt.Errorf("parse FOOTBALLDATA_ENABLED: %w", err)
	}
	if out.IncludeUpcoming, err = strconv.ParseBool(getEnv("FOOTBALLDATA_INCLUDE_UPCOMING", "true")); err != nil {
		return out, fmt.Errorf("parse FOOTBALLDATA_INCLUDE_UPCOMING: %w", err)
	}
	out.BaseURL = strings.TrimSpace(getEnv("FOOTBALLDATA_BASE_URL", "https://www.football-data.co.uk"))
	out.SeasonCode = strings.TrimSpace(getEnv("FOOTBALLDATA_SEASON_CODE", ""))
	out.Division = strings.TrimSpace(getEnv("FOOTBALLDATA_DIVISION", "E0"))
	if out.Enabled && len(out.SeasonCode) != 4 {
		return out, fmt.Errorf("FOOTBALLDATA_SEASON_CODE must be four digits such as 2526 when FOOTBALLDATA_ENABLED=true")
	}
	return out, nil
}

func loadFixturePage(defaultTimeZone string) (FixturePageConfig, error) {
	var (
		out FixturePageConfig
		err error
	)
	if out.Enabled, err = strconv.ParseBool(getEnv("FIXTUREPAGE_ENABLED", "false")); err != nil {
		return out, fmt.Errorf("parse FIXTUREPAGE_ENABLED: %w", err)
	}
	out.ID = strings.TrimSpace(getEnv("FIXTUREPAGE_ID", "fixture-page"))
	out.URL = strings.TrimSpace(getEnv("FIXTUREPAGE_URL", ""))
	out.Layout = strings.ToLower(strings.TrimSpace(getEnv("FIXTUREPAGE_LAYOUT", "table")))
	out.TimeZone = strings.TrimSpace(getEnv("FIXTUREPAGE_TIMEZONE", defaultTimeZone))
	out.RowSelector = strings.TrimSpace(getEnv("FIXTUREPAGE_ROW_SELECTOR", ""))
	out.DateHeaderSelector = strings.TrimSpace(getEnv("FIXTUREPAGE_DATE_HEADER_SELECTOR", ""))
	out.DateSelector = strings.TrimSpace(getEnv("FIXTUREPAGE_DATE_SELECTOR", ""))
	out.TimeSelector = strings.TrimSpace(getEnv("FIXTUREPAGE_TIME_SELECTOR", ""))
	out.HomeSelector = strings.TrimSpace(getEnv("FIXTUREPAGE_HOME_SELECTOR", ""))
	out.AwaySelector = strings.TrimSpace(getEnv("FIXTUREPAGE_AWAY_SELECTOR", ""))
	out.ScoreSelector = strings.TrimSpace(getEnv("FIXTUREPAGE_SCORE_SELECTOR", ""))
	out.StatusSelector = strings.TrimSpace(getEnv("FIXTUREPAGE_STATUS_SELECTOR", ""))
	out.RoundSelector = strings.TrimSpace(getEnv("FIXTUREPAGE_ROUND_SELECTOR", ""))

	if out.Enabled && out.URL == "" {
		return out, fmt.Errorf("FIXTUREPAGE_URL is required when FIXTUREPAGE_ENABLED=true")
	}
	switch out.Layout {
	case "table", "next_data":
	default:
		return out, fmt.Errorf("invalid FIXTUREPAGE_LAYOUT %q: valid values are table, next_data", out.Layout)
	}
	return out, nil
}

func loadCircuit(prefix string) (CircuitConfig, error) {
	var (
		out CircuitConfig
		err error
	)
	if out.Enabled, err = strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true")); err != nil {
		return out, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	if out.FailureCount, err = parsePositiveInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return out, err
	}
	if out.OpenTimeout, err = parsePositiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return out, err
	}
	if out.HalfOpenMaxReq, err = parsePositiveInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return out, err
	}
	return out, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	value, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
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

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		}
	}
	return ""
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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                        string
	ServiceName                   string
	ServiceVersion                string
	HTTPAddr                      string
	ReadTimeout                   time.Duration
	WriteTimeout                  time.Duration
	LogLevel                      logging.Level
	StoreBackend                  string
	DBURL                         string
	DBDisablePreparedBinary       bool
	CacheEnabled                  bool
	CacheTTL                      time.Duration
	CORSAllowedOrigins            []string
	IdentityBaseURL               string
	IdentityIntrospectPath        string
	IdentityAdminKey              string
	IdentityTimeout               time.Duration
	IdentityTokenCacheTTL         time.Duration
	IdentityCircuitEnabled        bool
	IdentityCircuitFailureCount   int
	IdentityCircuitOpenTimeout    time.Duration
	IdentityCircuitHalfOpenMaxReq int
	FantasyBudgetCap              int64
	FantasyRosterSize             int
	RaceResultMode                string
	ReconcileOnBoot               bool
	ReconcileInterval             time.Duration
	SweepWorkers                  int
	JoinCodeLength                int
	UptraceEnabled                bool
	UptraceDSN                    string
	UptraceLogsEnabled            bool
	PyroscopeEnabled              bool
	PyroscopeServerAddress        string
	PyroscopeAppName              string
	PyroscopeAuthToken            string
	PyroscopeBasicAuthUser        string
	PyroscopeBasicAuthPassword    string
	PyroscopeUploadRate           time.Duration
	PprofEnabled                  bool
	PprofAddr                     string
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	StoreMemory   = "memory"
	StorePostgres = "postgres"

	RaceModeCorrection = "correction"
	RaceModeAppend     = "append"
)

// LoadDotEnv populates the process environment from the given files, or
// .env when none are named. Missing files are ignored and variables that
// are already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}

	storeBackend := strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreMemory)))
	switch storeBackend {
	case StoreMemory, StorePostgres:
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q: valid values are %s, %s", storeBackend, StoreMemory, StorePostgres)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storeBackend == StorePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORE_BACKEND=%s", StorePostgres)
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := getEnvAsDuration("CACHE_TTL", "60s")
	if err != nil {
		return Config{}, err
	}

	identityTimeout, err := getEnvAsDuration("IDENTITY_TIMEOUT", "3s")
	if err != nil {
		return Config{}, err
	}
	identityTokenCacheTTL, err := time.ParseDuration(getEnv("IDENTITY_TOKEN_CACHE_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse IDENTITY_TOKEN_CACHE_TTL: %w", err)
	}
	if identityTokenCacheTTL < 0 {
		return Config{}, fmt.Errorf("IDENTITY_TOKEN_CACHE_TTL must be >= 0")
	}
	identityCircuitEnabled, err := strconv.ParseBool(getEnv("IDENTITY_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse IDENTITY_CIRCUIT_ENABLED: %w", err)
	}
	identityCircuitFailureCount, err := getEnvAsPositiveInt("IDENTITY_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	identityCircuitOpenTimeout, err := getEnvAsDuration("IDENTITY_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	identityCircuitHalfOpenMaxReq, err := getEnvAsPositiveInt("IDENTITY_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, err
	}

	budgetCap, err := strconv.ParseInt(strings.TrimSpace(getEnv("FANTASY_BUDGET_CAP", "100000000")), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse FANTASY_BUDGET_CAP: %w", err)
	}
	if budgetCap <= 0 {
		return Config{}, fmt.Errorf("FANTASY_BUDGET_CAP must be > 0")
	}
	rosterSize, err := getEnvAsPositiveInt("FANTASY_ROSTER_SIZE", 5)
	if err != nil {
		return Config{}, err
	}

	raceResultMode := strings.ToLower(strings.TrimSpace(getEnv("RACE_RESULT_MODE", RaceModeCorrection)))
	if raceResultMode != RaceModeCorrection && raceResultMode != RaceModeAppend {
		return Config{}, fmt.Errorf("invalid RACE_RESULT_MODE %q: valid values are %s, %s", raceResultMode, RaceModeCorrection, RaceModeAppend)
	}

	reconcileOnBoot, err := strconv.ParseBool(getEnv("RECONCILE_ON_BOOT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RECONCILE_ON_BOOT: %w", err)
	}
	reconcileInterval, err := time.ParseDuration(getEnv("RECONCILE_INTERVAL", "0s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RECONCILE_INTERVAL: %w", err)
	}
	if reconcileInterval < 0 {
		return Config{}, fmt.Errorf("RECONCILE_INTERVAL must be >= 0")
	}
	sweepWorkers, err := getEnvAsPositiveInt("SWEEP_WORKERS", 8)
	if err != nil {
		return Config{}, err
	}
	joinCodeLength, err := getEnvAsInt("JOIN_CODE_LENGTH", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse JOIN_CODE_LENGTH: %w", err)
	}
	if joinCodeLength < 6 || joinCodeLength > 32 {
		return Config{}, fmt.Errorf("JOIN_CODE_LENGTH must be between 6 and 32")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
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

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	cfg := Config{
		AppEnv:                        appEnv,
		ServiceName:                   getEnv("APP_SERVICE_NAME", "grid-fantasy-api"),
		ServiceVersion:                getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                      getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                   readTimeout,
		WriteTimeout:                  writeTimeout,
		LogLevel:                      parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		StoreBackend:                  storeBackend,
		DBURL:                         dbURL,
		DBDisablePreparedBinary:       dbDisablePreparedBinary,
		CacheEnabled:                  cacheEnabled,
		CacheTTL:                      cacheTTL,
		CORSAllowedOrigins:            splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		IdentityBaseURL:               strings.TrimSpace(getEnv("IDENTITY_BASE_URL", "http://localhost:8081")),
		IdentityIntrospectPath:        strings.TrimSpace(getEnv("IDENTITY_INTROSPECT_PATH", "/v1/auth/introspect")),
		IdentityAdminKey:              strings.TrimSpace(getEnv("IDENTITY_ADMIN_KEY", "")),
		IdentityTimeout:               identityTimeout,
		IdentityTokenCacheTTL:         identityTokenCacheTTL,
		IdentityCircuitEnabled:        identityCircuitEnabled,
		IdentityCircuitFailureCount:   identityCircuitFailureCount,
		IdentityCircuitOpenTimeout:    identityCircuitOpenTimeout,
		IdentityCircuitHalfOpenMaxReq: identityCircuitHalfOpenMaxReq,
		FantasyBudgetCap:              budgetCap,
		FantasyRosterSize:             rosterSize,
		RaceResultMode:                raceResultMode,
		ReconcileOnBoot:               reconcileOnBoot,
		ReconcileInterval:             reconcileInterval,
		SweepWorkers:                  sweepWorkers,
		JoinCodeLength:                joinCodeLength,
		UptraceEnabled:                uptraceEnabled,
		UptraceDSN:                    uptraceDSN,
		UptraceLogsEnabled:            uptraceLogsEnabled,
		PyroscopeEnabled:              pyroscopeEnabled,
		PyroscopeServerAddress:        pyroscopeServerAddress,
		PyroscopeAuthToken:            strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:        strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:    strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:           pyroscopeUploadRate,
		PprofEnabled:                  pprofEnabled,
		PprofAddr:                     pprofAddr,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
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

func getEnvAsPositiveInt(key string, fallback int) (int, error) {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out < 1 {
		return 0, fmt.Errorf("%s must be >= 1", key)
	}
	return out, nil
}

// getEnvAsDuration parses a strictly positive duration.
func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(strings.TrimSpace(getEnv(key, fallback)))
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

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
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

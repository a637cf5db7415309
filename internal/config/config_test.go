package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("RACE_RESULT_MODE", "")
	t.Setenv("FANTASY_BUDGET_CAP", "")
	t.Setenv("RECONCILE_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StoreBackend != StoreMemory {
		t.Fatalf("expected memory store by default, got %q", cfg.StoreBackend)
	}
	if cfg.RaceResultMode != RaceModeCorrection {
		t.Fatalf("expected correction mode by default, got %q", cfg.RaceResultMode)
	}
	if cfg.FantasyBudgetCap != 100_000_000 || cfg.FantasyRosterSize != 5 {
		t.Fatalf("unexpected fantasy rules: cap=%d size=%d", cfg.FantasyBudgetCap, cfg.FantasyRosterSize)
	}
	if !cfg.ReconcileOnBoot || cfg.ReconcileInterval != 0 {
		t.Fatalf("unexpected reconcile defaults: boot=%v interval=%s", cfg.ReconcileOnBoot, cfg.ReconcileInterval)
	}
	if cfg.JoinCodeLength != 8 || cfg.SweepWorkers != 8 {
		t.Fatalf("unexpected defaults: code=%d workers=%d", cfg.JoinCodeLength, cfg.SweepWorkers)
	}
	if cfg.IdentityIntrospectPath != "/v1/auth/introspect" || cfg.IdentityTimeout != 3*time.Second {
		t.Fatalf("unexpected identity defaults: %q %s", cfg.IdentityIntrospectPath, cfg.IdentityTimeout)
	}
}

func TestLoad_StoreBackendValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "mongo")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown STORE_BACKEND")
		}
	})

	t.Run("postgres requires db url", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		t.Setenv("DB_URL", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when STORE_BACKEND=postgres without DB_URL")
		}
	})

	t.Run("postgres with db url", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "Postgres")
		t.Setenv("DB_URL", "postgres://localhost:5432/grid?sslmode=disable")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StoreBackend != StorePostgres {
			t.Fatalf("unexpected store backend: %q", cfg.StoreBackend)
		}
	})
}

func TestLoad_DomainSettingsValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown race mode", key: "RACE_RESULT_MODE", value: "replace"},
		{name: "zero budget", key: "FANTASY_BUDGET_CAP", value: "0"},
		{name: "non numeric budget", key: "FANTASY_BUDGET_CAP", value: "lots"},
		{name: "negative reconcile interval", key: "RECONCILE_INTERVAL", value: "-1m"},
		{name: "zero sweep workers", key: "SWEEP_WORKERS", value: "0"},
		{name: "short join code", key: "JOIN_CODE_LENGTH", value: "4"},
		{name: "zero identity timeout", key: "IDENTITY_TIMEOUT", value: "0s"},
		{name: "zero circuit threshold", key: "IDENTITY_CIRCUIT_FAILURE_COUNT", value: "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_DomainSettingsParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvStage)
	t.Setenv("RACE_RESULT_MODE", " APPEND ")
	t.Setenv("FANTASY_BUDGET_CAP", "50000000")
	t.Setenv("RECONCILE_ON_BOOT", "false")
	t.Setenv("RECONCILE_INTERVAL", "10m")
	t.Setenv("SWEEP_WORKERS", "3")
	t.Setenv("JOIN_CODE_LENGTH", "10")
	t.Setenv("IDENTITY_TOKEN_CACHE_TTL", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RaceResultMode != RaceModeAppend {
		t.Fatalf("unexpected race mode: %q", cfg.RaceResultMode)
	}
	if cfg.FantasyBudgetCap != 50_000_000 {
		t.Fatalf("unexpected budget cap: %d", cfg.FantasyBudgetCap)
	}
	if cfg.ReconcileOnBoot || cfg.ReconcileInterval != 10*time.Minute {
		t.Fatalf("unexpected reconcile settings: boot=%v interval=%s", cfg.ReconcileOnBoot, cfg.ReconcileInterval)
	}
	if cfg.SweepWorkers != 3 || cfg.JoinCodeLength != 10 {
		t.Fatalf("unexpected workers/code length: %d/%d", cfg.SweepWorkers, cfg.JoinCodeLength)
	}
	if cfg.IdentityTokenCacheTTL != 0 {
		t.Fatalf("expected token cache disabled, got %s", cfg.IdentityTokenCacheTTL)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `x-other=1, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "grid-fantasy-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "grid-fantasy-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" || cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoadDotEnv_DoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GRID_DOTENV_PRESET=from-file\nGRID_DOTENV_FRESH=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("GRID_DOTENV_PRESET", "from-process")
	t.Setenv("GRID_DOTENV_FRESH", "")
	os.Unsetenv("GRID_DOTENV_FRESH")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("GRID_DOTENV_PRESET"); got != "from-process" {
		t.Fatalf("process env was overridden: %q", got)
	}
	if got := os.Getenv("GRID_DOTENV_FRESH"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}

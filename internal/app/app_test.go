package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/grid-fantasy/internal/config"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
)

func testConfig() config.Config {
	return config.Config{
		HTTPAddr:               ":0",
		ReadTimeout:            time.Second,
		WriteTimeout:           time.Second,
		StoreBackend:           config.StoreMemory,
		CacheEnabled:           true,
		CacheTTL:               time.Minute,
		IdentityBaseURL:        "http://127.0.0.1:1",
		IdentityIntrospectPath: "/introspect",
		IdentityTimeout:        time.Second,
		FantasyBudgetCap:       100_000_000,
		FantasyRosterSize:      5,
		RaceResultMode:         config.RaceModeCorrection,
		SweepWorkers:           2,
		JoinCodeLength:         8,
	}
}

func TestNew_MemoryBackendServesHealthz(t *testing.T) {
	a, err := New(testConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", rec.Code)
	}

	report, err := a.Reconciler.ReconcileAll(t.Context())
	if err != nil {
		t.Fatalf("reconcile empty store: %v", err)
	}
	if report.Constructors.Scanned != 0 || report.FantasyTeams.Scanned != 0 {
		t.Fatalf("expected empty reconcile, got %+v", report)
	}
}

func TestNew_RequiresAddr(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = " "
	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

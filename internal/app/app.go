package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/grid-fantasy/internal/config"
	"github.com/riskibarqy/grid-fantasy/internal/domain/fantasy"
	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
	"github.com/riskibarqy/grid-fantasy/internal/domain/user"
	"github.com/riskibarqy/grid-fantasy/internal/infrastructure/account/identity"
	cacherepo "github.com/riskibarqy/grid-fantasy/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/grid-fantasy/internal/infrastructure/repository/document"
	"github.com/riskibarqy/grid-fantasy/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/grid-fantasy/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/grid-fantasy/internal/platform/cache"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
	idgen "github.com/riskibarqy/grid-fantasy/internal/platform/id"
	"github.com/riskibarqy/grid-fantasy/internal/platform/keylock"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"github.com/riskibarqy/grid-fantasy/internal/platform/resilience"
	"github.com/riskibarqy/grid-fantasy/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// App is the assembled API process: the HTTP server plus the background
// reconcile loop that shares its services.
type App struct {
	Server     *http.Server
	Scheduler  *usecase.ReconcileScheduler
	Reconciler *usecase.PropagationService

	db *sqlx.DB
}

// Close releases the database pool when the postgres backend is in use.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	ids := idgen.NewUUIDGenerator()
	store, db, err := openDocumentStore(cfg, ids, logger)
	if err != nil {
		return nil, err
	}

	driverRepo := document.NewDriverRepository(store)
	constructorRepo := document.NewConstructorRepository(store)
	raceRepo := document.NewRaceRepository(store)
	fantasyRepo := document.NewFantasyTeamRepository(store)
	membershipRepo := document.NewMembershipRepository(store)

	var (
		leagueRepo league.Repository = document.NewLeagueRepository(store)
		userRepo   user.Repository   = document.NewUserRepository(store)
	)
	if cfg.CacheEnabled {
		leagueRepo = cacherepo.NewLeagueRepository(leagueRepo, basecache.NewStore(cfg.CacheTTL))
		userRepo = cacherepo.NewUserRepository(userRepo, basecache.NewStore(cfg.CacheTTL))
	}

	clock := clockwork.NewRealClock()
	locks := keylock.New()
	rules := fantasy.Rules{RosterSize: cfg.FantasyRosterSize, BudgetCap: cfg.FantasyBudgetCap}

	propagationSvc := usecase.NewPropagationService(driverRepo, constructorRepo, fantasyRepo, locks, cfg.SweepWorkers, logger)
	catalogSvc := usecase.NewCatalogService(driverRepo, constructorRepo, raceRepo)
	assignmentSvc := usecase.NewAssignmentService(driverRepo, constructorRepo, propagationSvc, locks, ids, logger)
	raceResultSvc := usecase.NewRaceResultService(
		raceRepo,
		driverRepo,
		propagationSvc,
		locks,
		ids,
		usecase.RaceResultMode(cfg.RaceResultMode),
		logger,
	)
	rosterSvc := usecase.NewRosterService(driverRepo, constructorRepo, fantasyRepo, membershipRepo, propagationSvc, rules, clock, logger)
	leagueSvc := usecase.NewLeagueService(
		leagueRepo,
		membershipRepo,
		fantasyRepo,
		constructorRepo,
		idgen.NewRandomCodeGenerator(),
		cfg.JoinCodeLength,
		locks,
		clock,
		logger,
	)
	standingsSvc := usecase.NewStandingsService(leagueRepo, membershipRepo, fantasyRepo, userRepo, logger)
	userSvc := usecase.NewUserService(userRepo, logger)

	identityClient := identity.NewClient(
		&http.Client{Timeout: cfg.IdentityTimeout},
		identity.Config{
			BaseURL:        cfg.IdentityBaseURL,
			IntrospectPath: cfg.IdentityIntrospectPath,
			AdminKey:       cfg.IdentityAdminKey,
			CacheTTL:       cfg.IdentityTokenCacheTTL,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.IdentityCircuitEnabled,
				FailureThreshold: cfg.IdentityCircuitFailureCount,
				OpenTimeout:      cfg.IdentityCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.IdentityCircuitHalfOpenMaxReq,
			},
		},
		logger,
	)

	handler := httpapi.NewHandler(
		catalogSvc,
		assignmentSvc,
		raceResultSvc,
		rosterSvc,
		leagueSvc,
		standingsSvc,
		propagationSvc,
		logger,
	)
	router := httpapi.NewRouter(handler, identityClient, userSvc, logger, cfg.CORSAllowedOrigins)

	scheduler := usecase.NewReconcileScheduler(propagationSvc, usecase.ReconcileSchedulerConfig{
		Interval: cfg.ReconcileInterval,
		OnBoot:   cfg.ReconcileOnBoot,
	}, clock, logger)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		Scheduler:  scheduler,
		Reconciler: propagationSvc,
		db:         db,
	}, nil
}

func openDocumentStore(cfg config.Config, ids idgen.Generator, logger *logging.Logger) (docstore.Store, *sqlx.DB, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
		db, err := otelsqlx.Open("postgres", dsn,
			otelsql.WithDBName(dbNameFromURL(dsn)),
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		logger.Info("document store ready",
			"backend", config.StorePostgres,
			"db_name", dbNameFromURL(dsn),
			"db_url", redactDBURL(dsn),
		)
		return postgres.NewDocumentStore(db, ids), db, nil
	default:
		logger.Warn("document store is in-memory; data is lost on restart", "backend", config.StoreMemory)
		return docstore.NewMemoryStore(ids), nil, nil
	}
}

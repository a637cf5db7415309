package usecase

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/domain/driver"
	"github.com/riskibarqy/grid-fantasy/internal/domain/fantasy"
	"github.com/riskibarqy/grid-fantasy/internal/platform/keylock"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// SweepReport summarizes one pass over a collection.
type SweepReport struct {
	Scanned int `json:"scanned"`
	Changed int `json:"changed"`
	Failed  int `json:"failed"`
}

// ReconcileReport summarizes a full constructor-then-fantasy reconcile.
type ReconcileReport struct {
	Constructors SweepReport   `json:"constructors"`
	FantasyTeams SweepReport   `json:"fantasy_teams"`
	Duration     time.Duration `json:"duration"`
}

// PropagationService derives constructor scores from driver points and
// fantasy points from drivers plus constructor. Every recompute is a full
// derivation from current data, so repeating it is harmless. Dangling
// references contribute zero instead of failing.
type PropagationService struct {
	driverRepo      driver.Repository
	constructorRepo constructor.Repository
	fantasyRepo     fantasy.Repository
	locks           *keylock.Locker
	workers         int
	logger          *logging.Logger

	// reconcileMu keeps a constructor sweep from interleaving with a
	// reconcile's fantasy pass.
	reconcileMu sync.Mutex
}

func NewPropagationService(
	driverRepo driver.Repository,
	constructorRepo constructor.Repository,
	fantasyRepo fantasy.Repository,
	locks *keylock.Locker,
	workers int,
	logger *logging.Logger,
) *PropagationService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = keylock.New()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &PropagationService{
		driverRepo:      driverRepo,
		constructorRepo: constructorRepo,
		fantasyRepo:     fantasyRepo,
		locks:           locks,
		workers:         workers,
		logger:          logger,
	}
}

// RecomputeConstructorScore sets the team's score to the sum of its member
// drivers' cumulative points and returns the new score.
func (s *PropagationService) RecomputeConstructorScore(ctx context.Context, teamID string) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PropagationService.RecomputeConstructorScore",
		attribute.String("constructor.id", teamID))
	defer span.End()

	unlock := s.locks.Lock(constructorLockKey(teamID))
	defer unlock()

	score, _, err := s.recomputeConstructor(ctx, teamID)
	return score, err
}

func (s *PropagationService) recomputeConstructor(ctx context.Context, teamID string) (int64, bool, error) {
	team, exists, err := s.constructorRepo.GetByID(ctx, teamID)
	if err != nil {
		return 0, false, fmt.Errorf("get constructor: %w", err)
	}
	if !exists {
		return 0, false, fmt.Errorf("%w: constructor %s", ErrNotFound, teamID)
	}

	drivers, err := s.driverRepo.ListByIDs(ctx, team.DriverIDs)
	if err != nil {
		return 0, false, fmt.Errorf("list constructor drivers: %w", err)
	}
	if len(drivers) != len(team.DriverIDs) {
		s.logger.WarnContext(ctx, "constructor references missing drivers",
			"constructor_id", teamID,
			"referenced", len(team.DriverIDs),
			"resolved", len(drivers),
		)
	}

	var score int64
	for _, d := range drivers {
		score += d.Points
	}
	if score == team.Score {
		return score, false, nil
	}
	if err := s.constructorRepo.UpdateScore(ctx, teamID, score); err != nil {
		return 0, false, fmt.Errorf("update constructor score: %w", err)
	}
	return score, true, nil
}

// RecomputeFantasyScore refreshes the cached points on a fantasy team.
func (s *PropagationService) RecomputeFantasyScore(ctx context.Context, teamID string) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PropagationService.RecomputeFantasyScore",
		attribute.String("fantasy_team.id", teamID))
	defer span.End()

	team, exists, err := s.fantasyRepo.GetByID(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("get fantasy team: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: fantasy team %s", ErrNotFound, teamID)
	}
	points, _, err := s.recomputeFantasy(ctx, team)
	return points, err
}

func (s *PropagationService) recomputeFantasy(ctx context.Context, team fantasy.Team) (int64, bool, error) {
	drivers, err := s.driverRepo.ListByIDs(ctx, team.DriverIDs)
	if err != nil {
		return 0, false, fmt.Errorf("list fantasy team drivers: %w", err)
	}

	var ctor *constructor.Team
	c, exists, err := s.constructorRepo.GetByID(ctx, team.ConstructorID)
	if err != nil {
		return 0, false, fmt.Errorf("get fantasy team constructor: %w", err)
	}
	if exists {
		ctor = &c
	}
	if !exists || len(drivers) != len(team.DriverIDs) {
		s.logger.WarnContext(ctx, "fantasy team has dangling references",
			"fantasy_team_id", team.ID,
			"constructor_found", exists,
			"drivers_resolved", len(drivers),
		)
	}

	points := fantasy.Score(drivers, ctor)
	if points == team.Points {
		return points, false, nil
	}
	if err := s.fantasyRepo.UpdatePoints(ctx, team.ID, points); err != nil {
		return 0, false, fmt.Errorf("update fantasy team points: %w", err)
	}
	return points, true, nil
}

// SweepConstructors recomputes every constructor score.
func (s *PropagationService) SweepConstructors(ctx context.Context) (SweepReport, error) {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()
	return s.sweepConstructors(ctx)
}

func (s *PropagationService) sweepConstructors(ctx context.Context) (SweepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PropagationService.SweepConstructors")
	defer span.End()

	teams, err := s.constructorRepo.List(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list constructors: %w", err)
	}

	return s.runSweep(ctx, "constructors", len(teams), func(i int) (bool, error) {
		teamID := teams[i].ID
		unlock := s.locks.Lock(constructorLockKey(teamID))
		defer unlock()
		_, changed, err := s.recomputeConstructor(ctx, teamID)
		return changed, err
	})
}

// SweepFantasyTeams recomputes every fantasy team's cached points. It reads
// constructor scores as they are; run SweepConstructors first, or use
// ReconcileAll.
func (s *PropagationService) SweepFantasyTeams(ctx context.Context) (SweepReport, error) {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()
	return s.sweepFantasyTeams(ctx)
}

func (s *PropagationService) sweepFantasyTeams(ctx context.Context) (SweepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PropagationService.SweepFantasyTeams")
	defer span.End()

	teams, err := s.fantasyRepo.List(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list fantasy teams: %w", err)
	}

	return s.runSweep(ctx, "fantasy_teams", len(teams), func(i int) (bool, error) {
		_, changed, err := s.recomputeFantasy(ctx, teams[i])
		return changed, err
	})
}

// ReconcileAll runs the constructor sweep to completion, then the fantasy
// sweep, so every fantasy team reads settled constructor scores.
func (s *PropagationService) ReconcileAll(ctx context.Context) (ReconcileReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PropagationService.ReconcileAll")
	defer span.End()

	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	start := time.Now()
	constructors, err := s.sweepConstructors(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}
	fantasyTeams, err := s.sweepFantasyTeams(ctx)
	if err != nil {
		return ReconcileReport{Constructors: constructors}, err
	}

	report := ReconcileReport{
		Constructors: constructors,
		FantasyTeams: fantasyTeams,
		Duration:     time.Since(start),
	}
	s.logger.InfoContext(ctx, "reconcile completed",
		"constructors_scanned", constructors.Scanned,
		"constructors_changed", constructors.Changed,
		"fantasy_teams_scanned", fantasyTeams.Scanned,
		"fantasy_teams_changed", fantasyTeams.Changed,
		"failed", constructors.Failed+fantasyTeams.Failed,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// runSweep fans n items out over an ants pool. Item failures are logged and
// counted; they never abort the sweep.
func (s *PropagationService) runSweep(ctx context.Context, name string, n int, fn func(i int) (bool, error)) (SweepReport, error) {
	report := SweepReport{Scanned: n}
	if n == 0 {
		return report, nil
	}

	size := s.workers
	if size > n {
		size = n
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return SweepReport{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var changed, failed atomic.Int32
	var workers sync.WaitGroup
	for i := 0; i < n; i++ {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			ok, err := fn(i)
			if err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "sweep item failed", "sweep", name, "index", i, "error", err)
				return
			}
			if ok {
				changed.Add(1)
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return SweepReport{}, fmt.Errorf("submit %s sweep task: %w", name, err)
		}
	}
	workers.Wait()

	report.Changed = int(changed.Load())
	report.Failed = int(failed.Load())
	return report, nil
}

func constructorLockKey(teamID string) string {
	return "constructor:" + teamID
}

func driverLockKey(driverID string) string {
	return "driver:" + driverID
}

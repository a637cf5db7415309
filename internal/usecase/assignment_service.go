package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/domain/driver"
	idgen "github.com/riskibarqy/grid-fantasy/internal/platform/id"
	"github.com/riskibarqy/grid-fantasy/internal/platform/keylock"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const maxLedgerLockAttempts = 5

// UpsertConstructorInput references drivers by id. Score and Price are
// optional; nil keeps the stored value (zero for new constructors).
type UpsertConstructorInput struct {
	ID        string
	Name      string
	DriverIDs []string
	Score     *int64
	Price     *int64
}

// UpsertConstructorByNamesInput references drivers by exact name. Unknown
// names create zero-priced drivers.
type UpsertConstructorByNamesInput struct {
	ID          string
	Name        string
	DriverNames []string
	Price       *int64
}

type UpsertConstructorByNamesResult struct {
	Team              constructor.Team
	CreatedDrivers    []string
	ReassignedDrivers []string
}

// UpsertDriverInput creates or edits a driver. TeamID nil leaves the
// assignment untouched; a pointer to "" unassigns. Points nil keeps the
// cumulative total.
type UpsertDriverInput struct {
	ID     string
	Name   string
	Price  *int64
	Points *int64
	TeamID *string
}

// AssignmentService is the single writer of driver-to-constructor links. It
// keeps a driver on at most one constructor and keeps driver.team_id and
// constructor.drivers in agreement.
type AssignmentService struct {
	driverRepo      driver.Repository
	constructorRepo constructor.Repository
	propagation     *PropagationService
	locks           *keylock.Locker
	idGen           idgen.Generator
	logger          *logging.Logger
}

func NewAssignmentService(
	driverRepo driver.Repository,
	constructorRepo constructor.Repository,
	propagation *PropagationService,
	locks *keylock.Locker,
	idGen idgen.Generator,
	logger *logging.Logger,
) *AssignmentService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = keylock.New()
	}
	if idGen == nil {
		idGen = idgen.NewUUIDGenerator()
	}

	return &AssignmentService{
		driverRepo:      driverRepo,
		constructorRepo: constructorRepo,
		propagation:     propagation,
		locks:           locks,
		idGen:           idGen,
		logger:          logger,
	}
}

// UpsertConstructor creates or updates a constructor by driver id. If any
// requested driver already belongs to a different constructor the whole
// request is rejected with every conflicting id and nothing is written.
func (s *AssignmentService) UpsertConstructor(ctx context.Context, input UpsertConstructorInput) (constructor.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AssignmentService.UpsertConstructor",
		attribute.String("constructor.id", input.ID))
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return constructor.Team{}, fmt.Errorf("%w: constructor name is required", ErrInvalidInput)
	}
	driverIDs, err := cleanIDs(input.DriverIDs, "driver")
	if err != nil {
		return constructor.Team{}, err
	}
	teamID, err := s.resolveTeamID(input.ID)
	if err != nil {
		return constructor.Team{}, err
	}

	var out constructor.Team
	err = s.withLedgerLock(ctx, s.constructorScope(teamID, driverIDs, false), func(ctx context.Context) error {
		drivers, err := s.loadDrivers(ctx, driverIDs)
		if err != nil {
			return err
		}

		conflicts := make([]string, 0)
		for _, d := range drivers {
			if d.Assigned() && d.TeamID != teamID {
				conflicts = append(conflicts, d.ID)
			}
		}
		if len(conflicts) > 0 {
			s.logger.WarnContext(ctx, "constructor assignment rejected",
				"constructor_id", teamID,
				"conflicts", conflicts,
			)
			return &ConflictError{Cause: ErrDriverAlreadyAssigned, IDs: conflicts}
		}

		out, err = s.writeAssignment(ctx, teamID, name, drivers, input.Score, input.Price)
		return err
	})
	if err != nil {
		return constructor.Team{}, err
	}
	return out, nil
}

// UpsertConstructorByNames resolves drivers by exact name, creating missing
// ones, and assigns them without the conflict check: a driver on another
// constructor is moved, and removed from that constructor's set.
func (s *AssignmentService) UpsertConstructorByNames(ctx context.Context, input UpsertConstructorByNamesInput) (UpsertConstructorByNamesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AssignmentService.UpsertConstructorByNames")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return UpsertConstructorByNamesResult{}, fmt.Errorf("%w: constructor name is required", ErrInvalidInput)
	}
	names, err := cleanIDs(input.DriverNames, "driver name")
	if err != nil {
		return UpsertConstructorByNamesResult{}, err
	}
	teamID, err := s.resolveTeamID(input.ID)
	if err != nil {
		return UpsertConstructorByNamesResult{}, err
	}

	result := UpsertConstructorByNamesResult{}
	driverIDs := make([]string, 0, len(names))
	for _, driverName := range names {
		matches, err := s.driverRepo.ListByName(ctx, driverName)
		if err != nil {
			return UpsertConstructorByNamesResult{}, fmt.Errorf("find driver by name: %w", err)
		}
		switch len(matches) {
		case 0:
			created, err := s.driverRepo.Create(ctx, driver.Driver{Name: driverName})
			if err != nil {
				return UpsertConstructorByNamesResult{}, fmt.Errorf("create driver %q: %w", driverName, err)
			}
			result.CreatedDrivers = append(result.CreatedDrivers, created.ID)
			driverIDs = append(driverIDs, created.ID)
		case 1:
			driverIDs = append(driverIDs, matches[0].ID)
		default:
			return UpsertConstructorByNamesResult{}, fmt.Errorf("%w: driver name %q is ambiguous (%d matches)", ErrInvalidInput, driverName, len(matches))
		}
	}
	driverIDs, err = cleanIDs(driverIDs, "driver")
	if err != nil {
		return UpsertConstructorByNamesResult{}, err
	}

	err = s.withLedgerLock(ctx, s.constructorScope(teamID, driverIDs, true), func(ctx context.Context) error {
		drivers, err := s.loadDrivers(ctx, driverIDs)
		if err != nil {
			return err
		}

		touched := make([]string, 0)
		for _, d := range drivers {
			if !d.Assigned() || d.TeamID == teamID {
				continue
			}
			prior, exists, err := s.constructorRepo.GetByID(ctx, d.TeamID)
			if err != nil {
				return fmt.Errorf("get prior constructor: %w", err)
			}
			if exists {
				if err := s.constructorRepo.SetDrivers(ctx, prior.ID, prior.WithoutDriver(d.ID)); err != nil {
					return fmt.Errorf("detach driver %s from %s: %w", d.ID, prior.ID, err)
				}
				touched = append(touched, prior.ID)
			}
			result.ReassignedDrivers = append(result.ReassignedDrivers, d.ID)
		}

		team, err := s.writeAssignment(ctx, teamID, name, drivers, nil, input.Price)
		if err != nil {
			return err
		}
		result.Team = team

		for _, priorID := range touched {
			if _, _, err := s.propagation.recomputeConstructor(ctx, priorID); err != nil {
				s.logger.WarnContext(ctx, "recompute prior constructor failed", "constructor_id", priorID, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return UpsertConstructorByNamesResult{}, err
	}

	if len(result.ReassignedDrivers) > 0 {
		s.logger.InfoContext(ctx, "drivers reassigned by name",
			"constructor_id", teamID,
			"drivers", result.ReassignedDrivers,
		)
	}
	return result, nil
}

// UpsertDriver creates or edits a driver. Race history is never touched
// here; a points override rescores the driver's constructor. A team change
// goes through the same exclusivity rule as UpsertConstructor.
func (s *AssignmentService) UpsertDriver(ctx context.Context, input UpsertDriverInput) (driver.Driver, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AssignmentService.UpsertDriver",
		attribute.String("driver.id", input.ID))
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return driver.Driver{}, fmt.Errorf("%w: driver name is required", ErrInvalidInput)
	}
	if input.Price != nil && *input.Price < 0 {
		return driver.Driver{}, fmt.Errorf("%w: driver price must be >= 0", ErrInvalidInput)
	}
	if input.Points != nil && *input.Points < 0 {
		return driver.Driver{}, fmt.Errorf("%w: driver points must be >= 0", ErrInvalidInput)
	}
	driverID := strings.TrimSpace(input.ID)
	if driverID == "" {
		var err error
		driverID, err = s.idGen.NewID()
		if err != nil {
			return driver.Driver{}, fmt.Errorf("generate driver id: %w", err)
		}
	} else if err := checkDocumentID("driver", driverID); err != nil {
		return driver.Driver{}, err
	}

	scope := func(ctx context.Context) ([]string, error) {
		keys := []string{driverLockKey(driverID)}
		current, exists, err := s.driverRepo.GetByID(ctx, driverID)
		if err != nil {
			return nil, fmt.Errorf("get driver: %w", err)
		}
		if exists && current.Assigned() {
			keys = append(keys, constructorLockKey(current.TeamID))
		}
		if input.TeamID != nil && *input.TeamID != "" {
			keys = append(keys, constructorLockKey(*input.TeamID))
		}
		return keys, nil
	}

	var out driver.Driver
	err := s.withLedgerLock(ctx, scope, func(ctx context.Context) error {
		current, exists, err := s.driverRepo.GetByID(ctx, driverID)
		if err != nil {
			return fmt.Errorf("get driver: %w", err)
		}
		if !exists {
			current = driver.Driver{ID: driverID, Races: map[string]int64{}}
		}
		next := current
		next.Name = name
		if input.Price != nil {
			next.Price = *input.Price
		}
		if input.Points != nil {
			next.Points = *input.Points
		}

		targetTeam := current.TeamID
		if input.TeamID != nil {
			targetTeam = strings.TrimSpace(*input.TeamID)
		}
		if targetTeam != "" && current.Assigned() && current.TeamID != targetTeam {
			return &ConflictError{Cause: ErrDriverAlreadyAssigned, IDs: []string{driverID}}
		}

		var target constructor.Team
		if targetTeam != "" && targetTeam != current.TeamID {
			var found bool
			target, found, err = s.constructorRepo.GetByID(ctx, targetTeam)
			if err != nil {
				return fmt.Errorf("get constructor: %w", err)
			}
			if !found {
				return fmt.Errorf("%w: constructor %s", ErrNotFound, targetTeam)
			}
		}

		next.TeamID = targetTeam
		if err := s.driverRepo.Upsert(ctx, next); err != nil {
			return fmt.Errorf("upsert driver: %w", err)
		}

		switch {
		case targetTeam != "" && targetTeam != current.TeamID:
			if !target.HasDriver(driverID) {
				if err := s.constructorRepo.SetDrivers(ctx, target.ID, append(target.DriverIDs, driverID)); err != nil {
					return fmt.Errorf("attach driver to constructor: %w", err)
				}
			}
			s.recomputeQuietly(ctx, target.ID)
		case targetTeam == "" && current.Assigned():
			prior, found, err := s.constructorRepo.GetByID(ctx, current.TeamID)
			if err != nil {
				return fmt.Errorf("get prior constructor: %w", err)
			}
			if found {
				if err := s.constructorRepo.SetDrivers(ctx, prior.ID, prior.WithoutDriver(driverID)); err != nil {
					return fmt.Errorf("detach driver from constructor: %w", err)
				}
				s.recomputeQuietly(ctx, prior.ID)
			}
		case targetTeam != "" && next.Points != current.Points:
			s.recomputeQuietly(ctx, targetTeam)
		}

		out = next
		return nil
	})
	if err != nil {
		return driver.Driver{}, err
	}
	return out, nil
}

// writeAssignment persists the constructor with the given driver set, sets
// team_id on the members and clears it on drivers dropped from the set.
// Callers hold the ledger lock and have already resolved conflicts.
func (s *AssignmentService) writeAssignment(ctx context.Context, teamID, name string, drivers []driver.Driver, score, price *int64) (constructor.Team, error) {
	existing, exists, err := s.constructorRepo.GetByID(ctx, teamID)
	if err != nil {
		return constructor.Team{}, fmt.Errorf("get constructor: %w", err)
	}

	team := constructor.Team{ID: teamID, Name: name}
	if exists {
		team.Score = existing.Score
		team.Price = existing.Price
	}
	if score != nil {
		team.Score = *score
	}
	if price != nil {
		team.Price = *price
	}
	team.DriverIDs = make([]string, 0, len(drivers))
	for _, d := range drivers {
		team.DriverIDs = append(team.DriverIDs, d.ID)
	}
	if err := team.Validate(); err != nil {
		return constructor.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.constructorRepo.Upsert(ctx, team); err != nil {
		return constructor.Team{}, fmt.Errorf("upsert constructor: %w", err)
	}

	for _, d := range drivers {
		if d.TeamID == teamID {
			continue
		}
		if err := s.driverRepo.SetTeam(ctx, d.ID, teamID); err != nil {
			return constructor.Team{}, fmt.Errorf("assign driver %s: %w", d.ID, err)
		}
	}
	if exists {
		for _, removedID := range existing.DriverIDs {
			if team.HasDriver(removedID) {
				continue
			}
			removed, found, err := s.driverRepo.GetByID(ctx, removedID)
			if err != nil {
				return constructor.Team{}, fmt.Errorf("get removed driver: %w", err)
			}
			if !found || removed.TeamID != teamID {
				continue
			}
			if err := s.driverRepo.SetTeam(ctx, removedID, ""); err != nil {
				return constructor.Team{}, fmt.Errorf("unassign driver %s: %w", removedID, err)
			}
		}
	}

	if score == nil {
		recomputed, _, err := s.propagation.recomputeConstructor(ctx, teamID)
		if err != nil {
			s.logger.WarnContext(ctx, "recompute constructor after assignment failed", "constructor_id", teamID, "error", err)
		} else {
			team.Score = recomputed
		}
	}
	return team, nil
}

// constructorScope lists the lock keys an assignment to teamID touches:
// the constructor, requested drivers, current members and, when moving
// drivers, their prior constructors.
func (s *AssignmentService) constructorScope(teamID string, driverIDs []string, includePriorTeams bool) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		keys := []string{constructorLockKey(teamID)}
		for _, id := range driverIDs {
			keys = append(keys, driverLockKey(id))
		}

		existing, exists, err := s.constructorRepo.GetByID(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("get constructor: %w", err)
		}
		if exists {
			for _, id := range existing.DriverIDs {
				keys = append(keys, driverLockKey(id))
			}
		}

		if includePriorTeams {
			drivers, err := s.driverRepo.ListByIDs(ctx, driverIDs)
			if err != nil {
				return nil, fmt.Errorf("list drivers: %w", err)
			}
			for _, d := range drivers {
				if d.Assigned() {
					keys = append(keys, constructorLockKey(d.TeamID))
				}
			}
		}
		return keys, nil
	}
}

// withLedgerLock computes the key scope, locks it, and re-checks the scope
// under the lock. If another writer widened it in between, it retries.
func (s *AssignmentService) withLedgerLock(ctx context.Context, scope func(context.Context) ([]string, error), fn func(context.Context) error) error {
	for attempt := 0; attempt < maxLedgerLockAttempts; attempt++ {
		keys, err := scope(ctx)
		if err != nil {
			return err
		}
		unlock := s.locks.Lock(keys...)

		confirmed, err := scope(ctx)
		if err != nil {
			unlock()
			return err
		}
		if isSubset(confirmed, keys) {
			err = fn(ctx)
			unlock()
			return err
		}
		unlock()
	}
	return fmt.Errorf("%w: assignment scope changed during %d attempts", ErrConflict, maxLedgerLockAttempts)
}

func (s *AssignmentService) loadDrivers(ctx context.Context, driverIDs []string) ([]driver.Driver, error) {
	drivers, err := s.driverRepo.ListByIDs(ctx, driverIDs)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	if len(drivers) == len(driverIDs) {
		return orderDrivers(drivers, driverIDs), nil
	}

	found := make(map[string]struct{}, len(drivers))
	for _, d := range drivers {
		found[d.ID] = struct{}{}
	}
	missing := make([]string, 0)
	for _, id := range driverIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return nil, fmt.Errorf("%w: unknown drivers %s", ErrInvalidInput, strings.Join(missing, ", "))
}

func (s *AssignmentService) resolveTeamID(raw string) (string, error) {
	teamID := strings.TrimSpace(raw)
	if teamID != "" {
		if err := checkDocumentID("constructor", teamID); err != nil {
			return "", err
		}
		return teamID, nil
	}
	teamID, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate constructor id: %w", err)
	}
	return teamID, nil
}

// checkDocumentID rejects ids that would split into several segments when
// used as a dotted field path.
func checkDocumentID(kind, id string) error {
	if strings.Contains(id, ".") {
		return fmt.Errorf("%w: %s id %q must not contain '.'", ErrInvalidInput, kind, id)
	}
	return nil
}

func (s *AssignmentService) recomputeQuietly(ctx context.Context, teamID string) {
	if _, _, err := s.propagation.recomputeConstructor(ctx, teamID); err != nil {
		s.logger.WarnContext(ctx, "recompute constructor failed", "constructor_id", teamID, "error", err)
	}
}

func orderDrivers(drivers []driver.Driver, order []string) []driver.Driver {
	byID := make(map[string]driver.Driver, len(drivers))
	for _, d := range drivers {
		byID[d.ID] = d
	}
	out := make([]driver.Driver, 0, len(order))
	for _, id := range order {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out
}

// cleanIDs trims, rejects blanks and rejects duplicates.
func cleanIDs(raw []string, label string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidInput, label)
		}
		if _, ok := seen[v]; ok {
			return nil, fmt.Errorf("%w: duplicate %s %s", ErrInvalidInput, label, v)
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func isSubset(sub, super []string) bool {
	for _, k := range sub {
		if !slices.Contains(super, k) {
			return false
		}
	}
	return true
}

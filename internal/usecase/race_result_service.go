package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/riskibarqy/grid-fantasy/internal/domain/driver"
	"github.com/riskibarqy/grid-fantasy/internal/domain/race"
	idgen "github.com/riskibarqy/grid-fantasy/internal/platform/id"
	"github.com/riskibarqy/grid-fantasy/internal/platform/keylock"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// RaceResultMode decides what a re-submission of the same race does to a
// driver's cumulative points.
type RaceResultMode string

const (
	// RaceResultModeCorrection replaces the earlier award: the total moves by
	// the difference against the previous history entry.
	RaceResultModeCorrection RaceResultMode = "correction"
	// RaceResultModeAppend adds the award on top of whatever was recorded.
	RaceResultModeAppend RaceResultMode = "append"
)

func (m RaceResultMode) Valid() bool {
	return m == RaceResultModeCorrection || m == RaceResultModeAppend
}

// ParseRaceResultMode maps an empty string to fallback.
func ParseRaceResultMode(raw string, fallback RaceResultMode) (RaceResultMode, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return fallback, nil
	}
	mode := RaceResultMode(raw)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: unknown race result mode %q", ErrInvalidInput, raw)
	}
	return mode, nil
}

type SkipReason string

const (
	SkipUnresolved SkipReason = "unresolved"
	SkipAmbiguous  SkipReason = "ambiguous"
	SkipDuplicate  SkipReason = "duplicate"
)

// SkippedResult is a submitted key that did not produce an award.
type SkippedResult struct {
	Key     string     `json:"key"`
	Reason  SkipReason `json:"reason"`
	Matches []string   `json:"matches,omitempty"`
}

// AppliedResult is one award written to a driver.
type AppliedResult struct {
	DriverID    string `json:"driver_id"`
	Points      int64  `json:"points"`
	TotalBefore int64  `json:"total_before"`
	TotalAfter  int64  `json:"total_after"`
}

// RecordRaceResultInput carries results keyed by driver id or exact name.
type RecordRaceResultInput struct {
	ID      string
	Name    string
	Date    time.Time
	Results map[string]int64
	Mode    RaceResultMode
}

type RecordRaceResultOutput struct {
	Race    race.Race
	Mode    RaceResultMode
	Applied []AppliedResult
	Skipped []SkippedResult
	Sweep   SweepReport
}

type RaceResultService struct {
	raceRepo    race.Repository
	driverRepo  driver.Repository
	propagation *PropagationService
	locks       *keylock.Locker
	idGen       idgen.Generator
	defaultMode RaceResultMode
	logger      *logging.Logger
}

func NewRaceResultService(
	raceRepo race.Repository,
	driverRepo driver.Repository,
	propagation *PropagationService,
	locks *keylock.Locker,
	idGen idgen.Generator,
	defaultMode RaceResultMode,
	logger *logging.Logger,
) *RaceResultService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = keylock.New()
	}
	if idGen == nil {
		idGen = idgen.NewUUIDGenerator()
	}
	if !defaultMode.Valid() {
		defaultMode = RaceResultModeCorrection
	}

	return &RaceResultService{
		raceRepo:    raceRepo,
		driverRepo:  driverRepo,
		propagation: propagation,
		locks:       locks,
		idGen:       idGen,
		defaultMode: defaultMode,
		logger:      logger,
	}
}

func (s *RaceResultService) DefaultMode() RaceResultMode {
	return s.defaultMode
}

// RecordRaceResult applies per-driver awards for one race, writes the race
// document and then runs the constructor sweep. Keys that do not resolve to
// exactly one driver are skipped and reported; they never fail the call.
func (s *RaceResultService) RecordRaceResult(ctx context.Context, input RecordRaceResultInput) (RecordRaceResultOutput, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RaceResultService.RecordRaceResult",
		attribute.String("race.id", input.ID))
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return RecordRaceResultOutput{}, fmt.Errorf("%w: race name is required", ErrInvalidInput)
	}
	if input.Date.IsZero() {
		return RecordRaceResultOutput{}, fmt.Errorf("%w: race date is required", ErrInvalidInput)
	}
	mode := input.Mode
	if mode == "" {
		mode = s.defaultMode
	}
	if !mode.Valid() {
		return RecordRaceResultOutput{}, fmt.Errorf("%w: unknown race result mode %q", ErrInvalidInput, mode)
	}

	raceID := strings.TrimSpace(input.ID)
	if raceID == "" {
		var err error
		raceID, err = s.idGen.NewID()
		if err != nil {
			return RecordRaceResultOutput{}, fmt.Errorf("generate race id: %w", err)
		}
	} else if err := checkDocumentID("race", raceID); err != nil {
		return RecordRaceResultOutput{}, err
	}

	awards, skipped, err := s.resolveResults(ctx, input.Results)
	if err != nil {
		return RecordRaceResultOutput{}, err
	}
	for _, sk := range skipped {
		s.logger.WarnContext(ctx, "race result skipped",
			"race_id", raceID,
			"key", sk.Key,
			"reason", string(sk.Reason),
			"matches", sk.Matches,
		)
	}

	out := RecordRaceResultOutput{Mode: mode, Skipped: skipped}
	err = func() error {
		// Only recorders take race keys, and always before driver keys.
		unlockRace := s.locks.Lock(raceLockKey(raceID))
		defer unlockRace()

		previous, exists, err := s.raceRepo.GetByID(ctx, raceID)
		if err != nil {
			return fmt.Errorf("get race: %w", err)
		}
		unlockDrivers := s.locks.Lock(driverKeys(awards, previous.Results)...)
		defer unlockDrivers()

		applied, err := s.applyAwards(ctx, raceID, mode, awards)
		if err != nil {
			return err
		}
		out.Applied = applied

		if mode == RaceResultModeCorrection && exists {
			if err := s.retractDropped(ctx, raceID, previous.Results, awards); err != nil {
				return err
			}
		}

		recorded := race.Race{ID: raceID, Name: name, Date: input.Date.UTC(), Results: awards}
		if err := recorded.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := s.raceRepo.Upsert(ctx, recorded); err != nil {
			return fmt.Errorf("upsert race: %w", err)
		}
		out.Race = recorded
		return nil
	}()
	if err != nil {
		return RecordRaceResultOutput{}, err
	}

	// Driver locks are released first: the sweep takes constructor locks and
	// the ledger takes constructor before driver.
	sweep, err := s.propagation.SweepConstructors(ctx)
	if err != nil {
		return RecordRaceResultOutput{}, fmt.Errorf("sweep constructors after race: %w", err)
	}
	out.Sweep = sweep

	s.logger.InfoContext(ctx, "race result recorded",
		"race_id", raceID,
		"mode", string(mode),
		"applied", len(out.Applied),
		"skipped", len(out.Skipped),
		"constructors_changed", sweep.Changed,
	)
	return out, nil
}

// resolveResults maps each submitted key to a driver id: an exact id match
// wins, otherwise an exact name match. No match, several matches and a
// driver hit twice are all skipped.
func (s *RaceResultService) resolveResults(ctx context.Context, results map[string]int64) (map[string]int64, []SkippedResult, error) {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	awards := make(map[string]int64, len(results))
	skipped := make([]SkippedResult, 0)
	for _, key := range keys {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			skipped = append(skipped, SkippedResult{Key: key, Reason: SkipUnresolved})
			continue
		}

		driverID, matches, err := s.resolveDriver(ctx, trimmed)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case len(matches) > 1:
			skipped = append(skipped, SkippedResult{Key: key, Reason: SkipAmbiguous, Matches: matches})
			continue
		case driverID == "":
			skipped = append(skipped, SkippedResult{Key: key, Reason: SkipUnresolved})
			continue
		}

		if _, dup := awards[driverID]; dup {
			skipped = append(skipped, SkippedResult{Key: key, Reason: SkipDuplicate, Matches: []string{driverID}})
			continue
		}
		awards[driverID] = results[key]
	}
	return awards, skipped, nil
}

func (s *RaceResultService) resolveDriver(ctx context.Context, key string) (string, []string, error) {
	byID, exists, err := s.driverRepo.GetByID(ctx, key)
	if err != nil {
		return "", nil, fmt.Errorf("get driver %q: %w", key, err)
	}
	if exists {
		return byID.ID, nil, nil
	}

	byName, err := s.driverRepo.ListByName(ctx, key)
	if err != nil {
		return "", nil, fmt.Errorf("find driver by name %q: %w", key, err)
	}
	switch len(byName) {
	case 0:
		return "", nil, nil
	case 1:
		return byName[0].ID, nil, nil
	default:
		ids := make([]string, 0, len(byName))
		for _, d := range byName {
			ids = append(ids, d.ID)
		}
		return "", ids, nil
	}
}

func (s *RaceResultService) applyAwards(ctx context.Context, raceID string, mode RaceResultMode, awards map[string]int64) ([]AppliedResult, error) {
	ids := make([]string, 0, len(awards))
	for id := range awards {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	drivers, err := s.driverRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list awarded drivers: %w", err)
	}

	applied := make([]AppliedResult, 0, len(drivers))
	for _, d := range orderDrivers(drivers, ids) {
		points := awards[d.ID]
		total := d.Points + points
		if mode == RaceResultModeCorrection {
			previous, _ := d.RacePoints(raceID)
			total -= previous
		}
		if err := s.driverRepo.RecordRace(ctx, d.ID, raceID, points, total); err != nil {
			return nil, fmt.Errorf("record race for driver %s: %w", d.ID, err)
		}
		applied = append(applied, AppliedResult{
			DriverID:    d.ID,
			Points:      points,
			TotalBefore: d.Points,
			TotalAfter:  total,
		})
	}
	return applied, nil
}

// retractDropped zeroes the award of drivers present in the previous
// submission but missing from the corrected one.
func (s *RaceResultService) retractDropped(ctx context.Context, raceID string, previous, awards map[string]int64) error {
	dropped := make([]string, 0)
	for id := range previous {
		if _, ok := awards[id]; !ok {
			dropped = append(dropped, id)
		}
	}
	if len(dropped) == 0 {
		return nil
	}
	slices.Sort(dropped)

	drivers, err := s.driverRepo.ListByIDs(ctx, dropped)
	if err != nil {
		return fmt.Errorf("list dropped drivers: %w", err)
	}
	for _, d := range drivers {
		prior, _ := d.RacePoints(raceID)
		if err := s.driverRepo.RecordRace(ctx, d.ID, raceID, 0, d.Points-prior); err != nil {
			return fmt.Errorf("retract race for driver %s: %w", d.ID, err)
		}
	}
	return nil
}

func raceLockKey(raceID string) string {
	return "race:" + raceID
}

func driverKeys(sets ...map[string]int64) []string {
	keys := make([]string, 0)
	for _, set := range sets {
		for id := range set {
			keys = append(keys, driverLockKey(id))
		}
	}
	return keys
}

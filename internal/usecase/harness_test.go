package usecase

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/domain/driver"
	"github.com/riskibarqy/grid-fantasy/internal/domain/fantasy"
	"github.com/riskibarqy/grid-fantasy/internal/infrastructure/repository/document"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
	"github.com/riskibarqy/grid-fantasy/internal/platform/keylock"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
)

type sequenceIDGenerator struct {
	prefix string
	n      atomic.Int64
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	return fmt.Sprintf("%s-%03d", g.prefix, g.n.Add(1)), nil
}

type scriptedCodeGenerator struct {
	codes []string
	next  atomic.Int64
}

func (g *scriptedCodeGenerator) NewCode(_ int) (string, error) {
	i := int(g.next.Add(1)) - 1
	if i >= len(g.codes) {
		return "", fmt.Errorf("no more scripted codes")
	}
	return g.codes[i], nil
}

// harness wires every service over one in-memory document store.
type harness struct {
	store        *docstore.MemoryStore
	drivers      *document.DriverRepository
	constructors *document.ConstructorRepository
	races        *document.RaceRepository
	fantasyTeams *document.FantasyTeamRepository
	leagues      *document.LeagueRepository
	memberships  *document.MembershipRepository
	users        *document.UserRepository

	clock       *clockwork.FakeClock
	propagation *PropagationService
	assignment  *AssignmentService
	recorder    *RaceResultService
	roster      *RosterService
	leagueSvc   *LeagueService
	standings   *StandingsService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := docstore.NewMemoryStore(&sequenceIDGenerator{prefix: "doc"})
	h := &harness{
		store:        store,
		drivers:      document.NewDriverRepository(store),
		constructors: document.NewConstructorRepository(store),
		races:        document.NewRaceRepository(store),
		fantasyTeams: document.NewFantasyTeamRepository(store),
		leagues:      document.NewLeagueRepository(store),
		memberships:  document.NewMembershipRepository(store),
		users:        document.NewUserRepository(store),
		clock:        clockwork.NewFakeClockAt(time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)),
	}

	logger := logging.NewNop()
	locks := keylock.New()
	h.propagation = NewPropagationService(h.drivers, h.constructors, h.fantasyTeams, locks, 4, logger)
	h.assignment = NewAssignmentService(h.drivers, h.constructors, h.propagation, locks, &sequenceIDGenerator{prefix: "ctor"}, logger)
	h.recorder = NewRaceResultService(h.races, h.drivers, h.propagation, locks, &sequenceIDGenerator{prefix: "race"}, RaceResultModeCorrection, logger)
	h.roster = NewRosterService(h.drivers, h.constructors, h.fantasyTeams, h.memberships, h.propagation, fantasy.DefaultRules(), h.clock, logger)
	h.leagueSvc = NewLeagueService(h.leagues, h.memberships, h.fantasyTeams, h.constructors, &scriptedCodeGenerator{codes: []string{"JOINME01", "JOINME02", "JOINME03"}}, 8, locks, h.clock, logger)
	h.standings = NewStandingsService(h.leagues, h.memberships, h.fantasyTeams, h.users, logger)
	return h
}

func (h *harness) seedDriver(t *testing.T, d driver.Driver) driver.Driver {
	t.Helper()
	if err := h.drivers.Upsert(t.Context(), d); err != nil {
		t.Fatalf("seed driver %s: %v", d.ID, err)
	}
	return d
}

func (h *harness) seedConstructor(t *testing.T, team constructor.Team) constructor.Team {
	t.Helper()
	if err := h.constructors.Upsert(t.Context(), team); err != nil {
		t.Fatalf("seed constructor %s: %v", team.ID, err)
	}
	for _, driverID := range team.DriverIDs {
		if err := h.drivers.SetTeam(t.Context(), driverID, team.ID); err != nil {
			t.Fatalf("seed assignment %s -> %s: %v", driverID, team.ID, err)
		}
	}
	return team
}

func (h *harness) driver(t *testing.T, driverID string) driver.Driver {
	t.Helper()
	d, ok, err := h.drivers.GetByID(t.Context(), driverID)
	if err != nil || !ok {
		t.Fatalf("get driver %s: ok=%v err=%v", driverID, ok, err)
	}
	return d
}

func (h *harness) constructor(t *testing.T, teamID string) constructor.Team {
	t.Helper()
	team, ok, err := h.constructors.GetByID(t.Context(), teamID)
	if err != nil || !ok {
		t.Fatalf("get constructor %s: ok=%v err=%v", teamID, ok, err)
	}
	return team
}

func (h *harness) fantasyTeam(t *testing.T, teamID string) fantasy.Team {
	t.Helper()
	team, ok, err := h.fantasyTeams.GetByID(t.Context(), teamID)
	if err != nil || !ok {
		t.Fatalf("get fantasy team %s: ok=%v err=%v", teamID, ok, err)
	}
	return team
}

// assertExclusive fails if any driver sits in two constructor sets or if a
// driver's team_id disagrees with the set it is in.
func (h *harness) assertExclusive(t *testing.T) {
	t.Helper()

	teams, err := h.constructors.List(t.Context())
	if err != nil {
		t.Fatalf("list constructors: %v", err)
	}
	owner := make(map[string]string)
	for _, team := range teams {
		for _, driverID := range team.DriverIDs {
			if prev, ok := owner[driverID]; ok {
				t.Fatalf("driver %s is in both %s and %s", driverID, prev, team.ID)
			}
			owner[driverID] = team.ID
		}
	}

	drivers, err := h.drivers.List(t.Context())
	if err != nil {
		t.Fatalf("list drivers: %v", err)
	}
	for _, d := range drivers {
		if owner[d.ID] != d.TeamID {
			t.Fatalf("driver %s team_id=%q but listed by %q", d.ID, d.TeamID, owner[d.ID])
		}
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

func stringPtr(v string) *string {
	return &v
}

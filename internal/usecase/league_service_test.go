package usecase

import (
	"errors"
	"testing"

	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
)

func TestLeagueService_CreatePrivateLeague_CreatorJoinsAndCodeIsMembersOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := t.Context()

	created, err := h.leagueSvc.CreateLeague(ctx, CreateLeagueInput{CreatorID: "u1", Name: "Office Cup", Type: league.TypePrivate})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	if created.Code != "JOINME01" {
		t.Fatalf("expected scripted join code, got %q", created.Code)
	}
	if _, ok, _ := h.memberships.Get(ctx, created.ID, "u1"); !ok {
		t.Fatalf("expected creator membership")
	}

	asMember, err := h.leagueSvc.GetLeagueInfo(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("league info: %v", err)
	}
	if !asMember.IsMember || asMember.League.Code != "JOINME01" || asMember.MemberCount != 1 {
		t.Fatalf("unexpected member view: %+v", asMember)
	}
	asStranger, err := h.leagueSvc.GetLeagueInfo(ctx, "u2", created.ID)
	if err != nil {
		t.Fatalf("league info: %v", err)
	}
	if asStranger.IsMember || asStranger.League.Code != "" {
		t.Fatalf("code leaked to non-member: %+v", asStranger)
	}

	all, err := h.leagueSvc.ListLeagues(ctx)
	if err != nil || len(all) != 1 || all[0].Code != "" {
		t.Fatalf("expected redacted league list, got %+v err=%v", all, err)
	}
}

func TestLeagueService_CreatePrivateLeague_RegeneratesTakenCode(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := t.Context()

	first, err := h.leagueSvc.CreateLeague(ctx, CreateLeagueInput{CreatorID: "u1", Name: "One", Type: league.TypePrivate})
	if err != nil {
		t.Fatalf("create first league: %v", err)
	}
	h.leagueSvc.codes = &scriptedCodeGenerator{codes: []string{first.Code, "FRESH002"}}

	second, err := h.leagueSvc.CreateLeague(ctx, CreateLeagueInput{CreatorID: "u2", Name: "Two", Type: league.TypePrivate})
	if err != nil {
		t.Fatalf("create second league: %v", err)
	}
	if second.Code != "FRESH002" {
		t.Fatalf("expected regenerated code, got %q", second.Code)
	}
}

func TestLeagueService_JoinPrivateLeague(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := t.Context()
	created, err := h.leagueSvc.CreateLeague(ctx, CreateLeagueInput{CreatorID: "u1", Name: "Office Cup", Type: league.TypePrivate})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}

	if _, err := h.leagueSvc.JoinPrivateLeague(ctx, "u2", "WRONG"); !errors.Is(err, ErrInvalidJoinCode) {
		t.Fatalf("expected ErrInvalidJoinCode, got %v", err)
	}
	if _, err := h.leagueSvc.JoinPrivateLeague(ctx, "", created.Code); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	joined, err := h.leagueSvc.JoinPrivateLeague(ctx, "u2", " joinme01 ")
	if err != nil {
		t.Fatalf("join private league: %v", err)
	}
	if joined.ID != created.ID {
		t.Fatalf("joined the wrong league: %s", joined.ID)
	}
	if _, err := h.leagueSvc.JoinPrivateLeague(ctx, "u2", created.Code); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}

	mine, err := h.leagueSvc.ListJoinedLeagues(ctx, "u2")
	if err != nil || len(mine) != 1 || mine[0].Code != created.Code {
		t.Fatalf("expected joined league with code, got %+v err=%v", mine, err)
	}
}

func TestLeagueService_JoinPublicLeague(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := t.Context()
	public, err := h.leagueSvc.CreateLeague(ctx, CreateLeagueInput{CreatorID: "u1", Name: "Open", Type: league.TypePublic})
	if err != nil {
		t.Fatalf("create public league: %v", err)
	}
	private, err := h.leagueSvc.CreateLeague(ctx, CreateLeagueInput{CreatorID: "u1", Name: "Closed", Type: league.TypePrivate})
	if err != nil {
		t.Fatalf("create private league: %v", err)
	}
	if public.Code != "" {
		t.Fatalf("public league must not carry a code, got %q", public.Code)
	}

	if _, err := h.leagueSvc.JoinPublicLeague(ctx, "u2", public.ID); err != nil {
		t.Fatalf("join public league: %v", err)
	}
	if _, err := h.leagueSvc.JoinPublicLeague(ctx, "u2", public.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
	if _, err := h.leagueSvc.JoinPublicLeague(ctx, "u2", private.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for private league, got %v", err)
	}
	if _, err := h.leagueSvc.JoinPublicLeague(ctx, "u2", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	publicOnly, err := h.leagueSvc.ListPublicLeagues(ctx)
	if err != nil || len(publicOnly) != 1 || publicOnly[0].ID != public.ID {
		t.Fatalf("expected only the public league, got %+v err=%v", publicOnly, err)
	}
}

func TestLeagueService_CreateLeague_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if _, err := h.leagueSvc.CreateLeague(t.Context(), CreateLeagueInput{CreatorID: "u1", Name: "X", Type: "secret"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad type, got %v", err)
	}
	if _, err := h.leagueSvc.CreateLeague(t.Context(), CreateLeagueInput{CreatorID: "u1", Type: league.TypePublic}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, err := h.leagueSvc.CreateLeague(t.Context(), CreateLeagueInput{Name: "X", Type: league.TypePublic}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLeagueService_SelectLeagueTeam(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := t.Context()
	seedGrid(t, h)
	h.seedConstructor(t, constructor.Team{ID: "V", Name: "Vector"})

	restricted, err := h.leagueSvc.CreateLeague(ctx, CreateLeagueInput{CreatorID: "u1", Name: "Torque Fans", Type: league.TypePublic, TeamRestriction: "torque"})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	torqueTeam, err := h.roster.CreateFantasyTeam(ctx, CreateFantasyTeamInput{
		UserID: "u1", Name: "Apex", DriverIDs: []string{"A", "B", "C", "D", "E"}, ConstructorID: "T",
	})
	if err != nil {
		t.Fatalf("create torque roster: %v", err)
	}
	vectorTeam, err := h.roster.CreateFantasyTeam(ctx, CreateFantasyTeamInput{
		UserID: "u1", Name: "Arrow", DriverIDs: []string{"A", "B", "C", "D", "E"}, ConstructorID: "V",
	})
	if err != nil {
		t.Fatalf("create vector roster: %v", err)
	}
	strangerTeam, err := h.roster.CreateFantasyTeam(ctx, CreateFantasyTeamInput{
		UserID: "u2", Name: "Other", DriverIDs: []string{"A", "B", "C", "D", "E"}, ConstructorID: "T",
	})
	if err != nil {
		t.Fatalf("create stranger roster: %v", err)
	}

	tests := []struct {
		name      string
		userID    string
		teamID    string
		targetErr error
	}{
		{name: "not a member", userID: "u2", teamID: strangerTeam.ID, targetErr: ErrForbidden},
		{name: "unknown team", userID: "u1", teamID: "missing", targetErr: ErrNotFound},
		{name: "someone else's team", userID: "u1", teamID: strangerTeam.ID, targetErr: ErrForbidden},
		{name: "restriction mismatch", userID: "u1", teamID: vectorTeam.ID, targetErr: ErrInvalidInput},
		{name: "restriction matched by name", userID: "u1", teamID: torqueTeam.ID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := h.leagueSvc.SelectLeagueTeam(t.Context(), tc.userID, restricted.ID, tc.teamID)
			if tc.targetErr == nil && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if tc.targetErr != nil && !errors.Is(err, tc.targetErr) {
				t.Fatalf("expected %v, got %v", tc.targetErr, err)
			}
		})
	}

	m, _, _ := h.memberships.Get(ctx, restricted.ID, "u1")
	if m.TeamID != torqueTeam.ID {
		t.Fatalf("expected selection %s, got %q", torqueTeam.ID, m.TeamID)
	}
}

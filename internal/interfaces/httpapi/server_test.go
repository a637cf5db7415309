package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/grid-fantasy/internal/domain/fantasy"
	"github.com/riskibarqy/grid-fantasy/internal/domain/user"
	"github.com/riskibarqy/grid-fantasy/internal/infrastructure/repository/document"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
	"github.com/riskibarqy/grid-fantasy/internal/platform/id"
	"github.com/riskibarqy/grid-fantasy/internal/platform/keylock"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"github.com/riskibarqy/grid-fantasy/internal/usecase"
)

const (
	adminToken = "admin-token"
	aliceToken = "alice-token"
	bobToken   = "bob-token"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := docstore.NewMemoryStore(id.NewUUIDGenerator())
	drivers := document.NewDriverRepository(store)
	constructors := document.NewConstructorRepository(store)
	races := document.NewRaceRepository(store)
	fantasyTeams := document.NewFantasyTeamRepository(store)
	leagues := document.NewLeagueRepository(store)
	memberships := document.NewMembershipRepository(store)
	users := document.NewUserRepository(store)

	logger := logging.NewNop()
	locks := keylock.New()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC))
	ids := id.NewUUIDGenerator()

	propagation := usecase.NewPropagationService(drivers, constructors, fantasyTeams, locks, 2, logger)
	handler := NewHandler(
		usecase.NewCatalogService(drivers, constructors, races),
		usecase.NewAssignmentService(drivers, constructors, propagation, locks, ids, logger),
		usecase.NewRaceResultService(races, drivers, propagation, locks, ids, usecase.RaceResultModeCorrection, logger),
		usecase.NewRosterService(drivers, constructors, fantasyTeams, memberships, propagation, fantasy.DefaultRules(), clock, logger),
		usecase.NewLeagueService(leagues, memberships, fantasyTeams, constructors, id.NewRandomCodeGenerator(), 8, locks, clock, logger),
		usecase.NewStandingsService(leagues, memberships, fantasyTeams, users, logger),
		propagation,
		logger,
	)

	verifier := stubVerifier{
		adminToken: {UserID: "admin", Username: "marshal", Role: user.RoleAdmin},
		aliceToken: {UserID: "alice", Username: "alice", Role: user.RoleUser},
		bobToken:   {UserID: "bob", Username: "bob", Role: user.RoleUser},
	}
	return NewRouter(handler, verifier, usecase.NewUserService(users, logger), logger, []string{"*"})
}

type testEnvelope[T any] struct {
	Data  T                `json:"data"`
	Error *googleErrorBody `json:"error"`
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()

	var out testEnvelope[T]
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func seedRouterGrid(t *testing.T, router http.Handler) {
	t.Helper()

	for _, d := range []struct {
		id    string
		name  string
		price int64
	}{
		{"A", "Alice Vance", 10_000_000},
		{"B", "Bruno Costa", 12_000_000},
		{"C", "Chen Wei", 9_000_000},
		{"D", "Dara Holt", 8_000_000},
		{"E", "Eli Moss", 7_000_000},
	} {
		rec := doRequest(t, router, http.MethodPut, "/v1/admin/drivers/"+d.id, adminToken, map[string]any{"name": d.name, "price": d.price})
		expectStatus(t, rec, http.StatusOK)
	}

	rec := doRequest(t, router, http.MethodPut, "/v1/admin/constructors/T", adminToken, map[string]any{
		"name": "Torque", "driver_ids": []string{"A", "B"}, "price": 20_000_000,
	})
	expectStatus(t, rec, http.StatusOK)
}

func TestRouter_HealthzIsPublic(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeEnvelope[map[string]string](t, rec).Data["status"]; got != "ok" {
		t.Fatalf("unexpected health status %q", got)
	}
}

func TestRouter_AdminRoutesRequireAdminRole(t *testing.T) {
	router := newTestRouter(t)
	body := map[string]any{"name": "Bahrain", "date": "2026-03-01", "results": map[string]int64{}}

	expectStatus(t, doRequest(t, router, http.MethodPost, "/v1/admin/races", "", body), http.StatusUnauthorized)
	expectStatus(t, doRequest(t, router, http.MethodPost, "/v1/admin/races", "unknown", body), http.StatusUnauthorized)
	expectStatus(t, doRequest(t, router, http.MethodPost, "/v1/admin/races", aliceToken, body), http.StatusForbidden)
	expectStatus(t, doRequest(t, router, http.MethodPost, "/v1/admin/races", adminToken, body), http.StatusCreated)
}

func TestRouter_ConstructorConflictListsDrivers(t *testing.T) {
	router := newTestRouter(t)
	seedRouterGrid(t, router)

	rec := doRequest(t, router, http.MethodPost, "/v1/admin/constructors", adminToken, map[string]any{
		"name": "Vector", "driver_ids": []string{"B", "C"},
	})
	expectStatus(t, rec, http.StatusConflict)

	env := decodeEnvelope[any](t, rec)
	if env.Error == nil || len(env.Error.Conflicts) != 1 || env.Error.Conflicts[0] != "B" {
		t.Fatalf("expected conflict on B, got %+v", env.Error)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/drivers/C", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeEnvelope[driverDTO](t, rec).Data.TeamID; got != "" {
		t.Fatalf("rejected request must not assign C, got team %q", got)
	}
}

func TestRouter_RejectsUnknownFields(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/v1/admin/drivers", adminToken, map[string]any{"name": "X", "nickname": "y"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestRouter_RaceResultPropagatesToFantasyStandings(t *testing.T) {
	router := newTestRouter(t)
	seedRouterGrid(t, router)

	rec := doRequest(t, router, http.MethodPost, "/v1/leagues", aliceToken, map[string]any{"name": "Paddock Club", "type": "public"})
	expectStatus(t, rec, http.StatusCreated)
	leagueID := decodeEnvelope[leagueDTO](t, rec).Data.ID

	rec = doRequest(t, router, http.MethodPost, "/v1/fantasy-teams", aliceToken, map[string]any{
		"name": "Apex", "driver_ids": []string{"A", "B", "C", "D", "E"}, "constructor_id": "T",
	})
	expectStatus(t, rec, http.StatusCreated)
	created := decodeEnvelope[fantasyTeamDTO](t, rec).Data
	if created.Price != 66_000_000 || created.Points != 0 {
		t.Fatalf("unexpected new fantasy team: %+v", created)
	}

	rec = doRequest(t, router, http.MethodPut, "/v1/leagues/"+leagueID+"/team", aliceToken, map[string]any{"fantasy_team_id": created.ID})
	expectStatus(t, rec, http.StatusOK)

	rec = doRequest(t, router, http.MethodPut, "/v1/admin/races/bahrain", adminToken, map[string]any{
		"name":    "Bahrain",
		"date":    "2026-03-01",
		"results": map[string]int64{"A": 25, "Bruno Costa": 18, "Nobody": 1},
	})
	expectStatus(t, rec, http.StatusOK)
	result := decodeEnvelope[raceResultDTO](t, rec).Data
	if len(result.Applied) != 2 || len(result.Skipped) != 1 || result.Skipped[0].Key != "Nobody" {
		t.Fatalf("unexpected race result: %+v", result)
	}
	if result.Mode != string(usecase.RaceResultModeCorrection) {
		t.Fatalf("expected default correction mode, got %q", result.Mode)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/constructors", "", nil)
	expectStatus(t, rec, http.StatusOK)
	teams := decodeEnvelope[[]constructorDTO](t, rec).Data
	if len(teams) != 1 || teams[0].Score != 43 {
		t.Fatalf("expected constructor score 43, got %+v", teams)
	}

	expectStatus(t, doRequest(t, router, http.MethodPost, "/v1/admin/reconcile", adminToken, nil), http.StatusOK)

	rec = doRequest(t, router, http.MethodGet, "/v1/leagues/"+leagueID+"/standings", "", nil)
	expectStatus(t, rec, http.StatusOK)
	rows := decodeEnvelope[[]usecase.Standing](t, rec).Data
	if len(rows) != 1 || rows[0].Points != 86 || rows[0].Rank != 1 || rows[0].DisplayName != "alice" {
		t.Fatalf("unexpected standings: %+v", rows)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/fantasy-teams/"+created.ID, bobToken, nil)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestRouter_PrivateLeagueJoinFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/v1/leagues", aliceToken, map[string]any{"name": "Office Cup", "type": "private"})
	expectStatus(t, rec, http.StatusCreated)
	created := decodeEnvelope[leagueDTO](t, rec).Data
	if created.Code == "" {
		t.Fatalf("expected join code for private league")
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/leagues/"+created.ID, bobToken, nil)
	expectStatus(t, rec, http.StatusOK)
	if info := decodeEnvelope[leagueInfoDTO](t, rec).Data; info.IsMember || info.League.Code != "" {
		t.Fatalf("non-member must not see the code: %+v", info)
	}

	expectStatus(t, doRequest(t, router, http.MethodPost, "/v1/leagues/join", bobToken, map[string]any{"code": "NOPE0000"}), http.StatusNotFound)
	expectStatus(t, doRequest(t, router, http.MethodPost, "/v1/leagues/join", bobToken, map[string]any{"code": created.Code}), http.StatusOK)
	expectStatus(t, doRequest(t, router, http.MethodPost, "/v1/leagues/join", bobToken, map[string]any{"code": created.Code}), http.StatusConflict)

	rec = doRequest(t, router, http.MethodGet, "/v1/me/leagues", bobToken, nil)
	expectStatus(t, rec, http.StatusOK)
	if mine := decodeEnvelope[[]leagueDTO](t, rec).Data; len(mine) != 1 || mine[0].ID != created.ID {
		t.Fatalf("unexpected joined leagues: %+v", mine)
	}
}

func TestRouter_DriverPointsOverrideRescoresConstructor(t *testing.T) {
	router := newTestRouter(t)
	seedRouterGrid(t, router)

	rec := doRequest(t, router, http.MethodPut, "/v1/admin/drivers/A", adminToken, map[string]any{
		"name": "Alice Vance", "price": 10_000_000, "points": 40,
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeEnvelope[driverDTO](t, rec).Data; got.Points != 40 || got.TeamID != "T" {
		t.Fatalf("unexpected driver: %+v", got)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/constructors", "", nil)
	expectStatus(t, rec, http.StatusOK)
	teams := decodeEnvelope[[]constructorDTO](t, rec).Data
	if len(teams) != 1 || teams[0].Score != 40 {
		t.Fatalf("expected constructor score 40, got %+v", teams)
	}

	rec = doRequest(t, router, http.MethodPut, "/v1/admin/drivers/A", adminToken, map[string]any{
		"name": "Alice Vance", "points": -1,
	})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestRouter_RejectsDottedRaceID(t *testing.T) {
	router := newTestRouter(t)
	seedRouterGrid(t, router)

	rec := doRequest(t, router, http.MethodPut, "/v1/admin/races/2026.bahrain", adminToken, map[string]any{
		"name": "Bahrain", "date": "2026-03-01", "results": map[string]int64{"A": 25},
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = doRequest(t, router, http.MethodGet, "/v1/drivers", "", nil)
	expectStatus(t, rec, http.StatusOK)
	for _, d := range decodeEnvelope[[]driverDTO](t, rec).Data {
		if d.Points != 0 || len(d.Races) != 0 {
			t.Fatalf("rejected race must not touch drivers, got %+v", d)
		}
	}
}

func TestRouter_RosterShapeErrorsUseRosterReason(t *testing.T) {
	router := newTestRouter(t)
	seedRouterGrid(t, router)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "no drivers or constructor", body: map[string]any{"name": "Apex"}},
		{name: "missing constructor", body: map[string]any{"name": "Apex", "driver_ids": []string{"A", "B", "C", "D", "E"}}},
		{name: "too few drivers", body: map[string]any{"name": "Apex", "driver_ids": []string{"A"}, "constructor_id": "T"}},
		{name: "missing name", body: map[string]any{"driver_ids": []string{"A", "B", "C", "D", "E"}, "constructor_id": "T"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/v1/fantasy-teams", aliceToken, tc.body)
			expectStatus(t, rec, http.StatusBadRequest)
			env := decodeEnvelope[any](t, rec)
			if env.Error == nil || len(env.Error.Errors) != 1 || env.Error.Errors[0].Reason != "invalidRoster" {
				t.Fatalf("expected invalidRoster, got %+v", env.Error)
			}
		})
	}
}

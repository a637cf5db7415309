package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/drivers", handler.ListDrivers)
	mux.HandleFunc("GET /v1/drivers/{driverID}", handler.GetDriver)
	mux.HandleFunc("GET /v1/constructors", handler.ListConstructors)
	mux.HandleFunc("GET /v1/races", handler.ListRaces)
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/public", handler.ListPublicLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/standings", handler.GetLeagueStandings)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, auth authChain) {
	registerAuthorizedLeagueRoutes(mux, handler, auth)
	registerAuthorizedFantasyRoutes(mux, handler, auth)
}

func registerAuthorizedLeagueRoutes(mux *http.ServeMux, handler *Handler, auth authChain) {
	mux.Handle("GET /v1/me/leagues", auth.user(handler.ListMyLeagues))
	mux.Handle("GET /v1/leagues/{leagueID}", auth.user(handler.GetLeagueInfo))
	mux.Handle("POST /v1/leagues", auth.user(handler.CreateLeague))
	mux.Handle("POST /v1/leagues/join", auth.user(handler.JoinPrivateLeague))
	mux.Handle("POST /v1/leagues/{leagueID}/join", auth.user(handler.JoinPublicLeague))
	mux.Handle("PUT /v1/leagues/{leagueID}/team", auth.user(handler.SelectLeagueTeam))
}

func registerAuthorizedFantasyRoutes(mux *http.ServeMux, handler *Handler, auth authChain) {
	mux.Handle("GET /v1/fantasy-teams", auth.user(handler.ListMyFantasyTeams))
	mux.Handle("POST /v1/fantasy-teams", auth.user(handler.CreateFantasyTeam))
	mux.Handle("GET /v1/fantasy-teams/{teamID}", auth.user(handler.GetFantasyTeam))
	mux.Handle("DELETE /v1/fantasy-teams/{teamID}", auth.user(handler.DeleteFantasyTeam))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, auth authChain) {
	mux.Handle("POST /v1/admin/constructors", auth.admin(handler.UpsertConstructor))
	mux.Handle("PUT /v1/admin/constructors/{teamID}", auth.admin(handler.UpsertConstructor))
	mux.Handle("POST /v1/admin/constructors/by-name", auth.admin(handler.UpsertConstructorByNames))
	mux.Handle("POST /v1/admin/drivers", auth.admin(handler.UpsertDriver))
	mux.Handle("PUT /v1/admin/drivers/{driverID}", auth.admin(handler.UpsertDriver))
	mux.Handle("POST /v1/admin/races", auth.admin(handler.RecordRaceResult))
	mux.Handle("PUT /v1/admin/races/{raceID}", auth.admin(handler.RecordRaceResult))
	mux.Handle("POST /v1/admin/reconcile", auth.admin(handler.ReconcileAll))
}

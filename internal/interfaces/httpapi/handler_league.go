package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
	"github.com/riskibarqy/grid-fantasy/internal/usecase"
)

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	items, err := h.leagueService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaguesToDTO(items))
}

func (h *Handler) ListPublicLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPublicLeagues")
	defer span.End()

	items, err := h.leagueService.ListPublicLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list public leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaguesToDTO(items))
}

func (h *Handler) ListMyLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyLeagues")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	items, err := h.leagueService.ListJoinedLeagues(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list joined leagues failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaguesToDTO(items))
}

func (h *Handler) GetLeagueInfo(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeagueInfo")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	info, err := h.leagueService.GetLeagueInfo(ctx, principal.UserID, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get league info failed", "league_id", leagueID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueInfoDTO{
		League:      leagueToDTO(info.League),
		MemberCount: info.MemberCount,
		IsMember:    info.IsMember,
		MyTeamID:    info.MyTeamID,
	})
}

func (h *Handler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateLeague")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	var req createLeagueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.leagueService.CreateLeague(ctx, usecase.CreateLeagueInput{
		CreatorID:       principal.UserID,
		Name:            req.Name,
		Type:            league.Type(req.Type),
		TeamRestriction: req.TeamRestriction,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create league failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, leagueToDTO(created))
}

func (h *Handler) JoinPrivateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinPrivateLeague")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	var req joinPrivateLeagueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	joined, err := h.leagueService.JoinPrivateLeague(ctx, principal.UserID, req.Code)
	if err != nil {
		h.logger.WarnContext(ctx, "join private league failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(joined))
}

func (h *Handler) JoinPublicLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinPublicLeague")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	joined, err := h.leagueService.JoinPublicLeague(ctx, principal.UserID, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "join public league failed", "league_id", leagueID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(joined))
}

func (h *Handler) SelectLeagueTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SelectLeagueTeam")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	var req selectLeagueTeamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	if err := h.leagueService.SelectLeagueTeam(ctx, principal.UserID, leagueID, req.FantasyTeamID); err != nil {
		h.logger.WarnContext(ctx, "select league team failed",
			"league_id", leagueID,
			"user_id", principal.UserID,
			"fantasy_team_id", req.FantasyTeamID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"league_id":       leagueID,
		"fantasy_team_id": req.FantasyTeamID,
	})
}

func (h *Handler) GetLeagueStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeagueStandings")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	rows, err := h.standingsService.GetLeagueStandings(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get league standings failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if rows == nil {
		rows = []usecase.Standing{}
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

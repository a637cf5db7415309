package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/grid-fantasy/internal/usecase"
)

func (h *Handler) ListMyFantasyTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyFantasyTeams")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	views, err := h.rosterService.ListMyFantasyTeams(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list fantasy teams failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fantasyTeamViewDTO, 0, len(views))
	for _, v := range views {
		items = append(items, fantasyTeamViewToDTO(v))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetFantasyTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFantasyTeam")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	view, err := h.rosterService.GetFantasyTeam(ctx, principal.UserID, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fantasy team failed", "fantasy_team_id", teamID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fantasyTeamViewToDTO(view))
}

func (h *Handler) CreateFantasyTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateFantasyTeam")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	var req createFantasyTeamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.rosterService.CreateFantasyTeam(ctx, usecase.CreateFantasyTeamInput{
		UserID:        principal.UserID,
		Name:          req.Name,
		DriverIDs:     req.DriverIDs,
		ConstructorID: req.ConstructorID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create fantasy team failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, fantasyTeamToDTO(created))
}

func (h *Handler) DeleteFantasyTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteFantasyTeam")
	defer span.End()

	principal, ok := requirePrincipal(w, r.WithContext(ctx))
	if !ok {
		return
	}

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	if err := h.rosterService.DeleteFantasyTeam(ctx, principal.UserID, teamID); err != nil {
		h.logger.WarnContext(ctx, "delete fantasy team failed", "fantasy_team_id", teamID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"deleted": true})
}

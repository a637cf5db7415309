package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/grid-fantasy/internal/usecase"
)

// UpsertConstructor serves both create (POST) and update (PUT with an id
// in the path).
func (h *Handler) UpsertConstructor(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertConstructor")
	defer span.End()

	var req upsertConstructorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	team, err := h.assignmentService.UpsertConstructor(ctx, usecase.UpsertConstructorInput{
		ID:        teamID,
		Name:      req.Name,
		DriverIDs: req.DriverIDs,
		Score:     req.Score,
		Price:     req.Price,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upsert constructor failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, upsertStatus(teamID), constructorToDTO(team))
}

func (h *Handler) UpsertConstructorByNames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertConstructorByNames")
	defer span.End()

	var req upsertConstructorByNamesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.assignmentService.UpsertConstructorByNames(ctx, usecase.UpsertConstructorByNamesInput{
		ID:          req.ID,
		Name:        req.Name,
		DriverNames: req.DriverNames,
		Price:       req.Price,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upsert constructor by names failed", "name", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}

	created := result.CreatedDrivers
	if created == nil {
		created = []string{}
	}
	reassigned := result.ReassignedDrivers
	if reassigned == nil {
		reassigned = []string{}
	}
	writeSuccess(ctx, w, upsertStatus(req.ID), constructorByNamesDTO{
		Constructor:       constructorToDTO(result.Team),
		CreatedDrivers:    created,
		ReassignedDrivers: reassigned,
	})
}

func (h *Handler) UpsertDriver(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertDriver")
	defer span.End()

	var req upsertDriverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	driverID := strings.TrimSpace(r.PathValue("driverID"))
	item, err := h.assignmentService.UpsertDriver(ctx, usecase.UpsertDriverInput{
		ID:     driverID,
		Name:   req.Name,
		Price:  req.Price,
		Points: req.Points,
		TeamID: req.TeamID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upsert driver failed", "driver_id", driverID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, upsertStatus(driverID), driverToDTO(item))
}

func (h *Handler) RecordRaceResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordRaceResult")
	defer span.End()

	var req recordRaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	date, err := parseRaceDate(req.Date)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	mode, err := usecase.ParseRaceResultMode(req.Mode, h.raceResultService.DefaultMode())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	raceID := strings.TrimSpace(r.PathValue("raceID"))
	out, err := h.raceResultService.RecordRaceResult(ctx, usecase.RecordRaceResultInput{
		ID:      raceID,
		Name:    req.Name,
		Date:    date,
		Results: req.Results,
		Mode:    mode,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record race result failed", "race_id", raceID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, upsertStatus(raceID), raceResultToDTO(out))
}

func (h *Handler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReconcileAll")
	defer span.End()

	report, err := h.propagationService.ReconcileAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "reconcile failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reconcileDTO{
		Constructors: report.Constructors,
		FantasyTeams: report.FantasyTeams,
		DurationMS:   report.Duration.Milliseconds(),
	})
}

func upsertStatus(pathID string) int {
	if pathID == "" {
		return http.StatusCreated
	}
	return http.StatusOK
}

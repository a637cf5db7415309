package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDrivers")
	defer span.End()

	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	drivers, err := h.catalogService.ListDrivers(ctx, prefix)
	if err != nil {
		h.logger.ErrorContext(ctx, "list drivers failed", "prefix", prefix, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]driverDTO, 0, len(drivers))
	for _, d := range drivers {
		items = append(items, driverToDTO(d))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetDriver(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDriver")
	defer span.End()

	driverID := strings.TrimSpace(r.PathValue("driverID"))
	item, err := h.catalogService.GetDriver(ctx, driverID)
	if err != nil {
		h.logger.WarnContext(ctx, "get driver failed", "driver_id", driverID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, driverToDTO(item))
}

func (h *Handler) ListConstructors(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListConstructors")
	defer span.End()

	teams, err := h.catalogService.ListConstructors(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list constructors failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]constructorDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, constructorToDTO(t))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListRaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRaces")
	defer span.End()

	races, err := h.catalogService.ListRaces(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list races failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]raceDTO, 0, len(races))
	for _, item := range races {
		items = append(items, raceToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

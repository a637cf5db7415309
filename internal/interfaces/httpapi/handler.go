package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/grid-fantasy/internal/domain/user"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"github.com/riskibarqy/grid-fantasy/internal/usecase"
)

type Handler struct {
	catalogService     *usecase.CatalogService
	assignmentService  *usecase.AssignmentService
	raceResultService  *usecase.RaceResultService
	rosterService      *usecase.RosterService
	leagueService      *usecase.LeagueService
	standingsService   *usecase.StandingsService
	propagationService *usecase.PropagationService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	catalogService *usecase.CatalogService,
	assignmentService *usecase.AssignmentService,
	raceResultService *usecase.RaceResultService,
	rosterService *usecase.RosterService,
	leagueService *usecase.LeagueService,
	standingsService *usecase.StandingsService,
	propagationService *usecase.PropagationService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		catalogService:     catalogService,
		assignmentService:  assignmentService,
		raceResultService:  raceResultService,
		rosterService:      rosterService,
		leagueService:      leagueService,
		standingsService:   standingsService,
		propagationService: propagationService,
		logger:             logger.Named("httpapi"),
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func requirePrincipal(w http.ResponseWriter, r *http.Request) (user.Principal, bool) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return user.Principal{}, false
	}
	return principal, true
}

package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/grid-fantasy/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

var strictJSON = jsoniter.Config{
	EscapeHTML:             true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// decodeJSON reads one JSON object into dst, rejecting unknown fields and
// oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := strictJSON.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// parseRaceDate accepts a calendar date or an RFC 3339 timestamp.
func parseRaceDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD or RFC 3339", usecase.ErrInvalidInput)
	}
	return t.UTC(), nil
}

type upsertConstructorRequest struct {
	Name      string   `json:"name" validate:"required,max=100"`
	DriverIDs []string `json:"driver_ids" validate:"dive,required"`
	Score     *int64   `json:"score" validate:"omitempty"`
	Price     *int64   `json:"price" validate:"omitempty,min=0"`
}

type upsertConstructorByNamesRequest struct {
	ID          string   `json:"id" validate:"omitempty,max=64"`
	Name        string   `json:"name" validate:"required,max=100"`
	DriverNames []string `json:"driver_names" validate:"dive,required"`
	Price       *int64   `json:"price" validate:"omitempty,min=0"`
}

type upsertDriverRequest struct {
	Name   string  `json:"name" validate:"required,max=100"`
	Price  *int64  `json:"price" validate:"omitempty,min=0"`
	Points *int64  `json:"points" validate:"omitempty,min=0"`
	TeamID *string `json:"team_id" validate:"omitempty"`
}

type recordRaceRequest struct {
	Name    string           `json:"name" validate:"required,max=120"`
	Date    string           `json:"date" validate:"required"`
	Results map[string]int64 `json:"results" validate:"required"`
	Mode    string           `json:"mode" validate:"omitempty,oneof=correction append"`
}

type createLeagueRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Type            string `json:"type" validate:"required"`
	TeamRestriction string `json:"team_restriction" validate:"omitempty,max=100"`
}

type joinPrivateLeagueRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type selectLeagueTeamRequest struct {
	FantasyTeamID string `json:"fantasy_team_id" validate:"required"`
}

type createFantasyTeamRequest struct {
	Name          string   `json:"name" validate:"max=100"`
	DriverIDs     []string `json:"driver_ids"`
	ConstructorID string   `json:"constructor_id"`
}

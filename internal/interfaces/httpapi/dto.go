package httpapi

import (
	"time"

	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/domain/driver"
	"github.com/riskibarqy/grid-fantasy/internal/domain/fantasy"
	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
	"github.com/riskibarqy/grid-fantasy/internal/domain/race"
	"github.com/riskibarqy/grid-fantasy/internal/usecase"
)

type driverDTO struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Price  int64            `json:"price"`
	Points int64            `json:"points"`
	TeamID string           `json:"team_id,omitempty"`
	Races  map[string]int64 `json:"races,omitempty"`
}

type constructorDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DriverIDs []string `json:"driver_ids"`
	Score     int64    `json:"score"`
	Price     int64    `json:"price"`
}

type constructorByNamesDTO struct {
	Constructor       constructorDTO `json:"constructor"`
	CreatedDrivers    []string       `json:"created_drivers"`
	ReassignedDrivers []string       `json:"reassigned_drivers"`
}

type raceDTO struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Date    string           `json:"date"`
	Results map[string]int64 `json:"results"`
}

type raceResultDTO struct {
	Race    raceDTO                 `json:"race"`
	Mode    string                  `json:"mode"`
	Applied []usecase.AppliedResult `json:"applied"`
	Skipped []usecase.SkippedResult `json:"skipped"`
	Sweep   usecase.SweepReport     `json:"sweep"`
}

type reconcileDTO struct {
	Constructors usecase.SweepReport `json:"constructors"`
	FantasyTeams usecase.SweepReport `json:"fantasy_teams"`
	DurationMS   int64               `json:"duration_ms"`
}

type leagueDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	TeamRestriction string `json:"team_restriction,omitempty"`
	Code            string `json:"code,omitempty"`
	CreatorID       string `json:"creator_id"`
	CreatedAt       string `json:"created_at"`
}

type leagueInfoDTO struct {
	League      leagueDTO `json:"league"`
	MemberCount int       `json:"member_count"`
	IsMember    bool      `json:"is_member"`
	MyTeamID    string    `json:"my_team_id,omitempty"`
}

type fantasyTeamDTO struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	Name          string   `json:"name"`
	DriverIDs     []string `json:"driver_ids"`
	ConstructorID string   `json:"constructor_id"`
	Price         int64    `json:"price"`
	Points        int64    `json:"points"`
	CreatedAt     string   `json:"created_at"`
}

type fantasyTeamViewDTO struct {
	fantasyTeamDTO
	Drivers     []usecase.DriverSummary     `json:"drivers"`
	Constructor *usecase.ConstructorSummary `json:"constructor"`
}

func driverToDTO(d driver.Driver) driverDTO {
	return driverDTO{
		ID:     d.ID,
		Name:   d.Name,
		Price:  d.Price,
		Points: d.Points,
		TeamID: d.TeamID,
		Races:  d.Races,
	}
}

func constructorToDTO(t constructor.Team) constructorDTO {
	driverIDs := t.DriverIDs
	if driverIDs == nil {
		driverIDs = []string{}
	}
	return constructorDTO{
		ID:        t.ID,
		Name:      t.Name,
		DriverIDs: driverIDs,
		Score:     t.Score,
		Price:     t.Price,
	}
}

func raceToDTO(r race.Race) raceDTO {
	results := r.Results
	if results == nil {
		results = map[string]int64{}
	}
	return raceDTO{
		ID:      r.ID,
		Name:    r.Name,
		Date:    r.Date.UTC().Format(time.DateOnly),
		Results: results,
	}
}

func raceResultToDTO(out usecase.RecordRaceResultOutput) raceResultDTO {
	applied := out.Applied
	if applied == nil {
		applied = []usecase.AppliedResult{}
	}
	skipped := out.Skipped
	if skipped == nil {
		skipped = []usecase.SkippedResult{}
	}
	return raceResultDTO{
		Race:    raceToDTO(out.Race),
		Mode:    string(out.Mode),
		Applied: applied,
		Skipped: skipped,
		Sweep:   out.Sweep,
	}
}

func leagueToDTO(l league.League) leagueDTO {
	return leagueDTO{
		ID:              l.ID,
		Name:            l.Name,
		Type:            string(l.Type),
		TeamRestriction: l.TeamRestriction,
		Code:            l.Code,
		CreatorID:       l.CreatorID,
		CreatedAt:       l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func leaguesToDTO(items []league.League) []leagueDTO {
	out := make([]leagueDTO, 0, len(items))
	for _, l := range items {
		out = append(out, leagueToDTO(l))
	}
	return out
}

func fantasyTeamToDTO(t fantasy.Team) fantasyTeamDTO {
	return fantasyTeamDTO{
		ID:            t.ID,
		UserID:        t.UserID,
		Name:          t.Name,
		DriverIDs:     t.DriverIDs,
		ConstructorID: t.ConstructorID,
		Price:         t.Price,
		Points:        t.Points,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func fantasyTeamViewToDTO(v usecase.FantasyTeamView) fantasyTeamViewDTO {
	drivers := v.Drivers
	if drivers == nil {
		drivers = []usecase.DriverSummary{}
	}
	return fantasyTeamViewDTO{
		fantasyTeamDTO: fantasyTeamToDTO(v.Team),
		Drivers:        drivers,
		Constructor:    v.Constructor,
	}
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/domain/driver"
	"github.com/riskibarqy/grid-fantasy/internal/domain/fantasy"
	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// CreateFantasyTeamInput is the incoming roster for a new fantasy team.
type CreateFantasyTeamInput struct {
	UserID        string
	Name          string
	DriverIDs     []string
	ConstructorID string
}

type DriverSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

type ConstructorSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int64  `json:"score"`
}

// FantasyTeamView is a fantasy team with its references resolved for
// display. Unresolved drivers are omitted; an unresolved constructor leaves
// Constructor nil.
type FantasyTeamView struct {
	Team        fantasy.Team
	Drivers     []DriverSummary
	Constructor *ConstructorSummary
}

type RosterService struct {
	driverRepo      driver.Repository
	constructorRepo constructor.Repository
	fantasyRepo     fantasy.Repository
	membershipRepo  league.MembershipRepository
	propagation     *PropagationService
	rules           fantasy.Rules
	clock           clockwork.Clock
	logger          *logging.Logger
}

func NewRosterService(
	driverRepo driver.Repository,
	constructorRepo constructor.Repository,
	fantasyRepo fantasy.Repository,
	membershipRepo league.MembershipRepository,
	propagation *PropagationService,
	rules fantasy.Rules,
	clock clockwork.Clock,
	logger *logging.Logger,
) *RosterService {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if rules.RosterSize <= 0 || rules.BudgetCap <= 0 {
		rules = fantasy.DefaultRules()
	}

	return &RosterService{
		driverRepo:      driverRepo,
		constructorRepo: constructorRepo,
		fantasyRepo:     fantasyRepo,
		membershipRepo:  membershipRepo,
		propagation:     propagation,
		rules:           rules,
		clock:           clock,
		logger:          logger,
	}
}

// CreateFantasyTeam validates shape, resolves and prices the roster, and
// persists it with zero points. Driver and constructor records are only
// read.
func (s *RosterService) CreateFantasyTeam(ctx context.Context, input CreateFantasyTeamInput) (fantasy.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.CreateFantasyTeam")
	defer span.End()

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return fantasy.Team{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	name := strings.TrimSpace(input.Name)
	constructorID := strings.TrimSpace(input.ConstructorID)
	driverIDs := make([]string, 0, len(input.DriverIDs))
	for _, id := range input.DriverIDs {
		driverIDs = append(driverIDs, strings.TrimSpace(id))
	}

	if err := fantasy.ValidateShape(name, driverIDs, constructorID, s.rules); err != nil {
		return fantasy.Team{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	drivers, err := s.driverRepo.ListByIDs(ctx, driverIDs)
	if err != nil {
		return fantasy.Team{}, fmt.Errorf("list roster drivers: %w", err)
	}
	if len(drivers) != len(driverIDs) {
		return fantasy.Team{}, fmt.Errorf("%w: some drivers do not exist", ErrInvalidInput)
	}
	team, exists, err := s.constructorRepo.GetByID(ctx, constructorID)
	if err != nil {
		return fantasy.Team{}, fmt.Errorf("get roster constructor: %w", err)
	}
	if !exists {
		return fantasy.Team{}, fmt.Errorf("%w: constructor %s does not exist", ErrInvalidInput, constructorID)
	}

	price := fantasy.TotalPrice(drivers, team)
	if err := fantasy.ValidateBudget(price, s.rules); err != nil {
		return fantasy.Team{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	created, err := s.fantasyRepo.Create(ctx, fantasy.Team{
		UserID:        userID,
		Name:          name,
		DriverIDs:     driverIDs,
		ConstructorID: constructorID,
		Price:         price,
		Points:        0,
		CreatedAt:     s.clock.Now().UTC(),
	})
	if err != nil {
		return fantasy.Team{}, fmt.Errorf("create fantasy team: %w", err)
	}

	s.logger.InfoContext(ctx, "fantasy team created",
		"user_id", userID,
		"fantasy_team_id", created.ID,
		"price", price,
	)
	return created, nil
}

// DeleteFantasyTeam removes a team the caller owns and clears it from any
// league membership that selected it.
func (s *RosterService) DeleteFantasyTeam(ctx context.Context, userID, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.DeleteFantasyTeam",
		attribute.String("fantasy_team.id", teamID))
	defer span.End()

	userID = strings.TrimSpace(userID)
	teamID = strings.TrimSpace(teamID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if teamID == "" {
		return fmt.Errorf("%w: fantasy team id is required", ErrInvalidInput)
	}

	team, exists, err := s.fantasyRepo.GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get fantasy team: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: fantasy team=%s", ErrNotFound, teamID)
	}
	if !team.OwnedBy(userID) {
		return fmt.Errorf("%w: fantasy team=%s", ErrForbidden, teamID)
	}

	if err := s.fantasyRepo.Delete(ctx, teamID); err != nil {
		return fmt.Errorf("delete fantasy team: %w", err)
	}
	if err := s.membershipRepo.ClearTeam(ctx, teamID); err != nil {
		return fmt.Errorf("clear league selections: %w", err)
	}

	s.logger.InfoContext(ctx, "fantasy team deleted", "user_id", userID, "fantasy_team_id", teamID)
	return nil
}

// ListMyFantasyTeams returns the caller's teams with points recomputed.
func (s *RosterService) ListMyFantasyTeams(ctx context.Context, userID string) ([]FantasyTeamView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.ListMyFantasyTeams")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	teams, err := s.fantasyRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list fantasy teams: %w", err)
	}

	out := make([]FantasyTeamView, 0, len(teams))
	for _, team := range teams {
		view, err := s.view(ctx, team)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// GetFantasyTeam returns one of the caller's teams with points recomputed.
func (s *RosterService) GetFantasyTeam(ctx context.Context, userID, teamID string) (FantasyTeamView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.GetFantasyTeam",
		attribute.String("fantasy_team.id", teamID))
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return FantasyTeamView{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	team, exists, err := s.fantasyRepo.GetByID(ctx, strings.TrimSpace(teamID))
	if err != nil {
		return FantasyTeamView{}, fmt.Errorf("get fantasy team: %w", err)
	}
	if !exists {
		return FantasyTeamView{}, fmt.Errorf("%w: fantasy team=%s", ErrNotFound, teamID)
	}
	if !team.OwnedBy(userID) {
		return FantasyTeamView{}, fmt.Errorf("%w: fantasy team=%s", ErrForbidden, teamID)
	}
	return s.view(ctx, team)
}

func (s *RosterService) view(ctx context.Context, team fantasy.Team) (FantasyTeamView, error) {
	points, _, err := s.propagation.recomputeFantasy(ctx, team)
	if err != nil {
		return FantasyTeamView{}, fmt.Errorf("recompute fantasy team %s: %w", team.ID, err)
	}
	team.Points = points

	drivers, err := s.driverRepo.ListByIDs(ctx, team.DriverIDs)
	if err != nil {
		return FantasyTeamView{}, fmt.Errorf("list fantasy team drivers: %w", err)
	}
	view := FantasyTeamView{Team: team, Drivers: make([]DriverSummary, 0, len(drivers))}
	for _, d := range orderDrivers(drivers, team.DriverIDs) {
		view.Drivers = append(view.Drivers, DriverSummary{ID: d.ID, Name: d.Name, Points: d.Points})
	}

	ctor, exists, err := s.constructorRepo.GetByID(ctx, team.ConstructorID)
	if err != nil {
		return FantasyTeamView{}, fmt.Errorf("get fantasy team constructor: %w", err)
	}
	if exists {
		view.Constructor = &ConstructorSummary{ID: ctor.ID, Name: ctor.Name, Score: ctor.Score}
	}
	return view, nil
}

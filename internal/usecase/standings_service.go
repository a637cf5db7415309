package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/grid-fantasy/internal/domain/fantasy"
	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
	"github.com/riskibarqy/grid-fantasy/internal/domain/user"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

// Standing is one ranked row. Equal points share a rank.
type Standing struct {
	Rank          int       `json:"rank"`
	UserID        string    `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	FantasyTeamID string    `json:"fantasy_team_id"`
	TeamName      string    `json:"team_name"`
	Points        int64     `json:"points"`
	JoinedAt      time.Time `json:"joined_at"`
}

// StandingsService reads cached fantasy points; it never recomputes.
type StandingsService struct {
	leagueRepo     league.Repository
	membershipRepo league.MembershipRepository
	fantasyRepo    fantasy.Repository
	userRepo       user.Repository
	logger         *logging.Logger
}

func NewStandingsService(
	leagueRepo league.Repository,
	membershipRepo league.MembershipRepository,
	fantasyRepo fantasy.Repository,
	userRepo user.Repository,
	logger *logging.Logger,
) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}

	return &StandingsService{
		leagueRepo:     leagueRepo,
		membershipRepo: membershipRepo,
		fantasyRepo:    fantasyRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

func (s *StandingsService) GetLeagueStandings(ctx context.Context, leagueID string) ([]Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.GetLeagueStandings",
		attribute.String("league.id", leagueID))
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	_, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	memberships, err := s.membershipRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}
	selected := make([]league.Membership, 0, len(memberships))
	teamIDs := make([]string, 0, len(memberships))
	userIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if m.TeamID == "" {
			continue
		}
		selected = append(selected, m)
		teamIDs = append(teamIDs, m.TeamID)
		userIDs = append(userIDs, m.UserID)
	}
	if len(selected) == 0 {
		return []Standing{}, nil
	}

	var (
		teams []fantasy.Team
		users []user.User
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		out, err := s.fantasyRepo.ListByIDs(ctx, teamIDs)
		if err != nil {
			return fmt.Errorf("list standing teams: %w", err)
		}
		teams = out
		return nil
	})
	p.Go(func(ctx context.Context) error {
		out, err := s.userRepo.ListByIDs(ctx, userIDs)
		if err != nil {
			return fmt.Errorf("list standing users: %w", err)
		}
		users = out
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	teamByID := make(map[string]fantasy.Team, len(teams))
	for _, t := range teams {
		teamByID[t.ID] = t
	}
	userByID := make(map[string]user.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	rows := make([]Standing, 0, len(selected))
	for _, m := range selected {
		team, ok := teamByID[m.TeamID]
		if !ok {
			s.logger.WarnContext(ctx, "membership selects a missing fantasy team",
				"league_id", leagueID,
				"user_id", m.UserID,
				"fantasy_team_id", m.TeamID,
			)
			continue
		}
		displayName := m.UserID
		if u, ok := userByID[m.UserID]; ok {
			displayName = u.DisplayName()
		}
		rows = append(rows, Standing{
			UserID:        m.UserID,
			DisplayName:   displayName,
			FantasyTeamID: team.ID,
			TeamName:      team.Name,
			Points:        team.Points,
			JoinedAt:      m.JoinedAt,
		})
	}

	RankStandings(rows)
	return rows, nil
}

// RankStandings sorts by points descending, then earliest join, then user
// id, and assigns dense ranks.
func RankStandings(rows []Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if !rows[i].JoinedAt.Equal(rows[j].JoinedAt) {
			return rows[i].JoinedAt.Before(rows[j].JoinedAt)
		}
		return rows[i].UserID < rows[j].UserID
	})

	rank := 0
	for i := range rows {
		if i == 0 || rows[i].Points != rows[i-1].Points {
			rank++
		}
		rows[i].Rank = rank
	}
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/domain/fantasy"
	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
	idgen "github.com/riskibarqy/grid-fantasy/internal/platform/id"
	"github.com/riskibarqy/grid-fantasy/internal/platform/keylock"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultJoinCodeLength  = 8
	maxJoinCodeGenAttempts = 10
)

type CreateLeagueInput struct {
	CreatorID       string
	Name            string
	Type            league.Type
	TeamRestriction string
}

// LeagueInfo is a league as seen by one caller. Code is blank unless the
// caller is a member.
type LeagueInfo struct {
	League      league.League
	MemberCount int
	IsMember    bool
	MyTeamID    string
}

type LeagueService struct {
	leagueRepo      league.Repository
	membershipRepo  league.MembershipRepository
	fantasyRepo     fantasy.Repository
	constructorRepo constructor.Repository
	codes           idgen.CodeGenerator
	codeLength      int
	locks           *keylock.Locker
	clock           clockwork.Clock
	logger          *logging.Logger
}

func NewLeagueService(
	leagueRepo league.Repository,
	membershipRepo league.MembershipRepository,
	fantasyRepo fantasy.Repository,
	constructorRepo constructor.Repository,
	codes idgen.CodeGenerator,
	codeLength int,
	locks *keylock.Locker,
	clock clockwork.Clock,
	logger *logging.Logger,
) *LeagueService {
	if logger == nil {
		logger = logging.Default()
	}
	if codes == nil {
		codes = idgen.NewRandomCodeGenerator()
	}
	if codeLength <= 0 {
		codeLength = defaultJoinCodeLength
	}
	if locks == nil {
		locks = keylock.New()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &LeagueService{
		leagueRepo:      leagueRepo,
		membershipRepo:  membershipRepo,
		fantasyRepo:     fantasyRepo,
		constructorRepo: constructorRepo,
		codes:           codes,
		codeLength:      codeLength,
		locks:           locks,
		clock:           clock,
		logger:          logger,
	}
}

func (s *LeagueService) ListLeagues(ctx context.Context) ([]league.League, error) {
	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	return redactCodes(leagues), nil
}

func (s *LeagueService) ListPublicLeagues(ctx context.Context) ([]league.League, error) {
	leagues, err := s.leagueRepo.ListByType(ctx, league.TypePublic)
	if err != nil {
		return nil, fmt.Errorf("list public leagues: %w", err)
	}
	return leagues, nil
}

// ListJoinedLeagues returns the leagues userID belongs to, codes included.
func (s *LeagueService) ListJoinedLeagues(ctx context.Context, userID string) ([]league.League, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	memberships, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	leagueIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		leagueIDs = append(leagueIDs, m.LeagueID)
	}
	leagues, err := s.leagueRepo.ListByIDs(ctx, leagueIDs)
	if err != nil {
		return nil, fmt.Errorf("list joined leagues: %w", err)
	}
	return leagues, nil
}

// CreateLeague stores a league and makes the creator its first member.
// Private leagues get a fresh join code, regenerated on collision.
func (s *LeagueService) CreateLeague(ctx context.Context, input CreateLeagueInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.CreateLeague")
	defer span.End()

	creatorID := strings.TrimSpace(input.CreatorID)
	if creatorID == "" {
		return league.League{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	item := league.League{
		Name:            strings.TrimSpace(input.Name),
		Type:            league.Type(strings.ToLower(strings.TrimSpace(string(input.Type)))),
		TeamRestriction: strings.TrimSpace(input.TeamRestriction),
		CreatorID:       creatorID,
		CreatedAt:       s.clock.Now().UTC(),
	}
	if item.Name == "" {
		return league.League{}, fmt.Errorf("%w: league name is required", ErrInvalidInput)
	}
	if !item.Type.Valid() {
		return league.League{}, fmt.Errorf("%w: league type must be public or private", ErrInvalidInput)
	}

	create := func(ctx context.Context) (league.League, error) {
		if err := item.Validate(); err != nil {
			return league.League{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		created, err := s.leagueRepo.Create(ctx, item)
		if err != nil {
			return league.League{}, fmt.Errorf("create league: %w", err)
		}
		return created, nil
	}

	var (
		created league.League
		err     error
	)
	if item.Type == league.TypePrivate {
		created, err = s.createWithUniqueCode(ctx, &item, create)
	} else {
		created, err = create(ctx)
	}
	if err != nil {
		return league.League{}, err
	}

	if err := s.membershipRepo.Create(ctx, league.Membership{
		UserID:   creatorID,
		LeagueID: created.ID,
		JoinedAt: created.CreatedAt,
	}); err != nil {
		return league.League{}, fmt.Errorf("add creator membership: %w", err)
	}

	s.logger.InfoContext(ctx, "league created",
		"league_id", created.ID,
		"type", string(created.Type),
		"creator_id", creatorID,
	)
	return created, nil
}

func (s *LeagueService) createWithUniqueCode(ctx context.Context, item *league.League, create func(context.Context) (league.League, error)) (league.League, error) {
	for attempt := 0; attempt < maxJoinCodeGenAttempts; attempt++ {
		code, err := s.codes.NewCode(s.codeLength)
		if err != nil {
			return league.League{}, fmt.Errorf("generate join code: %w", err)
		}

		created, taken, err := func() (league.League, bool, error) {
			unlock := s.locks.Lock("league-code:" + code)
			defer unlock()

			_, exists, err := s.leagueRepo.GetByCode(ctx, code)
			if err != nil {
				return league.League{}, false, fmt.Errorf("check join code: %w", err)
			}
			if exists {
				return league.League{}, true, nil
			}
			item.Code = code
			created, err := create(ctx)
			return created, false, err
		}()
		if err != nil {
			return league.League{}, err
		}
		if !taken {
			return created, nil
		}
		s.logger.WarnContext(ctx, "join code collision, regenerating", "attempt", attempt+1)
	}
	return league.League{}, fmt.Errorf("%w: could not allocate a unique join code", ErrConflict)
}

// JoinPrivateLeague joins the league whose code matches.
func (s *LeagueService) JoinPrivateLeague(ctx context.Context, userID, code string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.JoinPrivateLeague")
	defer span.End()

	userID = strings.TrimSpace(userID)
	code = strings.ToUpper(strings.TrimSpace(code))
	if userID == "" {
		return league.League{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if code == "" {
		return league.League{}, fmt.Errorf("%w: join code is required", ErrInvalidInput)
	}

	item, exists, err := s.leagueRepo.GetByCode(ctx, code)
	if err != nil {
		return league.League{}, fmt.Errorf("get league by code: %w", err)
	}
	if !exists || item.Type != league.TypePrivate {
		return league.League{}, ErrInvalidJoinCode
	}
	if err := s.join(ctx, item, userID); err != nil {
		return league.League{}, err
	}
	return item, nil
}

// JoinPublicLeague joins an open league by id. Private leagues need a code.
func (s *LeagueService) JoinPublicLeague(ctx context.Context, userID, leagueID string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.JoinPublicLeague",
		attribute.String("league.id", leagueID))
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return league.League{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	item, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return league.League{}, err
	}
	if item.Type != league.TypePublic {
		return league.League{}, fmt.Errorf("%w: private leagues are joined by code", ErrInvalidInput)
	}
	if err := s.join(ctx, item, userID); err != nil {
		return league.League{}, err
	}
	return item, nil
}

func (s *LeagueService) join(ctx context.Context, item league.League, userID string) error {
	unlock := s.locks.Lock("membership:" + league.MembershipID(item.ID, userID))
	defer unlock()

	_, exists, err := s.membershipRepo.Get(ctx, item.ID, userID)
	if err != nil {
		return fmt.Errorf("get membership: %w", err)
	}
	if exists {
		return ErrAlreadyMember
	}
	if err := s.membershipRepo.Create(ctx, league.Membership{
		UserID:   userID,
		LeagueID: item.ID,
		JoinedAt: s.clock.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("create membership: %w", err)
	}

	s.logger.InfoContext(ctx, "league joined", "league_id", item.ID, "user_id", userID)
	return nil
}

// GetLeagueInfo returns league details for userID.
func (s *LeagueService) GetLeagueInfo(ctx context.Context, userID, leagueID string) (LeagueInfo, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.GetLeagueInfo",
		attribute.String("league.id", leagueID))
	defer span.End()

	item, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return LeagueInfo{}, err
	}
	members, err := s.membershipRepo.ListByLeague(ctx, item.ID)
	if err != nil {
		return LeagueInfo{}, fmt.Errorf("list league members: %w", err)
	}

	info := LeagueInfo{League: item, MemberCount: len(members)}
	userID = strings.TrimSpace(userID)
	for _, m := range members {
		if userID != "" && m.UserID == userID {
			info.IsMember = true
			info.MyTeamID = m.TeamID
			break
		}
	}
	if !info.IsMember {
		info.League.Code = ""
	}
	return info, nil
}

// SelectLeagueTeam picks which of the member's fantasy teams competes in
// the league.
func (s *LeagueService) SelectLeagueTeam(ctx context.Context, userID, leagueID, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.SelectLeagueTeam",
		attribute.String("league.id", leagueID),
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

	item, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return err
	}
	_, member, err := s.membershipRepo.Get(ctx, item.ID, userID)
	if err != nil {
		return fmt.Errorf("get membership: %w", err)
	}
	if !member {
		return fmt.Errorf("%w: not a member of league=%s", ErrForbidden, item.ID)
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

	if item.TeamRestriction != "" {
		ok, err := s.satisfiesRestriction(ctx, team, item.TeamRestriction)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: league requires constructor %q", ErrInvalidInput, item.TeamRestriction)
		}
	}

	if err := s.membershipRepo.SetTeam(ctx, item.ID, userID, teamID); err != nil {
		return fmt.Errorf("set league team: %w", err)
	}
	s.logger.InfoContext(ctx, "league team selected",
		"league_id", item.ID,
		"user_id", userID,
		"fantasy_team_id", teamID,
	)
	return nil
}

// satisfiesRestriction accepts a constructor matching by id or by name,
// ignoring case.
func (s *LeagueService) satisfiesRestriction(ctx context.Context, team fantasy.Team, restriction string) (bool, error) {
	if team.ConstructorID == restriction {
		return true, nil
	}
	ctor, exists, err := s.constructorRepo.GetByID(ctx, team.ConstructorID)
	if err != nil {
		return false, fmt.Errorf("get fantasy team constructor: %w", err)
	}
	return exists && strings.EqualFold(ctor.Name, restriction), nil
}

func (s *LeagueService) getLeague(ctx context.Context, leagueID string) (league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return item, nil
}

func redactCodes(leagues []league.League) []league.League {
	out := make([]league.League, len(leagues))
	for i, l := range leagues {
		l.Code = ""
		out[i] = l
	}
	return out
}

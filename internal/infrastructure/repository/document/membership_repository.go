package document

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
)

type membershipRecord struct {
	UserID   string    `json:"user_id"`
	LeagueID string    `json:"league_id"`
	TeamID   *string   `json:"team_id"`
	JoinedAt time.Time `json:"joined_at"`
}

func membershipFromRecord(_ string, rec membershipRecord) league.Membership {
	return league.Membership{
		UserID:   rec.UserID,
		LeagueID: rec.LeagueID,
		TeamID:   deref(rec.TeamID),
		JoinedAt: rec.JoinedAt,
	}
}

type MembershipRepository struct {
	store docstore.Store
}

func NewMembershipRepository(store docstore.Store) *MembershipRepository {
	return &MembershipRepository{store: store}
}

func (r *MembershipRepository) ListByLeague(ctx context.Context, leagueID string) ([]league.Membership, error) {
	return queryAll(ctx, r.store, CollectionLeagueMemberships, membershipFromRecord, docstore.Equals("league_id", leagueID))
}

func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]league.Membership, error) {
	return queryAll(ctx, r.store, CollectionLeagueMemberships, membershipFromRecord, docstore.Equals("user_id", userID))
}

func (r *MembershipRepository) Get(ctx context.Context, leagueID, userID string) (league.Membership, bool, error) {
	return getOne(ctx, r.store, CollectionLeagueMemberships, league.MembershipID(leagueID, userID), membershipFromRecord)
}

func (r *MembershipRepository) Create(ctx context.Context, m league.Membership) error {
	if m.LeagueID == "" || m.UserID == "" {
		return fmt.Errorf("membership requires league and user ids")
	}
	_, err := put(ctx, r.store, CollectionLeagueMemberships, league.MembershipID(m.LeagueID, m.UserID), membershipRecord{
		UserID:   m.UserID,
		LeagueID: m.LeagueID,
		TeamID:   nullable(m.TeamID),
		JoinedAt: m.JoinedAt.UTC(),
	})
	return err
}

func (r *MembershipRepository) SetTeam(ctx context.Context, leagueID, userID, teamID string) error {
	return patch(ctx, r.store, CollectionLeagueMemberships, league.MembershipID(leagueID, userID), docstore.Fields{
		"team_id": nullable(teamID),
	})
}

func (r *MembershipRepository) ClearTeam(ctx context.Context, teamID string) error {
	if teamID == "" {
		return nil
	}
	docs, err := r.store.Query(ctx, CollectionLeagueMemberships, docstore.Equals("team_id", teamID))
	if err != nil {
		return fmt.Errorf("query memberships by team: %w", err)
	}
	for _, doc := range docs {
		if err := patch(ctx, r.store, CollectionLeagueMemberships, doc.ID, docstore.Fields{"team_id": nil}); err != nil {
			return err
		}
	}
	return nil
}

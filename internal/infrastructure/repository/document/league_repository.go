package document

import (
	"context"
	"time"

	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
)

type leagueRecord struct {
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	TeamRestriction *string   `json:"team_restriction"`
	Code            *string   `json:"code"`
	CreatorID       string    `json:"creator_id"`
	CreatedAt       time.Time `json:"created_at"`
}

func leagueFromRecord(docID string, rec leagueRecord) league.League {
	return league.League{
		ID:              docID,
		Name:            rec.Name,
		Type:            league.Type(rec.Type),
		TeamRestriction: deref(rec.TeamRestriction),
		Code:            deref(rec.Code),
		CreatorID:       rec.CreatorID,
		CreatedAt:       rec.CreatedAt,
	}
}

type LeagueRepository struct {
	store docstore.Store
}

func NewLeagueRepository(store docstore.Store) *LeagueRepository {
	return &LeagueRepository{store: store}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	return queryAll(ctx, r.store, CollectionLeagues, leagueFromRecord)
}

func (r *LeagueRepository) ListByType(ctx context.Context, t league.Type) ([]league.League, error) {
	return queryAll(ctx, r.store, CollectionLeagues, leagueFromRecord, docstore.Equals("type", string(t)))
}

func (r *LeagueRepository) ListByIDs(ctx context.Context, leagueIDs []string) ([]league.League, error) {
	return getMany(ctx, r.store, CollectionLeagues, leagueIDs, leagueFromRecord)
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return getOne(ctx, r.store, CollectionLeagues, leagueID, leagueFromRecord)
}

func (r *LeagueRepository) GetByCode(ctx context.Context, code string) (league.League, bool, error) {
	if code == "" {
		return league.League{}, false, nil
	}
	items, err := queryAll(ctx, r.store, CollectionLeagues, leagueFromRecord, docstore.Equals("code", code))
	if err != nil {
		return league.League{}, false, err
	}
	if len(items) == 0 {
		return league.League{}, false, nil
	}
	return items[0], true, nil
}

func (r *LeagueRepository) Create(ctx context.Context, l league.League) (league.League, error) {
	docID, err := put(ctx, r.store, CollectionLeagues, l.ID, leagueRecord{
		Name:            l.Name,
		Type:            string(l.Type),
		TeamRestriction: nullable(l.TeamRestriction),
		Code:            nullable(l.Code),
		CreatorID:       l.CreatorID,
		CreatedAt:       l.CreatedAt.UTC(),
	})
	if err != nil {
		return league.League{}, err
	}
	l.ID = docID
	return l, nil
}

package document

import (
	"context"
	"time"

	"github.com/riskibarqy/grid-fantasy/internal/domain/fantasy"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
)

type fantasyTeamRecord struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Drivers   []string  `json:"drivers"`
	Team      string    `json:"team"`
	Price     int64     `json:"price"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

func fantasyTeamFromRecord(docID string, rec fantasyTeamRecord) fantasy.Team {
	return fantasy.Team{
		ID:            docID,
		UserID:        rec.UserID,
		Name:          rec.Name,
		DriverIDs:     append([]string{}, rec.Drivers...),
		ConstructorID: rec.Team,
		Price:         rec.Price,
		Points:        rec.Points,
		CreatedAt:     rec.CreatedAt,
	}
}

type FantasyTeamRepository struct {
	store docstore.Store
}

func NewFantasyTeamRepository(store docstore.Store) *FantasyTeamRepository {
	return &FantasyTeamRepository{store: store}
}

func (r *FantasyTeamRepository) List(ctx context.Context) ([]fantasy.Team, error) {
	return queryAll(ctx, r.store, CollectionFantasyTeams, fantasyTeamFromRecord)
}

func (r *FantasyTeamRepository) ListByUser(ctx context.Context, userID string) ([]fantasy.Team, error) {
	return queryAll(ctx, r.store, CollectionFantasyTeams, fantasyTeamFromRecord, docstore.Equals("user_id", userID))
}

func (r *FantasyTeamRepository) GetByID(ctx context.Context, teamID string) (fantasy.Team, bool, error) {
	return getOne(ctx, r.store, CollectionFantasyTeams, teamID, fantasyTeamFromRecord)
}

func (r *FantasyTeamRepository) ListByIDs(ctx context.Context, teamIDs []string) ([]fantasy.Team, error) {
	return getMany(ctx, r.store, CollectionFantasyTeams, teamIDs, fantasyTeamFromRecord)
}

func (r *FantasyTeamRepository) Create(ctx context.Context, team fantasy.Team) (fantasy.Team, error) {
	docID, err := put(ctx, r.store, CollectionFantasyTeams, team.ID, fantasyTeamRecord{
		UserID:    team.UserID,
		Name:      team.Name,
		Drivers:   append([]string{}, team.DriverIDs...),
		Team:      team.ConstructorID,
		Price:     team.Price,
		Points:    team.Points,
		CreatedAt: team.CreatedAt.UTC(),
	})
	if err != nil {
		return fantasy.Team{}, err
	}
	team.ID = docID
	return team, nil
}

func (r *FantasyTeamRepository) Delete(ctx context.Context, teamID string) error {
	return r.store.Delete(ctx, CollectionFantasyTeams, teamID)
}

func (r *FantasyTeamRepository) UpdatePoints(ctx context.Context, teamID string, points int64) error {
	return patch(ctx, r.store, CollectionFantasyTeams, teamID, docstore.Fields{"points": points})
}

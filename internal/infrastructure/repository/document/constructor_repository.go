package document

import (
	"context"

	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
)

type constructorRecord struct {
	Name    string   `json:"name"`
	Drivers []string `json:"drivers"`
	Score   int64    `json:"score"`
	Price   int64    `json:"price"`
}

func constructorFromRecord(docID string, rec constructorRecord) constructor.Team {
	return constructor.Team{
		ID:        docID,
		Name:      rec.Name,
		DriverIDs: append([]string{}, rec.Drivers...),
		Score:     rec.Score,
		Price:     rec.Price,
	}
}

type ConstructorRepository struct {
	store docstore.Store
}

func NewConstructorRepository(store docstore.Store) *ConstructorRepository {
	return &ConstructorRepository{store: store}
}

func (r *ConstructorRepository) List(ctx context.Context) ([]constructor.Team, error) {
	return queryAll(ctx, r.store, CollectionConstructors, constructorFromRecord)
}

func (r *ConstructorRepository) GetByID(ctx context.Context, teamID string) (constructor.Team, bool, error) {
	return getOne(ctx, r.store, CollectionConstructors, teamID, constructorFromRecord)
}

func (r *ConstructorRepository) ListByName(ctx context.Context, name string) ([]constructor.Team, error) {
	return queryAll(ctx, r.store, CollectionConstructors, constructorFromRecord, docstore.Equals("name", name))
}

func (r *ConstructorRepository) Create(ctx context.Context, team constructor.Team) (constructor.Team, error) {
	docID, err := put(ctx, r.store, CollectionConstructors, team.ID, toConstructorRecord(team))
	if err != nil {
		return constructor.Team{}, err
	}
	team.ID = docID
	return team, nil
}

func (r *ConstructorRepository) Upsert(ctx context.Context, team constructor.Team) error {
	_, err := put(ctx, r.store, CollectionConstructors, team.ID, toConstructorRecord(team))
	return err
}

func (r *ConstructorRepository) SetDrivers(ctx context.Context, teamID string, driverIDs []string) error {
	return patch(ctx, r.store, CollectionConstructors, teamID, docstore.Fields{"drivers": append([]string{}, driverIDs...)})
}

func (r *ConstructorRepository) UpdateScore(ctx context.Context, teamID string, score int64) error {
	return patch(ctx, r.store, CollectionConstructors, teamID, docstore.Fields{"score": score})
}

func toConstructorRecord(team constructor.Team) constructorRecord {
	return constructorRecord{
		Name:    team.Name,
		Drivers: append([]string{}, team.DriverIDs...),
		Score:   team.Score,
		Price:   team.Price,
	}
}

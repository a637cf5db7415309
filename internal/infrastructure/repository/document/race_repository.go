package document

import (
	"context"
	"time"

	"github.com/riskibarqy/grid-fantasy/internal/domain/race"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
)

type raceRecord struct {
	Name    string           `json:"name"`
	Date    time.Time        `json:"date"`
	Results map[string]int64 `json:"results"`
}

func raceFromRecord(docID string, rec raceRecord) race.Race {
	results := rec.Results
	if results == nil {
		results = make(map[string]int64)
	}
	return race.Race{
		ID:      docID,
		Name:    rec.Name,
		Date:    rec.Date,
		Results: results,
	}
}

type RaceRepository struct {
	store docstore.Store
}

func NewRaceRepository(store docstore.Store) *RaceRepository {
	return &RaceRepository{store: store}
}

func (r *RaceRepository) List(ctx context.Context) ([]race.Race, error) {
	return queryAll(ctx, r.store, CollectionRaces, raceFromRecord)
}

func (r *RaceRepository) GetByID(ctx context.Context, raceID string) (race.Race, bool, error) {
	return getOne(ctx, r.store, CollectionRaces, raceID, raceFromRecord)
}

func (r *RaceRepository) Create(ctx context.Context, item race.Race) (race.Race, error) {
	docID, err := put(ctx, r.store, CollectionRaces, item.ID, toRaceRecord(item))
	if err != nil {
		return race.Race{}, err
	}
	item.ID = docID
	return item, nil
}

func (r *RaceRepository) Upsert(ctx context.Context, item race.Race) error {
	_, err := put(ctx, r.store, CollectionRaces, item.ID, toRaceRecord(item))
	return err
}

func toRaceRecord(item race.Race) raceRecord {
	results := item.Results
	if results == nil {
		results = make(map[string]int64)
	}
	return raceRecord{Name: item.Name, Date: item.Date.UTC(), Results: results}
}

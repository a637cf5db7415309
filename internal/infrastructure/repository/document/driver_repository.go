package document

import (
	"context"
	"fmt"

	"github.com/riskibarqy/grid-fantasy/internal/domain/driver"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
)

type driverRecord struct {
	Name   string           `json:"name"`
	Price  int64            `json:"price"`
	Points int64            `json:"points"`
	TeamID *string          `json:"team_id"`
	Races  map[string]int64 `json:"races"`
}

func driverFromRecord(docID string, rec driverRecord) driver.Driver {
	races := rec.Races
	if races == nil {
		races = make(map[string]int64)
	}
	return driver.Driver{
		ID:     docID,
		Name:   rec.Name,
		Price:  rec.Price,
		Points: rec.Points,
		TeamID: deref(rec.TeamID),
		Races:  races,
	}
}

func driverToRecord(d driver.Driver) driverRecord {
	races := d.Races
	if races == nil {
		races = make(map[string]int64)
	}
	return driverRecord{
		Name:   d.Name,
		Price:  d.Price,
		Points: d.Points,
		TeamID: nullable(d.TeamID),
		Races:  races,
	}
}

type DriverRepository struct {
	store docstore.Store
}

func NewDriverRepository(store docstore.Store) *DriverRepository {
	return &DriverRepository{store: store}
}

func (r *DriverRepository) List(ctx context.Context) ([]driver.Driver, error) {
	return queryAll(ctx, r.store, CollectionDrivers, driverFromRecord)
}

func (r *DriverRepository) GetByID(ctx context.Context, driverID string) (driver.Driver, bool, error) {
	return getOne(ctx, r.store, CollectionDrivers, driverID, driverFromRecord)
}

func (r *DriverRepository) ListByIDs(ctx context.Context, driverIDs []string) ([]driver.Driver, error) {
	return getMany(ctx, r.store, CollectionDrivers, driverIDs, driverFromRecord)
}

func (r *DriverRepository) ListByName(ctx context.Context, name string) ([]driver.Driver, error) {
	return queryAll(ctx, r.store, CollectionDrivers, driverFromRecord, docstore.Equals("name", name))
}

func (r *DriverRepository) ListByNamePrefix(ctx context.Context, prefix string) ([]driver.Driver, error) {
	return queryAll(ctx, r.store, CollectionDrivers, driverFromRecord, docstore.HasPrefix("name", prefix))
}

func (r *DriverRepository) Create(ctx context.Context, d driver.Driver) (driver.Driver, error) {
	docID, err := put(ctx, r.store, CollectionDrivers, d.ID, driverToRecord(d))
	if err != nil {
		return driver.Driver{}, err
	}
	d.ID = docID
	if d.Races == nil {
		d.Races = make(map[string]int64)
	}
	return d, nil
}

func (r *DriverRepository) Upsert(ctx context.Context, d driver.Driver) error {
	_, err := put(ctx, r.store, CollectionDrivers, d.ID, driverToRecord(d))
	return err
}

func (r *DriverRepository) SetTeam(ctx context.Context, driverID, teamID string) error {
	return patch(ctx, r.store, CollectionDrivers, driverID, docstore.Fields{"team_id": nullable(teamID)})
}

func (r *DriverRepository) RecordRace(ctx context.Context, driverID, raceID string, racePoints, total int64) error {
	key, err := docstore.PathSegment("races", raceID)
	if err != nil {
		return fmt.Errorf("record race on %s: %w", driverID, err)
	}
	return patch(ctx, r.store, CollectionDrivers, driverID, docstore.Fields{
		"points": total,
		key:      racePoints,
	})
}

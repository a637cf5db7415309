package driver

import "context"

// Repository describes driver persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Driver, error)
	GetByID(ctx context.Context, driverID string) (Driver, bool, error)
	// ListByIDs omits ids that do not resolve.
	ListByIDs(ctx context.Context, driverIDs []string) ([]Driver, error)
	ListByName(ctx context.Context, name string) ([]Driver, error)
	ListByNamePrefix(ctx context.Context, prefix string) ([]Driver, error)
	Create(ctx context.Context, d Driver) (Driver, error)
	Upsert(ctx context.Context, d Driver) error
	SetTeam(ctx context.Context, driverID, teamID string) error
	// RecordRace stores racePoints under races.<raceID> and replaces the
	// cumulative total in one write.
	RecordRace(ctx context.Context, driverID, raceID string, racePoints, total int64) error
}

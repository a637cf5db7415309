package constructor

import "context"

// Repository describes constructor persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	ListByName(ctx context.Context, name string) ([]Team, error)
	Create(ctx context.Context, team Team) (Team, error)
	Upsert(ctx context.Context, team Team) error
	SetDrivers(ctx context.Context, teamID string, driverIDs []string) error
	UpdateScore(ctx context.Context, teamID string, score int64) error
}

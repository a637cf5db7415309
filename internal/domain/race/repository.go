package race

import "context"

type Repository interface {
	List(ctx context.Context) ([]Race, error)
	GetByID(ctx context.Context, raceID string) (Race, bool, error)
	Create(ctx context.Context, r Race) (Race, error)
	Upsert(ctx context.Context, r Race) error
}

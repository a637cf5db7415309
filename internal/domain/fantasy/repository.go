package fantasy

import "context"

// Repository describes fantasy team persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	ListByUser(ctx context.Context, userID string) ([]Team, error)
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	ListByIDs(ctx context.Context, teamIDs []string) ([]Team, error)
	Create(ctx context.Context, team Team) (Team, error)
	Delete(ctx context.Context, teamID string) error
	UpdatePoints(ctx context.Context, teamID string, points int64) error
}

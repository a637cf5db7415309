package league

import "context"

// Repository describes league persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]League, error)
	ListByType(ctx context.Context, t Type) ([]League, error)
	ListByIDs(ctx context.Context, leagueIDs []string) ([]League, error)
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	GetByCode(ctx context.Context, code string) (League, bool, error)
	Create(ctx context.Context, l League) (League, error)
}

// MembershipRepository describes league membership persistence needs.
type MembershipRepository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Membership, error)
	ListByUser(ctx context.Context, userID string) ([]Membership, error)
	Get(ctx context.Context, leagueID, userID string) (Membership, bool, error)
	Create(ctx context.Context, m Membership) error
	SetTeam(ctx context.Context, leagueID, userID, teamID string) error
	// ClearTeam unsets the selection on every membership pointing at teamID.
	ClearTeam(ctx context.Context, teamID string) error
}

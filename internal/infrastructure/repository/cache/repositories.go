// Package cache decorates slow-changing repositories with a TTL read cache.
// Score-bearing collections (drivers, constructors, fantasy teams) are not
// cached so reads always observe the latest propagation.
package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/riskibarqy/grid-fantasy/internal/domain/league"
	"github.com/riskibarqy/grid-fantasy/internal/domain/user"
	basecache "github.com/riskibarqy/grid-fantasy/internal/platform/cache"
)

const (
	leagueKeyPrefix = "league:"
	userKeyPrefix   = "user:"
)

type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	items, err := basecache.GetOrLoadTyped(ctx, r.cache, leagueKeyPrefix+"list:all", r.next.List)
	if err != nil {
		return nil, err
	}
	return append([]league.League(nil), items...), nil
}

func (r *LeagueRepository) ListByType(ctx context.Context, t league.Type) ([]league.League, error) {
	items, err := basecache.GetOrLoadTyped(ctx, r.cache, leagueKeyPrefix+"list:type:"+string(t), func(ctx context.Context) ([]league.League, error) {
		return r.next.ListByType(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return append([]league.League(nil), items...), nil
}

func (r *LeagueRepository) ListByIDs(ctx context.Context, leagueIDs []string) ([]league.League, error) {
	out := make([]league.League, 0, len(leagueIDs))
	for _, leagueID := range leagueIDs {
		item, ok, err := r.GetByID(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	cached, err := basecache.GetOrLoadTyped(ctx, r.cache, leagueKeyPrefix+"id:"+leagueID, func(ctx context.Context) (cachedLeague, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		return cachedLeague{value: item, exists: exists}, err
	})
	if err != nil {
		return league.League{}, false, err
	}
	return cached.value, cached.exists, nil
}

// GetByCode is not cached: a miss must not hide a league created a moment
// later with that code.
func (r *LeagueRepository) GetByCode(ctx context.Context, code string) (league.League, bool, error) {
	return r.next.GetByCode(ctx, code)
}

func (r *LeagueRepository) Create(ctx context.Context, l league.League) (league.League, error) {
	created, err := r.next.Create(ctx, l)
	if err != nil {
		return league.League{}, err
	}
	r.cache.DeletePrefix(ctx, leagueKeyPrefix)
	return created, nil
}

type cachedLeague struct {
	value  league.League
	exists bool
}

type UserRepository struct {
	next  user.Repository
	cache *basecache.Store
}

func NewUserRepository(next user.Repository, cache *basecache.Store) *UserRepository {
	return &UserRepository{next: next, cache: cache}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	cached, err := basecache.GetOrLoadTyped(ctx, r.cache, userKeyPrefix+userID, func(ctx context.Context) (cachedUser, error) {
		item, exists, err := r.next.GetByID(ctx, userID)
		return cachedUser{value: item, exists: exists}, err
	})
	if err != nil {
		return user.User{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, userIDs []string) ([]user.User, error) {
	ids := append([]string(nil), userIDs...)
	sort.Strings(ids)
	key := userKeyPrefix + "list:" + strings.Join(ids, ",")
	items, err := basecache.GetOrLoadTyped(ctx, r.cache, key, func(ctx context.Context) ([]user.User, error) {
		return r.next.ListByIDs(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return append([]user.User(nil), items...), nil
}

func (r *UserRepository) Upsert(ctx context.Context, u user.User) error {
	if err := r.next.Upsert(ctx, u); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, userKeyPrefix)
	return nil
}

type cachedUser struct {
	value  user.User
	exists bool
}

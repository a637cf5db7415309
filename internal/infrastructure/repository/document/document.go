// Package document implements the domain repositories on top of the
// docstore port, so the same code serves the memory and postgres backends.
package document

import (
	"context"
	"fmt"

	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
)

const (
	CollectionUsers             = "users"
	CollectionDrivers           = "drivers"
	CollectionConstructors      = "teams"
	CollectionRaces             = "races"
	CollectionLeagues           = "leagues"
	CollectionLeagueMemberships = "league_memberships"
	CollectionFantasyTeams      = "fantasy_teams"
)

func getOne[R any, T any](ctx context.Context, store docstore.Store, collection, docID string, conv func(string, R) T) (T, bool, error) {
	var zero T
	if docID == "" {
		return zero, false, nil
	}
	doc, ok, err := store.Get(ctx, collection, docID)
	if err != nil {
		return zero, false, fmt.Errorf("get %s/%s: %w", collection, docID, err)
	}
	if !ok {
		return zero, false, nil
	}
	var rec R
	if err := docstore.Decode(doc.Fields, &rec); err != nil {
		return zero, false, fmt.Errorf("decode %s/%s: %w", collection, docID, err)
	}
	return conv(doc.ID, rec), true, nil
}

func queryAll[R any, T any](ctx context.Context, store docstore.Store, collection string, conv func(string, R) T, filters ...docstore.Filter) ([]T, error) {
	docs, err := store.Query(ctx, collection, filters...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var rec R
		if err := docstore.Decode(doc.Fields, &rec); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, doc.ID, err)
		}
		out = append(out, conv(doc.ID, rec))
	}
	return out, nil
}

func getMany[R any, T any](ctx context.Context, store docstore.Store, collection string, ids []string, conv func(string, R) T) ([]T, error) {
	out := make([]T, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, docID := range ids {
		if _, dup := seen[docID]; dup {
			continue
		}
		seen[docID] = struct{}{}
		item, ok, err := getOne(ctx, store, collection, docID, conv)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// put writes rec under docID, or under a generated id when docID is empty.
func put(ctx context.Context, store docstore.Store, collection, docID string, rec any) (string, error) {
	fields, err := docstore.Encode(rec)
	if err != nil {
		return "", err
	}
	if docID == "" {
		newID, err := store.Add(ctx, collection, fields)
		if err != nil {
			return "", fmt.Errorf("add %s: %w", collection, err)
		}
		return newID, nil
	}
	if err := store.Set(ctx, collection, docID, fields); err != nil {
		return "", fmt.Errorf("set %s/%s: %w", collection, docID, err)
	}
	return docID, nil
}

func patch(ctx context.Context, store docstore.Store, collection, docID string, fields docstore.Fields) error {
	if err := store.Update(ctx, collection, docID, fields); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, docID, err)
	}
	return nil
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/grid-fantasy/internal/platform/id"
)

// MemoryStore keeps documents in process memory. Returned documents are deep
// copies; callers may mutate them freely.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Fields
	ids         id.Generator
}

func NewMemoryStore(ids id.Generator) *MemoryStore {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &MemoryStore{
		collections: make(map[string]map[string]Fields),
		ids:         ids,
	}
}

func (s *MemoryStore) Get(_ context.Context, collection, docID string) (Document, bool, error) {
	if err := validateCollection(collection); err != nil {
		return Document{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.collections[collection][docID]
	if !ok {
		return Document{}, false, nil
	}
	return Document{ID: docID, Fields: Clone(fields)}, true, nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0)
	for docID, fields := range s.collections[collection] {
		ok, err := Matches(fields, filters)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, Document{ID: docID, Fields: Clone(fields)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, collection, docID string, fields Fields) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if strings.TrimSpace(docID) == "" {
		return fmt.Errorf("document id is required")
	}
	normalized, err := Normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bucket(collection)[docID] = normalized
	return nil
}

func (s *MemoryStore) Update(_ context.Context, collection, docID string, patch Fields) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.collections[collection][docID]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, docID)
	}
	next := Clone(current)
	if err := ApplyPatch(next, patch); err != nil {
		return err
	}
	s.collections[collection][docID] = next
	return nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	docID, err := s.ids.NewID()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, collection, docID, fields); err != nil {
		return "", err
	}
	return docID, nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, docID string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], docID)
	return nil
}

func (s *MemoryStore) bucket(collection string) map[string]Fields {
	b, ok := s.collections[collection]
	if !ok {
		b = make(map[string]Fields)
		s.collections[collection] = b
	}
	return b
}

func validateCollection(collection string) error {
	if strings.TrimSpace(collection) == "" || strings.Contains(collection, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return nil
}

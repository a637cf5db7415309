package docstore

import (
	"errors"
	"testing"
)

func TestMemoryStore_SetGetIsolatesCallerMaps(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := NewMemoryStore(nil)
	input := Fields{"name": "Alice", "races": map[string]any{"r1": 10}}
	if err := store.Set(ctx, "drivers", "d1", input); err != nil {
		t.Fatalf("set: %v", err)
	}
	input["name"] = "mutated"

	doc, ok, err := store.Get(ctx, "drivers", "d1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if doc.Fields["name"] != "Alice" {
		t.Fatalf("stored document leaked caller mutation: %v", doc.Fields["name"])
	}

	doc.Fields["races"].(map[string]any)["r1"] = 99.0
	again, _, _ := store.Get(ctx, "drivers", "d1")
	if got := again.Fields["races"].(map[string]any)["r1"]; got != 10.0 {
		t.Fatalf("stored document leaked reader mutation: %v", got)
	}
}

func TestMemoryStore_UpdateDottedPath(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := NewMemoryStore(nil)
	if err := store.Set(ctx, "drivers", "d1", Fields{"points": 100}); err != nil {
		t.Fatalf("set: %v", err)
	}

	err := store.Update(ctx, "drivers", "d1", Fields{
		"points":   125,
		"races.r1": 25,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, _, _ := store.Get(ctx, "drivers", "d1")
	if doc.Fields["points"] != 125.0 {
		t.Fatalf("expected points 125, got %v", doc.Fields["points"])
	}
	got, ok := Lookup(doc.Fields, "races.r1")
	if !ok || got != 25.0 {
		t.Fatalf("expected races.r1=25, got %v (ok=%v)", got, ok)
	}

	if err := store.Update(ctx, "drivers", "missing", Fields{"points": 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Query(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := NewMemoryStore(nil)
	_ = store.Set(ctx, "drivers", "d1", Fields{"name": "Max Verstappen", "team_id": "t1"})
	_ = store.Set(ctx, "drivers", "d2", Fields{"name": "Max Payne", "team_id": "t2"})
	_ = store.Set(ctx, "drivers", "d3", Fields{"name": "Lando Norris", "team_id": "t1"})

	tests := []struct {
		name    string
		filters []Filter
		want    []string
	}{
		{name: "no filters", want: []string{"d1", "d2", "d3"}},
		{name: "equals", filters: []Filter{Equals("team_id", "t1")}, want: []string{"d1", "d3"}},
		{name: "prefix", filters: []Filter{HasPrefix("name", "Max")}, want: []string{"d1", "d2"}},
		{name: "combined", filters: []Filter{HasPrefix("name", "Max"), Equals("team_id", "t2")}, want: []string{"d2"}},
		{name: "missing field", filters: []Filter{Equals("price", 0)}, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			docs, err := store.Query(ctx, "drivers", tc.filters...)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(docs) != len(tc.want) {
				t.Fatalf("expected %d docs, got %d", len(tc.want), len(docs))
			}
			for i, doc := range docs {
				if doc.ID != tc.want[i] {
					t.Fatalf("doc %d: expected %s, got %s", i, tc.want[i], doc.ID)
				}
			}
		})
	}
}

func TestMemoryStore_AddAndDelete(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := NewMemoryStore(nil)
	docID, err := store.Add(ctx, "races", Fields{"name": "Monza"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if docID == "" {
		t.Fatalf("expected generated id")
	}
	if err := store.Delete(ctx, "races", docID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "races", docID); ok {
		t.Fatalf("expected document to be deleted")
	}
	if err := store.Set(ctx, "", "x", nil); !errors.Is(err, ErrInvalidCollection) {
		t.Fatalf("expected ErrInvalidCollection, got %v", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	type record struct {
		Name  string           `json:"name"`
		Price int64            `json:"price"`
		Races map[string]int64 `json:"races"`
	}

	fields, err := Encode(record{Name: "A", Price: 100_000_000, Races: map[string]int64{"r1": 25}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out record
	if err := Decode(fields, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Price != 100_000_000 || out.Races["r1"] != 25 {
		t.Fatalf("unexpected round trip: %+v", out)
	}
}

func TestPathSegment(t *testing.T) {
	t.Parallel()

	got, err := PathSegment("races", "r1")
	if err != nil || got != "races.r1" {
		t.Fatalf("expected races.r1, got %q err=%v", got, err)
	}
	for _, key := range []string{"", " ", "2026.bahrain", "r1."} {
		if _, err := PathSegment("races", key); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("key %q: expected ErrInvalidPath, got %v", key, err)
		}
	}
}

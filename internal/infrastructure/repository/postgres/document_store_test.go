package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
	qb "github.com/riskibarqy/grid-fantasy/internal/platform/querybuilder"
)

func TestFilterCondition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		filter    docstore.Filter
		wantSQL   string
		wantArgs  []any
		expectErr bool
	}{
		{
			name:     "equals top-level",
			filter:   docstore.Equals("league_id", "l1"),
			wantSQL:  "fields @> $2::jsonb",
			wantArgs: []any{"documents", `{"league_id":"l1"}`},
		},
		{
			name:     "equals nested path",
			filter:   docstore.Equals("races.r1", 25),
			wantSQL:  "fields @> $2::jsonb",
			wantArgs: []any{"documents", `{"races":{"r1":25}}`},
		},
		{
			name:     "prefix",
			filter:   docstore.HasPrefix("name", "Max"),
			wantSQL:  `fields #>> $2 LIKE $3 ESCAPE '\'`,
			wantArgs: []any{"documents", "{name}", "Max%"},
		},
		{
			name:      "prefix needs string",
			filter:    docstore.Filter{Field: "name", Op: docstore.OpPrefix, Value: 1},
			expectErr: true,
		},
		{
			name:      "unknown operator",
			filter:    docstore.Filter{Field: "name", Op: "<"},
			expectErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cond, err := filterCondition(tc.filter)
			if tc.expectErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("filter condition: %v", err)
			}

			query, args, err := qb.Select("id").From("documents").
				Where(qb.Eq("collection", "documents"), cond).
				ToSQL()
			if err != nil {
				t.Fatalf("build query: %v", err)
			}
			if !strings.HasSuffix(query, tc.wantSQL) {
				t.Fatalf("unexpected query: %s", query)
			}
			if fmt.Sprint(args) != fmt.Sprint(tc.wantArgs) {
				t.Fatalf("unexpected args: %v", args)
			}
		})
	}
}

func TestDecodeRow(t *testing.T) {
	t.Parallel()

	doc, err := decodeRow(documentRow{ID: "d1", Fields: []byte(`{"points":125,"races":{"r1":25}}`)})
	if err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if got, _ := docstore.Lookup(doc.Fields, "races.r1"); got != 25.0 {
		t.Fatalf("unexpected races.r1: %v", got)
	}

	empty, err := decodeRow(documentRow{ID: "d2"})
	if err != nil || len(empty.Fields) != 0 {
		t.Fatalf("expected empty fields, got %v err=%v", empty.Fields, err)
	}
}

func TestWrapPQ(t *testing.T) {
	t.Parallel()

	missing := wrapPQ("get document", &pq.Error{Code: "42P01", Message: `relation "documents" does not exist`})
	if !strings.Contains(missing.Error(), "run migrations") {
		t.Fatalf("expected migration hint, got %v", missing)
	}

	other := wrapPQ("get document", sql.ErrConnDone)
	if !errors.Is(other, sql.ErrConnDone) {
		t.Fatalf("expected wrapped error to keep cause, got %v", other)
	}
	if !isNotFound(fmt.Errorf("wrapped: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not-found")
	}
}

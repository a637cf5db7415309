package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
	"github.com/riskibarqy/grid-fantasy/internal/platform/id"
	qb "github.com/riskibarqy/grid-fantasy/internal/platform/querybuilder"
)

const documentsTable = "documents"

type documentRow struct {
	Collection string    `db:"collection"`
	ID         string    `db:"id"`
	Fields     []byte    `db:"fields"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// DocumentStore persists every collection in one jsonb-backed table.
type DocumentStore struct {
	db  *sqlx.DB
	ids id.Generator
}

func NewDocumentStore(db *sqlx.DB, ids id.Generator) *DocumentStore {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &DocumentStore{db: db, ids: ids}
}

func (s *DocumentStore) Get(ctx context.Context, collection, docID string) (docstore.Document, bool, error) {
	query, args, err := qb.Select("id", "fields").
		From(documentsTable).
		Where(qb.Eq("collection", collection), qb.Eq("id", docID)).
		ToSQL()
	if err != nil {
		return docstore.Document{}, false, fmt.Errorf("build get document query: %w", err)
	}

	var row documentRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return docstore.Document{}, false, nil
		}
		return docstore.Document{}, false, wrapPQ(fmt.Sprintf("get document %s/%s", collection, docID), err)
	}

	doc, err := decodeRow(row)
	if err != nil {
		return docstore.Document{}, false, err
	}
	return doc, true, nil
}

func (s *DocumentStore) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	conditions := []qb.Condition{qb.Eq("collection", collection)}
	for _, f := range filters {
		cond, err := filterCondition(f)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}

	query, args, err := qb.Select("id", "fields").
		From(documentsTable).
		Where(conditions...).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query documents: %w", err)
	}

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapPQ(fmt.Sprintf("query documents %s", collection), err)
	}

	out := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *DocumentStore) Set(ctx context.Context, collection, docID string, fields docstore.Fields) error {
	if strings.TrimSpace(docID) == "" {
		return fmt.Errorf("document id is required")
	}
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}
	raw, err := sonic.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("marshal document %s/%s: %w", collection, docID, err)
	}

	query, args, err := qb.InsertModel(documentsTable, documentRow{
		Collection: collection,
		ID:         docID,
		Fields:     raw,
		UpdatedAt:  time.Now().UTC(),
	}, "ON CONFLICT (collection, id) DO UPDATE SET fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at")
	if err != nil {
		return fmt.Errorf("build set document query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapPQ(fmt.Sprintf("set document %s/%s", collection, docID), err)
	}
	return nil
}

// Update reads the row under FOR UPDATE, merges the patch and writes it
// back in one transaction so concurrent patches to different paths of the
// same document do not drop each other.
func (s *DocumentStore) Update(ctx context.Context, collection, docID string, patch docstore.Fields) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for document update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	selectSQL, selectArgs, err := qb.Select("id", "fields").
		From(documentsTable).
		Where(qb.Eq("collection", collection), qb.Eq("id", docID)).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock document query: %w", err)
	}

	var row documentRow
	if err := tx.GetContext(ctx, &row, selectSQL, selectArgs...); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, collection, docID)
		}
		return wrapPQ(fmt.Sprintf("lock document %s/%s", collection, docID), err)
	}

	doc, err := decodeRow(row)
	if err != nil {
		return err
	}
	if err := docstore.ApplyPatch(doc.Fields, patch); err != nil {
		return err
	}
	raw, err := sonic.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal document %s/%s: %w", collection, docID, err)
	}

	updateSQL, updateArgs, err := qb.Update(documentsTable).
		Set("fields", raw).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("collection", collection), qb.Eq("id", docID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update document query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, updateSQL, updateArgs...); err != nil {
		return wrapPQ(fmt.Sprintf("update document %s/%s", collection, docID), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document update tx: %w", err)
	}
	return nil
}

func (s *DocumentStore) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	docID, err := s.ids.NewID()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, collection, docID, fields); err != nil {
		return "", err
	}
	return docID, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, docID string) error {
	query, args, err := qb.DeleteFrom(documentsTable).
		Where(qb.Eq("collection", collection), qb.Eq("id", docID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete document query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapPQ(fmt.Sprintf("delete document %s/%s", collection, docID), err)
	}
	return nil
}

func filterCondition(f docstore.Filter) (qb.Condition, error) {
	path := strings.Split(f.Field, ".")
	switch f.Op {
	case docstore.OpEquals:
		// {"a":{"b":value}} so nested paths use the same containment check.
		var nested any = f.Value
		for i := len(path) - 1; i >= 0; i-- {
			nested = map[string]any{path[i]: nested}
		}
		raw, err := sonic.Marshal(nested)
		if err != nil {
			return nil, fmt.Errorf("marshal filter %s: %w", f.Field, err)
		}
		return qb.JSONContains("fields", raw), nil
	case docstore.OpPrefix:
		prefix, ok := f.Value.(string)
		if !ok {
			return nil, fmt.Errorf("prefix filter on %q requires a string value", f.Field)
		}
		return qb.JSONTextPrefix("fields", path, prefix), nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", f.Op)
	}
}

func decodeRow(row documentRow) (docstore.Document, error) {
	fields := make(docstore.Fields)
	if len(row.Fields) > 0 {
		if err := sonic.Unmarshal(row.Fields, &fields); err != nil {
			return docstore.Document{}, fmt.Errorf("decode document %s: %w", row.ID, err)
		}
	}
	return docstore.Document{ID: row.ID, Fields: fields}, nil
}

func wrapPQ(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
		return fmt.Errorf("%s: documents table missing, run migrations: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

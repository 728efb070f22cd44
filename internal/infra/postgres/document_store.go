// Package postgres implements the document store on a single JSONB table.
// Logical collections are rows sharing a collection value, so listing
// collections is an indexed DISTINCT scan rather than a catalog walk.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"word-weaver-service/internal/store"
)

const uniqueViolation = "23505"

// DocumentStore is the Postgres-backed store.DocumentStore.
type DocumentStore struct {
	pool *pgxpool.Pool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

func (s *DocumentStore) Insert(ctx context.Context, collection string, doc store.Doc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode doc: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `INSERT INTO documents (collection, data) VALUES ($1, $2)`, collection, raw); err != nil {
		return unavailable("insert", err)
	}
	return nil
}

func (s *DocumentStore) InsertMany(ctx context.Context, collection string, docs []store.Doc) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin", err)
	}
	defer tx.Rollback(ctx)

	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode doc: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO documents (collection, data) VALUES ($1, $2)`, collection, raw); err != nil {
			return unavailable("insert many", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

func (s *DocumentStore) InsertUnique(ctx context.Context, collection string, unique store.Filter, doc store.Doc) (bool, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("encode doc: %w", err)
	}
	args := []any{collection, raw}
	where, args := whereClauses(collection, unique, args)
	query := fmt.Sprintf(
		`INSERT INTO documents (collection, data)
		 SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM documents WHERE %s)`, where)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		// The partial unique indexes backstop the NOT EXISTS check under
		// concurrency; a duplicate key means someone else won the race.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, nil
		}
		return false, unavailable("insert unique", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *DocumentStore) Find(ctx context.Context, collection string, filter store.Filter) ([]store.Doc, error) {
	where, args := whereClauses(collection, filter, nil)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT data FROM documents WHERE %s ORDER BY id`, where), args...)
	if err != nil {
		return nil, unavailable("find", err)
	}
	defer rows.Close()

	var docs []store.Doc
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, unavailable("scan", err)
		}
		var doc store.Doc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode doc: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("find", err)
	}
	return docs, nil
}

func (s *DocumentStore) UpdateOne(ctx context.Context, collection string, filter store.Filter, patch store.Patch) (int, error) {
	where, args := whereClauses(collection, filter, nil)

	expr := "data"
	if len(patch.Set) > 0 {
		raw, err := json.Marshal(patch.Set)
		if err != nil {
			return 0, fmt.Errorf("encode patch: %w", err)
		}
		args = append(args, raw)
		expr = fmt.Sprintf("(%s || $%d::jsonb)", expr, len(args))
	}
	for _, field := range sortedKeys(patch.Inc) {
		expr = fmt.Sprintf(
			"jsonb_set(%s, '{%s}', to_jsonb(COALESCE((data->>'%s')::numeric, 0) + %d))",
			expr, field, field, patch.Inc[field])
	}

	// The outer WHERE repeats the filter so the predicate is re-evaluated
	// on the locked row; a concurrent update cannot slip a no-longer-
	// matching document through.
	query := fmt.Sprintf(
		`UPDATE documents SET data = %s
		 WHERE %s AND id = (SELECT id FROM documents WHERE %s ORDER BY id LIMIT 1)`,
		expr, where, where)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, unavailable("update", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *DocumentStore) DeleteOne(ctx context.Context, collection string, filter store.Filter) (int, error) {
	where, args := whereClauses(collection, filter, nil)
	query := fmt.Sprintf(
		`DELETE FROM documents
		 WHERE %s AND id = (SELECT id FROM documents WHERE %s ORDER BY id LIMIT 1)`, where, where)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, unavailable("delete", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *DocumentStore) DeleteMany(ctx context.Context, collection string, filter store.Filter) (int, error) {
	where, args := whereClauses(collection, filter, nil)
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM documents WHERE %s`, where), args...)
	if err != nil {
		return 0, unavailable("delete many", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *DocumentStore) Count(ctx context.Context, collection string, filter store.Filter) (int, error) {
	where, args := whereClauses(collection, filter, nil)
	var count int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM documents WHERE %s`, where), args...).Scan(&count); err != nil {
		return 0, unavailable("count", err)
	}
	return count, nil
}

func (s *DocumentStore) ReplaceAll(ctx context.Context, collection string, docs []store.Doc) error {
	return s.pool.BeginTxFunc(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE collection = $1`, collection); err != nil {
			return unavailable("replace delete", err)
		}
		for _, doc := range docs {
			raw, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("encode doc: %w", err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO documents (collection, data) VALUES ($1, $2)`, collection, raw); err != nil {
				return unavailable("replace insert", err)
			}
		}
		return nil
	})
}

func (s *DocumentStore) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, unavailable("list collections", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, unavailable("scan", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list collections", err)
	}
	return names, nil
}

// whereClauses renders a filter as SQL over the JSONB column. Field names
// only ever come from service code, never from request input; values are
// always bound parameters.
func whereClauses(collection string, filter store.Filter, args []any) (string, []any) {
	args = append(args, collection)
	clauses := []string{fmt.Sprintf("collection = $%d", len(args))}

	fields := make([]string, 0, len(filter))
	for field := range filter {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := filter[field]
		op := "="
		if cond, ok := value.(store.Cond); ok {
			switch cond.Op {
			case "lt":
				op = "<"
			case "gt":
				op = ">"
			case "gte":
				op = ">="
			}
			value = cond.Value
		}

		if value == nil {
			clauses = append(clauses, fmt.Sprintf("data->>'%s' IS NULL", field))
			continue
		}
		args = append(args, value)
		n := len(args)
		switch value.(type) {
		case time.Time:
			clauses = append(clauses, fmt.Sprintf("(data->>'%s')::timestamptz %s $%d", field, op, n))
		case bool:
			clauses = append(clauses, fmt.Sprintf("(data->>'%s')::boolean %s $%d", field, op, n))
		case int, int64, float64:
			clauses = append(clauses, fmt.Sprintf("(data->>'%s')::numeric %s $%d", field, op, n))
		default:
			clauses = append(clauses, fmt.Sprintf("data->>'%s' %s $%d", field, op, n))
		}
	}
	return strings.Join(clauses, " AND "), args
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", store.ErrUnavailable, op, err)
}

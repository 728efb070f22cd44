package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"word-weaver-service/internal/store"
)

// DocumentStore is an in-memory store.DocumentStore. It backs unit tests and
// storeless demo runs. All operations take the same lock, so UpdateOne's
// filter check and patch apply are atomic by construction.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string][]store.Doc
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{collections: make(map[string][]store.Doc)}
}

func (s *DocumentStore) Insert(_ context.Context, collection string, doc store.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], cloneDoc(doc))
	return nil
}

func (s *DocumentStore) InsertMany(_ context.Context, collection string, docs []store.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.collections[collection] = append(s.collections[collection], cloneDoc(doc))
	}
	return nil
}

func (s *DocumentStore) InsertUnique(_ context.Context, collection string, unique store.Filter, doc store.Doc) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.collections[collection] {
		if matches(existing, unique) {
			return false, nil
		}
	}
	s.collections[collection] = append(s.collections[collection], cloneDoc(doc))
	return true, nil
}

func (s *DocumentStore) Find(_ context.Context, collection string, filter store.Filter) ([]store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Doc
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			out = append(out, cloneDoc(doc))
		}
	}
	return out, nil
}

func (s *DocumentStore) UpdateOne(_ context.Context, collection string, filter store.Filter, patch store.Patch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.collections[collection] {
		if !matches(doc, filter) {
			continue
		}
		for field, value := range patch.Set {
			doc[field] = normalize(value)
		}
		for field, delta := range patch.Inc {
			current, _ := toFloat(doc[field])
			doc[field] = current + float64(delta)
		}
		return 1, nil
	}
	return 0, nil
}

func (s *DocumentStore) DeleteOne(_ context.Context, collection string, filter store.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *DocumentStore) DeleteMany(_ context.Context, collection string, filter store.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []store.Doc
	deleted := 0
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	s.collections[collection] = kept
	return deleted, nil
}

func (s *DocumentStore) Count(_ context.Context, collection string, filter store.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			count++
		}
	}
	return count, nil
}

func (s *DocumentStore) ReplaceAll(_ context.Context, collection string, docs []store.Doc) error {
	replacement := make([]store.Doc, 0, len(docs))
	for _, doc := range docs {
		replacement = append(replacement, cloneDoc(doc))
	}
	s.mu.Lock()
	s.collections[collection] = replacement
	s.mu.Unlock()
	return nil
}

func (s *DocumentStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func matches(doc store.Doc, filter store.Filter) bool {
	for field, want := range filter {
		got, ok := doc[field]
		if !ok {
			return false
		}
		if cond, isCond := want.(store.Cond); isCond {
			cmp, comparable := compare(got, cond.Value)
			if !comparable {
				return false
			}
			switch cond.Op {
			case "lt":
				if cmp >= 0 {
					return false
				}
			case "gt":
				if cmp <= 0 {
					return false
				}
			case "gte":
				if cmp < 0 {
					return false
				}
			default:
				return false
			}
			continue
		}
		cmp, comparable := compare(got, want)
		if !comparable || cmp != 0 {
			return false
		}
	}
	return true
}

// compare orders a stored JSON value against a typed filter value. Times are
// compared as instants (stored docs carry RFC 3339 strings), numbers as
// float64, strings lexically.
func compare(docVal, filterVal any) (int, bool) {
	switch want := filterVal.(type) {
	case time.Time:
		raw, ok := docVal.(string)
		if !ok {
			return 0, false
		}
		got, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return 0, false
		}
		switch {
		case got.Before(want):
			return -1, true
		case got.After(want):
			return 1, true
		}
		return 0, true
	case string:
		raw, ok := docVal.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(raw, want), true
	case bool:
		raw, ok := docVal.(bool)
		if !ok {
			return 0, false
		}
		if raw == want {
			return 0, true
		}
		return 1, true
	case nil:
		if docVal == nil {
			return 0, true
		}
		return 1, true
	}
	want, ok := toFloat(filterVal)
	if !ok {
		return 0, false
	}
	got, ok := toFloat(docVal)
	if !ok {
		return 0, false
	}
	switch {
	case got < want:
		return -1, true
	case got > want:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// normalize reduces a typed value to its JSON form so stored documents stay
// uniform regardless of how they were written.
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func cloneDoc(doc store.Doc) store.Doc {
	out := make(store.Doc, len(doc))
	for field, value := range doc {
		out[field] = normalize(value)
	}
	return out
}

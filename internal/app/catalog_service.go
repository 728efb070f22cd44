package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"word-weaver-service/internal/domain"
	"word-weaver-service/internal/store"
)

// CatalogCache serves catalog reads (in-memory, Redis, etc). Invalidate is
// called after every catalog mutation, including restores and seeding.
type CatalogCache interface {
	Words(ctx context.Context) ([]domain.WordCard, error)
	Invalidate(ctx context.Context)
}

// CatalogLoader reads the live catalog straight from the document store.
// Cache implementations fall back to it on a miss.
type CatalogLoader struct {
	store store.DocumentStore
}

func NewCatalogLoader(st store.DocumentStore) *CatalogLoader {
	return &CatalogLoader{store: st}
}

func (l *CatalogLoader) LoadWords(ctx context.Context) ([]domain.WordCard, error) {
	docs, err := l.store.Find(ctx, collWords, nil)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return store.FromDocs[domain.WordCard](docs)
}

// CatalogService owns the live word-card catalog: cached reads for students,
// teacher-only mutations.
type CatalogService struct {
	store store.DocumentStore
	cache CatalogCache
}

func NewCatalogService(st store.DocumentStore, cache CatalogCache) *CatalogService {
	return &CatalogService{store: st, cache: cache}
}

// Words returns the full catalog for any authenticated caller.
func (s *CatalogService) Words(ctx context.Context) ([]domain.WordCard, error) {
	return s.cache.Words(ctx)
}

// CreateWord adds a card to the catalog and returns its generated id.
func (s *CatalogService) CreateWord(ctx context.Context, ident domain.Identity, card domain.WordCard) (string, error) {
	if !ident.IsTeacher() {
		return "", domain.ErrUnauthorized
	}
	card.ID = uuid.NewString()
	doc, err := store.ToDoc(card)
	if err != nil {
		return "", fmt.Errorf("encode word: %w", err)
	}
	if err := s.store.Insert(ctx, collWords, doc); err != nil {
		return "", fmt.Errorf("insert word: %w", err)
	}
	s.cache.Invalidate(ctx)
	return card.ID, nil
}

// UpdateWord replaces the content fields of an existing card. The id is
// immutable once assigned.
func (s *CatalogService) UpdateWord(ctx context.Context, ident domain.Identity, wordID string, card domain.WordCard) error {
	if !ident.IsTeacher() {
		return domain.ErrUnauthorized
	}
	card.ID = wordID
	doc, err := store.ToDoc(card)
	if err != nil {
		return fmt.Errorf("encode word: %w", err)
	}
	matched, err := s.store.UpdateOne(ctx, collWords, store.Filter{"id": wordID}, store.Patch{Set: doc})
	if err != nil {
		return fmt.Errorf("update word: %w", err)
	}
	if matched == 0 {
		return domain.ErrWordNotFound
	}
	s.cache.Invalidate(ctx)
	return nil
}

// DeleteWord removes a card from the catalog.
func (s *CatalogService) DeleteWord(ctx context.Context, ident domain.Identity, wordID string) error {
	if !ident.IsTeacher() {
		return domain.ErrUnauthorized
	}
	deleted, err := s.store.DeleteOne(ctx, collWords, store.Filter{"id": wordID})
	if err != nil {
		return fmt.Errorf("delete word: %w", err)
	}
	if deleted == 0 {
		return domain.ErrWordNotFound
	}
	s.cache.Invalidate(ctx)
	return nil
}

package memory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"word-weaver-service/internal/domain"
)

// countingLoader counts how often the cache falls through to the store.
type countingLoader struct {
	loads int64
	words []domain.WordCard
}

func (l *countingLoader) LoadWords(_ context.Context) ([]domain.WordCard, error) {
	atomic.AddInt64(&l.loads, 1)
	return l.words, nil
}

func TestCatalogCacheServesFromMemory(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{words: []domain.WordCard{{ID: "w1", Root: "tele"}}}
	cache := NewCatalogCache(loader, time.Minute)

	for i := 0; i < 3; i++ {
		words, err := cache.Words(ctx)
		if err != nil {
			t.Fatalf("words: %v", err)
		}
		if len(words) != 1 || words[0].ID != "w1" {
			t.Fatalf("unexpected words %+v", words)
		}
	}
	if got := atomic.LoadInt64(&loader.loads); got != 1 {
		t.Fatalf("expected a single load within the TTL, got %d", got)
	}
}

func TestCatalogCacheInvalidateForcesReload(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{words: []domain.WordCard{{ID: "w1"}}}
	cache := NewCatalogCache(loader, time.Minute)

	if _, err := cache.Words(ctx); err != nil {
		t.Fatalf("words: %v", err)
	}

	loader.words = []domain.WordCard{{ID: "w1"}, {ID: "w2"}}
	cache.Invalidate(ctx)

	words, err := cache.Words(ctx)
	if err != nil {
		t.Fatalf("words after invalidate: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("expected reloaded catalog, got %d words", len(words))
	}
	if got := atomic.LoadInt64(&loader.loads); got != 2 {
		t.Fatalf("expected 2 loads, got %d", got)
	}
}

func TestCatalogCacheCachesEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{}
	cache := NewCatalogCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		words, err := cache.Words(ctx)
		if err != nil {
			t.Fatalf("words: %v", err)
		}
		if words == nil || len(words) != 0 {
			t.Fatalf("expected empty non-nil catalog, got %v", words)
		}
	}
	if got := atomic.LoadInt64(&loader.loads); got != 1 {
		t.Fatalf("an empty catalog is still cacheable, got %d loads", got)
	}
}

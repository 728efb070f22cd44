package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"word-weaver-service/internal/domain"
)

// CatalogLoader reads the live catalog from the backing store.
type CatalogLoader interface {
	LoadWords(ctx context.Context) ([]domain.WordCard, error)
}

// CatalogCache caches the word catalog with a TTL to avoid re-reading the
// store on every student request.
type CatalogCache struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	words     []domain.WordCard
	expiresAt time.Time
}

func NewCatalogCache(loader CatalogLoader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) Words(ctx context.Context) ([]domain.WordCard, error) {
	now := c.clock()

	c.mu.RLock()
	if c.words != nil && c.expiresAt.After(now) {
		words := c.words
		c.mu.RUnlock()
		return words, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("catalog", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.words != nil && c.expiresAt.After(now) {
			words := c.words
			c.mu.RUnlock()
			return words, nil
		}
		c.mu.RUnlock()

		words, err := c.loader.LoadWords(ctx)
		if err != nil {
			return nil, err
		}
		if words == nil {
			words = []domain.WordCard{}
		}

		c.mu.Lock()
		c.words = words
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return words, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.WordCard), nil
}

// Invalidate drops the cached catalog; the next read goes to the loader.
func (c *CatalogCache) Invalidate(_ context.Context) {
	c.mu.Lock()
	c.words = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

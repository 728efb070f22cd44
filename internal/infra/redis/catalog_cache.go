// Package redis provides the Redis-backed catalog cache shared by multiple
// service instances.
package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"word-weaver-service/internal/domain"
)

const catalogKey = "catalog:words"

// CatalogLoader reads the live catalog from the backing store.
type CatalogLoader interface {
	LoadWords(ctx context.Context) ([]domain.WordCard, error)
}

// CatalogCache keeps the serialized catalog in Redis and falls back to the
// loader on a miss. Concurrent misses collapse into one load.
type CatalogCache struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) Words(ctx context.Context) ([]domain.WordCard, error) {
	if words, ok := c.cached(ctx); ok {
		return words, nil
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if words, ok := c.cached(ctx); ok {
			return words, nil
		}

		words, err := c.loader.LoadWords(ctx)
		if err != nil {
			return nil, err
		}
		if words == nil {
			words = []domain.WordCard{}
		}

		raw, err := json.Marshal(words)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, catalogKey, raw, c.ttlWithJitter()).Err(); err != nil {
			// A failed cache write only costs the next reader a load.
			log.Printf("catalog cache write failed: %v", err)
		}
		return words, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.WordCard), nil
}

// Invalidate drops the shared cache entry after a catalog mutation.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		log.Printf("catalog cache invalidate failed: %v", err)
	}
}

func (c *CatalogCache) cached(ctx context.Context) ([]domain.WordCard, bool) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		return nil, false
	}
	var words []domain.WordCard
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, false
	}
	return words, true
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

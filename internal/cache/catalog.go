package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RaikyD/food-orders-service/internal/application"
	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/logger"
)

const opMenuItem = "menu-item"

// CachedCatalog is a read-through cache in front of a Catalog. Cache
// failures are logged and the lookup falls through to the backing catalog.
type CachedCatalog struct {
	next  application.Catalog
	cache Cache
	ttl   time.Duration
}

var _ application.Catalog = (*CachedCatalog)(nil)

func NewCachedCatalog(next application.Catalog, c Cache, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, cache: c, ttl: ttl}
}

func (c *CachedCatalog) Lookup(ctx context.Context, ids []string) (map[string]domain.MenuItem, error) {
	out := make(map[string]domain.MenuItem, len(ids))
	misses := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		raw, err := c.cache.Get(ctx, c.cache.GenerateKey(opMenuItem, id))
		if err != nil {
			logger.Warn("catalog cache read failed", "menu_item_id", id, "err", err)
		}
		if raw == "" {
			misses = append(misses, id)
			continue
		}
		var it domain.MenuItem
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			logger.Warn("catalog cache entry corrupt", "menu_item_id", id, "err", err)
			misses = append(misses, id)
			continue
		}
		out[id] = it
	}

	if len(misses) == 0 {
		return out, nil
	}
	fetched, err := c.next.Lookup(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, it := range fetched {
		out[id] = it
		b, err := json.Marshal(it)
		if err != nil {
			continue
		}
		if err := c.cache.Set(ctx, c.cache.GenerateKey(opMenuItem, id), b, c.ttl); err != nil {
			logger.Warn("catalog cache write failed", "menu_item_id", id, "err", err)
		}
	}
	return out, nil
}

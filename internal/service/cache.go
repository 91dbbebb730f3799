package service

import (
	"context"
	"fmt"
	"sync"

	"ideaboard/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader is the scan the cache memoizes.
type CatalogLoader interface {
	Load(ctx context.Context, cfg models.CatalogConfig) (*Catalog, error)
}

// CatalogCache memoizes catalogs per (base directory, metric, synthetic mode).
// Entries live until explicitly invalidated.
type CatalogCache struct {
	loader CatalogLoader
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[models.CatalogConfig]*Catalog
	// Bumped by Invalidate (per key) and InvalidateAll (epoch). A scan only
	// stores its result if neither moved while it ran.
	gens     map[models.CatalogConfig]uint64
	epoch    uint64
	inflight map[models.CatalogConfig]int

	// Singleflight to prevent stampede
	sf singleflight.Group
}

func NewCatalogCache(loader CatalogLoader, logger *zap.Logger) *CatalogCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogCache{
		loader:  loader,
		logger:  logger.Named("catalog_cache"),
		entries:  make(map[models.CatalogConfig]*Catalog),
		gens:     make(map[models.CatalogConfig]uint64),
		inflight: make(map[models.CatalogConfig]int),
	}
}

// Get returns the cached catalog for cfg, scanning on a miss. Failed scans
// are not cached.
func (c *CatalogCache) Get(ctx context.Context, cfg models.CatalogConfig) (*Catalog, error) {
	c.mu.RLock()
	catalog, ok := c.entries[cfg]
	c.mu.RUnlock()
	if ok {
		return catalog, nil
	}

	v, err, shared := c.sf.Do(cacheKey(cfg), func() (interface{}, error) {
		// A scan that finished between the read above and here already stored its result.
		c.mu.Lock()
		cached, ok := c.entries[cfg]
		gen, epoch := c.gens[cfg], c.epoch
		if !ok {
			c.inflight[cfg]++
		}
		c.mu.Unlock()
		if ok {
			return cached, nil
		}

		loaded, err := c.loader.Load(ctx, cfg)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.inflight[cfg]--; c.inflight[cfg] <= 0 {
			delete(c.inflight, cfg)
		}
		if err != nil {
			return nil, err
		}
		if c.gens[cfg] == gen && c.epoch == epoch {
			c.entries[cfg] = loaded
		} else {
			c.logger.Debug("Discarded catalog scan invalidated mid-flight", zap.String("base_dir", cfg.BaseDirectory))
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("Shared in-flight catalog scan", zap.String("base_dir", cfg.BaseDirectory))
	}
	return v.(*Catalog), nil
}

// Refresh drops the entry for cfg and scans again.
func (c *CatalogCache) Refresh(ctx context.Context, cfg models.CatalogConfig) (*Catalog, error) {
	c.Invalidate(cfg)
	return c.Get(ctx, cfg)
}

func (c *CatalogCache) Invalidate(cfg models.CatalogConfig) {
	c.mu.Lock()
	delete(c.entries, cfg)
	c.gens[cfg]++
	c.mu.Unlock()
	c.sf.Forget(cacheKey(cfg))
}

func (c *CatalogCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[models.CatalogConfig]*Catalog)
	c.epoch++
	pending := make([]models.CatalogConfig, 0, len(c.inflight))
	for cfg := range c.inflight {
		pending = append(pending, cfg)
	}
	c.mu.Unlock()
	for _, cfg := range pending {
		c.sf.Forget(cacheKey(cfg))
	}
}

// Len reports the number of cached catalogs.
func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(cfg models.CatalogConfig) string {
	return fmt.Sprintf("%s\x00%s\x00%t", cfg.BaseDirectory, cfg.MetricName, cfg.SyntheticMode)
}

package search

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/metrics"
)

const propertiesCacheKey = "propertiesToSearch"

// propertyCache memoizes the searchable string properties of the index.
// Concurrent first lookups share one index call; Invalidate drops the
// value and discards any lookup that started before it.
type propertyCache struct {
	index Index
	group singleflight.Group

	mu     sync.RWMutex
	values map[string][]string
	gen    uint64
}

func newPropertyCache(index Index) *propertyCache {
	return &propertyCache{index: index, values: make(map[string][]string)}
}

// Invalidate forgets the cached property set.
func (c *propertyCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, propertiesCacheKey)
	c.gen++
}

func (c *propertyCache) searchable(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	props, ok := c.values[propertiesCacheKey]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		metrics.PropertyCacheTotal.WithLabelValues("hit").Inc()
		return props, nil
	}
	metrics.PropertyCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(propertiesCacheKey, func() (any, error) {
		computed, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.values[propertiesCacheKey] = computed
		}
		c.mu.Unlock()
		return computed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// load keeps the index ordering of the string-typed searchable properties.
func (c *propertyCache) load(ctx context.Context) ([]string, error) {
	types, err := c.index.SearchablePropertiesWithTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("searchable property types: %w", err)
	}
	ordered, err := c.index.SearchableProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("searchable properties: %w", err)
	}
	out := make([]string, 0, len(ordered))
	for _, p := range ordered {
		if t, ok := types[p]; ok && t.IsString() {
			out = append(out, p)
		}
	}
	return out, nil
}

// resolve returns the properties a search runs over: every searchable
// property when explicit is empty, otherwise the members of explicit in
// index order. Any unknown entry fails the whole resolution.
func (c *propertyCache) resolve(ctx context.Context, explicit []string) ([]string, error) {
	all, err := c.searchable(ctx)
	if err != nil {
		return nil, err
	}
	if len(explicit) == 0 {
		return all, nil
	}

	known := make(map[string]struct{}, len(all))
	for _, p := range all {
		known[p] = struct{}{}
	}
	wanted := make(map[string]struct{}, len(explicit))
	for _, p := range explicit {
		if _, ok := known[p]; !ok {
			return nil, domain.NewUnknownProperty(p, all)
		}
		wanted[p] = struct{}{}
	}

	out := make([]string, 0, len(explicit))
	for _, p := range all {
		if _, ok := wanted[p]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

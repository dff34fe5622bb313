package engine

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/maya/out-and-about/pkg/domain"
	"github.com/maya/out-and-about/pkg/metrics"
)

const defaultDetailCacheSize = 128

// DetailCache lazily upgrades shallow list entities into the richer detail
// record. An entity that already carries what a detail view needs is never
// re-fetched; otherwise exactly one enrichment fetch runs per id at a time,
// de-duplicated across concurrent re-focuses. A manual local mutation can
// suppress the next automatic fetch so a stale server copy does not clobber
// an optimistic update that has not round-tripped yet.
type DetailCache struct {
	fetcher domain.DetailFetcher
	group   singleflight.Group
	metrics *metrics.Metrics

	mu     sync.Mutex
	cache  *lru.Cache[string, domain.Entity]
	manual map[string]bool
}

func NewDetailCache(fetcher domain.DetailFetcher, size int, m *metrics.Metrics) (*DetailCache, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("detail fetcher is required")
	}
	if size <= 0 {
		size = defaultDetailCacheSize
	}
	cache, err := lru.New[string, domain.Entity](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create detail cache: %w", err)
	}
	return &DetailCache{
		fetcher: fetcher,
		metrics: m,
		cache:   cache,
		manual:  make(map[string]bool),
	}, nil
}

// Get returns the best available detail copy for the entity. On enrichment
// failure the shallow entity is returned together with ErrEnrichmentFailed
// so the caller can degrade instead of blocking. Callers must re-check that
// the returned entity still matches the focused id before applying it; a
// focus change while the fetch was in flight makes the result stale.
func (c *DetailCache) Get(ctx context.Context, entity domain.Entity) (domain.Entity, error) {
	if entity == nil {
		return nil, domain.ErrInvalidRequest
	}
	core := entity.EntityCore()

	c.mu.Lock()
	cached, haveCached := c.cache.Get(core.ID)
	if c.manual[core.ID] {
		// One optimistic update is pending server confirmation; skip
		// this enrichment cycle so it is not overwritten.
		delete(c.manual, core.ID)
		c.mu.Unlock()
		c.metrics.DetailCacheHit()
		if haveCached {
			return cached, nil
		}
		return entity, nil
	}
	c.mu.Unlock()

	if haveCached && hasSufficientDetail(cached) {
		c.metrics.DetailCacheHit()
		return cached, nil
	}
	if hasSufficientDetail(entity) {
		c.mu.Lock()
		c.cache.Add(core.ID, entity)
		c.mu.Unlock()
		c.metrics.DetailCacheHit()
		return entity, nil
	}

	c.metrics.DetailCacheMiss()
	result, err, _ := c.group.Do(core.ID, func() (interface{}, error) {
		return c.fetcher.FetchEntityDetail(ctx, core.ID, core.Source)
	})
	if err != nil {
		c.metrics.EnrichmentFailure()
		return entity, fmt.Errorf("%w: %v", domain.ErrEnrichmentFailed, err)
	}

	enriched, ok := result.(domain.Entity)
	if !ok || enriched == nil {
		c.metrics.EnrichmentFailure()
		return entity, domain.ErrEnrichmentFailed
	}
	// The singleflight result is shared between every de-duplicated caller,
	// so each one merges into its own copy and the fetched value itself is
	// never written.
	merged := mergeDetail(entity, cloneEntity(enriched))

	c.mu.Lock()
	c.cache.Add(core.ID, merged)
	c.mu.Unlock()
	return merged, nil
}

// MarkManuallyUpdated records a local mutation for the entity and keeps the
// freshest local copy, suppressing the next automatic enrichment fetch.
func (c *DetailCache) MarkManuallyUpdated(entity domain.Entity) {
	if entity == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manual[entity.EntityCore().ID] = true
	c.cache.Add(entity.EntityCore().ID, entity)
}

// Invalidate drops the derived copy when the detail view closes.
func (c *DetailCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(id)
	delete(c.manual, id)
}

// hasSufficientDetail reports whether a detail view can render the entity
// without another fetch: images and categories for everything, plus an
// attendee profile preview for events.
func hasSufficientDetail(entity domain.Entity) bool {
	core := entity.EntityCore()
	if len(core.ImageURLs) == 0 {
		return false
	}
	switch e := entity.(type) {
	case *domain.Event:
		return len(core.Categories) > 0 && len(e.Attendees.Profiles) > 0
	case *domain.Location:
		return len(core.Categories) > 0 || e.Category != nil
	}
	return false
}

// cloneEntity makes a top-level copy of an entity so a merge can write into
// it without touching the original.
func cloneEntity(entity domain.Entity) domain.Entity {
	switch e := entity.(type) {
	case *domain.Event:
		clone := *e
		return &clone
	case *domain.Location:
		clone := *e
		return &clone
	}
	return entity
}

// mergeDetail prefers the fetched detail record but backfills fields the
// detail endpoint left empty from the shallow list copy.
func mergeDetail(shallow, detail domain.Entity) domain.Entity {
	sc := shallow.EntityCore()
	dc := detail.EntityCore()

	if dc.Name == "" {
		dc.Name = sc.Name
	}
	if dc.Description == "" {
		dc.Description = sc.Description
	}
	if len(dc.ImageURLs) == 0 {
		dc.ImageURLs = sc.ImageURLs
	}
	if dc.Address == "" {
		dc.Address = sc.Address
	}
	if dc.Coordinates == nil {
		dc.Coordinates = sc.Coordinates
	}
	if len(dc.Categories) == 0 {
		dc.Categories = sc.Categories
	}

	se, sok := shallow.(*domain.Event)
	de, dok := detail.(*domain.Event)
	if sok && dok {
		if de.Attendees.Count == 0 {
			de.Attendees = se.Attendees
		}
		if de.CreatedBy == nil {
			de.CreatedBy = se.CreatedBy
		}
		if de.Ticketing == nil {
			de.Ticketing = se.Ticketing
		}
	}
	return detail
}

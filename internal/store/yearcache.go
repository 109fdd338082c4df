package store

import (
	"context"
	"fmt"
	"sync"
)

// YearCache maps a numeric year to its fiscal-year record id. It is filled on
// first miss from the FiscalYears collection and can be invalidated when the
// fiscal-year table changes. Injected explicitly so callers control its
// lifetime; there is no package-level state.
type YearCache struct {
	mu     sync.RWMutex
	byYear map[int]string
}

// NewYearCache returns an empty cache.
func NewYearCache() *YearCache {
	return &YearCache{byYear: make(map[int]string)}
}

// Lookup resolves a year to a fiscal-year id, loading the full collection on
// a cache miss. Returns ErrNotFound when no record exists for the year.
func (c *YearCache) Lookup(ctx context.Context, years FiscalYears, year int) (string, error) {
	c.mu.RLock()
	id, ok := c.byYear[year]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	rows, err := years.List(ctx)
	if err != nil {
		return "", fmt.Errorf("YearCache.Lookup: list fiscal years: %w", err)
	}

	c.mu.Lock()
	for _, fy := range rows {
		c.byYear[fy.Year] = fy.ID
	}
	id, ok = c.byYear[year]
	c.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("YearCache.Lookup: year %d: %w", year, ErrNotFound)
	}
	return id, nil
}

// Invalidate drops all cached entries.
func (c *YearCache) Invalidate() {
	c.mu.Lock()
	c.byYear = make(map[int]string)
	c.mu.Unlock()
}

package geocode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/metrics"
)

// Cache is a concurrency-safe locality cache layered over a Resolver.
// Entries are immutable once written, including negative entries, so a
// locality the service could not resolve is never retried. The cache
// persists as a JSON file between runs.
type Cache struct {
	resolver Resolver
	path     string

	mu      sync.RWMutex
	entries map[string]model.GeoFix

	// flight dedupes concurrent lookups of the same query.
	flightMu sync.Mutex
	flight   map[string]*flightCall

	hits       atomic.Int64
	resolved   atomic.Int64
	unresolved atomic.Int64
}

// flightCall executes one resolve for a query. The resolver outcome
// is carried to every goroutine that joined the call, not just the
// one that ran it.
type flightCall struct {
	once sync.Once
	err  error
}

// Stats reports cache activity since construction: lookups answered
// from the cache, and resolver answers split by outcome.
type Stats struct {
	Hits       int
	Resolved   int
	Unresolved int
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:       int(c.hits.Load()),
		Resolved:   int(c.resolved.Load()),
		Unresolved: int(c.unresolved.Load()),
	}
}

// NewCache creates a cache over the given resolver. path may be empty
// for a purely in-memory cache.
func NewCache(resolver Resolver, path string) (*Cache, error) {
	c := &Cache{
		resolver: resolver,
		path:     path,
		entries:  map[string]model.GeoFix{},
		flight:   map[string]*flightCall{},
	}
	if path != "" {
		if err := c.load(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Lookup returns the fix for a locality query, consulting the resolver
// on a miss. Concurrent lookups of the same query resolve once. The
// first write for a query wins; it is never overwritten.
func (c *Cache) Lookup(ctx context.Context, query string) (model.GeoFix, error) {
	if query == "" {
		return model.GeoFix{}, nil
	}

	c.mu.RLock()
	fix, ok := c.entries[query]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		metrics.RecordGeocodeCacheHit()
		return fix, nil
	}

	c.flightMu.Lock()
	call, ok := c.flight[query]
	if !ok {
		call = &flightCall{}
		c.flight[query] = call
	}
	c.flightMu.Unlock()

	call.once.Do(func() {
		resolved, err := c.resolver.Resolve(ctx, query)
		if err != nil {
			call.err = err
			return
		}
		resolved.Query = query
		c.mu.Lock()
		if _, exists := c.entries[query]; !exists {
			c.entries[query] = resolved
		}
		c.mu.Unlock()

		if resolved.Resolved() {
			c.resolved.Add(1)
			metrics.RecordGeocodeResolved()
		} else {
			c.unresolved.Add(1)
			metrics.RecordGeocodeUnresolved()
		}
	})
	if call.err != nil {
		// leave no entry behind so a later lookup can retry
		c.flightMu.Lock()
		if c.flight[query] == call {
			delete(c.flight, query)
		}
		c.flightMu.Unlock()
		return model.GeoFix{}, call.err
	}

	c.mu.RLock()
	fix = c.entries[query]
	c.mu.RUnlock()
	return fix, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Persist writes the cache to its file atomically. A cache without a
// path persists nothing.
func (c *Cache) Persist() error {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	fixes := make([]model.GeoFix, 0, len(c.entries))
	for _, fix := range c.entries {
		fixes = append(fixes, fix)
	}
	c.mu.RUnlock()
	sort.Slice(fixes, func(i, j int) bool { return fixes[i].Query < fixes[j].Query })

	data, err := json.MarshalIndent(fixes, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCachePersist, err)
	}

	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), 0o750); err != nil {
		return fmt.Errorf("%w: %w", ErrCachePersist, err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: %w", ErrCachePersist, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("%w: %w", ErrCachePersist, err)
	}
	return nil
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCachePersist, err)
	}

	var fixes []model.GeoFix
	if err := json.Unmarshal(data, &fixes); err != nil {
		return fmt.Errorf("%w: %w", ErrCachePersist, err)
	}
	for _, fix := range fixes {
		if fix.Query != "" {
			c.entries[fix.Query] = fix
		}
	}
	return nil
}

package javac

import (
	"sync"

	"jjsdev/internal/shared/observability"
	"jjsdev/internal/shared/treelog"
)

// UnitCache stores units between builds. Find and FindByContentID are pure
// lookups; deciding whether a hit is stale is the caller's job.
type UnitCache interface {
	Find(resourcePath string) CompilationUnit
	FindByContentID(id ContentID) CompilationUnit
	Add(u CompilationUnit)
	// AddArchived seeds the cache from an archive.
	AddArchived(u *CachedUnit)
	Remove(u CompilationUnit)
	// Cleanup runs once per full build pass and may drop entries that were
	// superseded without being re-added.
	Cleanup(logger *treelog.Logger)
	Close() error
}

// Origin says where a cache entry came from.
type Origin int

const (
	OriginNew Origin = iota
	OriginPersistent
	OriginArchived
)

type cacheEntry struct {
	unit   CompilationUnit
	origin Origin
}

// MemoryUnitCache keeps units for the life of the process.
type MemoryUnitCache struct {
	kind string

	mu          sync.RWMutex
	byPath      map[string]cacheEntry
	byContentID map[string]cacheEntry
}

func NewMemoryUnitCache() *MemoryUnitCache {
	return newMemoryUnitCache("memory")
}

// NewMemoryUnitCacheOfKind labels lookup metrics with kind. Caches that
// layer storage over a memory cache use it.
func NewMemoryUnitCacheOfKind(kind string) *MemoryUnitCache {
	return newMemoryUnitCache(kind)
}

func newMemoryUnitCache(kind string) *MemoryUnitCache {
	return &MemoryUnitCache{
		kind:        kind,
		byPath:      make(map[string]cacheEntry),
		byContentID: make(map[string]cacheEntry),
	}
}

func (c *MemoryUnitCache) record(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	observability.UnitCacheLookups.WithLabelValues(c.kind, result).Inc()
}

func (c *MemoryUnitCache) Find(resourcePath string) CompilationUnit {
	c.mu.RLock()
	e, ok := c.byPath[resourcePath]
	c.mu.RUnlock()
	c.record(ok)
	return e.unit
}

func (c *MemoryUnitCache) FindByContentID(id ContentID) CompilationUnit {
	c.mu.RLock()
	e, ok := c.byContentID[id.String()]
	c.mu.RUnlock()
	c.record(ok)
	return e.unit
}

func (c *MemoryUnitCache) Add(u CompilationUnit) {
	c.AddWithOrigin(u, OriginNew)
}

func (c *MemoryUnitCache) AddArchived(u *CachedUnit) {
	c.AddWithOrigin(u, OriginArchived)
}

// AddWithOrigin stores u, replacing whatever the path mapped to before.
func (c *MemoryUnitCache) AddWithOrigin(u CompilationUnit, origin Origin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{unit: u, origin: origin}
	if old, ok := c.byPath[u.ResourcePath()]; ok {
		c.dropContentID(old.unit)
	}
	c.byPath[u.ResourcePath()] = e
	c.byContentID[u.ContentID().String()] = e
}

func (c *MemoryUnitCache) dropContentID(u CompilationUnit) {
	key := u.ContentID().String()
	if e, ok := c.byContentID[key]; ok && e.unit == u {
		delete(c.byContentID, key)
	}
}

func (c *MemoryUnitCache) Remove(u CompilationUnit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.byPath[u.ResourcePath()]; ok && e.unit == u {
		delete(c.byPath, u.ResourcePath())
	}
	c.dropContentID(u)
}

func (c *MemoryUnitCache) Cleanup(*treelog.Logger) {}

func (c *MemoryUnitCache) Close() error { return nil }

// Has reports whether resourcePath is cached without counting a lookup.
func (c *MemoryUnitCache) Has(resourcePath string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byPath[resourcePath]
	return ok
}

// Len is the number of cached paths.
func (c *MemoryUnitCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byPath)
}

// Entries returns every cached unit with its origin.
func (c *MemoryUnitCache) Entries() map[string]Origin {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Origin, len(c.byPath))
	for path, e := range c.byPath {
		out[path] = e.origin
	}
	return out
}

// Units returns every unit keyed by resource path.
func (c *MemoryUnitCache) Units() map[string]CompilationUnit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]CompilationUnit, len(c.byPath))
	for path, e := range c.byPath {
		out[path] = e.unit
	}
	return out
}

package availability

import (
	"sync"
	"time"

	"github.com/tapcask-pos/tapcask/internal/observability"
)

// DefaultCacheTTL bounds how long a computed availability may be served
// without consulting the store again.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	value    Availability
	storedAt time.Time
	version  uint64
}

// ResultCache is an in-memory, TTL-bounded store of availability results.
//
// Entries are immutable once written and replaced wholesale, so readers never
// observe partial state. A schema version stamp lets BumpVersion invalidate
// everything lazily on the next read instead of sweeping eagerly. The
// product-to-packages index that drives InvalidateForProduct is an explicit,
// rebuildable structure rather than a side effect of iteration, so it can be
// tested independently of timing.
type ResultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	version uint64
	entries map[int64]cacheEntry
	index   map[int64]map[int64]struct{}
	metrics *observability.Metrics
	now     func() time.Time
}

// NewResultCache constructs a ResultCache. A non-positive ttl falls back to
// DefaultCacheTTL. metrics may be nil.
func NewResultCache(ttl time.Duration, metrics *observability.Metrics) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{
		ttl:     ttl,
		entries: make(map[int64]cacheEntry),
		index:   make(map[int64]map[int64]struct{}),
		metrics: metrics,
		now:     time.Now,
	}
}

// Get returns the cached availability for a package. Expired or
// version-stale entries are evicted and reported as a miss.
func (c *ResultCache) Get(packageID int64) (Availability, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[packageID]
	if !ok {
		c.metrics.CacheMiss()
		return Availability{}, false
	}
	if entry.version != c.version || c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, packageID)
		c.metrics.CacheEviction(1)
		c.metrics.CacheMiss()
		return Availability{}, false
	}
	c.metrics.CacheHit()
	return entry.value, true
}

// Put stores an availability result and records the package under each of
// its component products in the invalidation index. Last write wins.
func (c *ResultCache) Put(packageID int64, value Availability, componentProducts []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[packageID] = cacheEntry{value: value, storedAt: c.now(), version: c.version}
	for _, productID := range componentProducts {
		set, ok := c.index[productID]
		if !ok {
			set = make(map[int64]struct{})
			c.index[productID] = set
		}
		set[packageID] = struct{}{}
	}
}

// Invalidate evicts the given package entries, or every entry when called
// with no arguments.
func (c *ResultCache) Invalidate(packageIDs ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.CacheInvalidation()
	if len(packageIDs) == 0 {
		evicted := len(c.entries)
		c.entries = make(map[int64]cacheEntry)
		c.metrics.CacheEviction(evicted)
		return
	}
	evicted := 0
	for _, id := range packageIDs {
		if _, ok := c.entries[id]; ok {
			delete(c.entries, id)
			evicted++
		}
	}
	c.metrics.CacheEviction(evicted)
}

// InvalidateForProduct evicts every cached package that lists the product as
// a component. Returns the affected package ids. After any stock mutation on
// product P completes, the next Get for any package containing P must miss;
// this method is that guarantee.
func (c *ResultCache) InvalidateForProduct(productID int64) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.CacheInvalidation()
	set := c.index[productID]
	if len(set) == 0 {
		return nil
	}
	affected := make([]int64, 0, len(set))
	evicted := 0
	for packageID := range set {
		affected = append(affected, packageID)
		if _, ok := c.entries[packageID]; ok {
			delete(c.entries, packageID)
			evicted++
		}
	}
	c.metrics.CacheEviction(evicted)
	return affected
}

// BumpVersion invalidates all entries lazily: existing entries keep their
// old version stamp and fail the check on next read. Used after algorithm
// or composition-schema changes.
func (c *ResultCache) BumpVersion() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
}

// ReplaceIndex swaps the product-to-packages index wholesale, typically from
// a fresh reverse lookup over all active package compositions.
func (c *ResultCache) ReplaceIndex(index map[int64][]int64) {
	rebuilt := make(map[int64]map[int64]struct{}, len(index))
	for productID, packageIDs := range index {
		set := make(map[int64]struct{}, len(packageIDs))
		for _, id := range packageIDs {
			set[id] = struct{}{}
		}
		rebuilt[productID] = set
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = rebuilt
}

// PackagesForProduct reports the indexed packages for a product, mainly for
// diagnostics and tests.
func (c *ResultCache) PackagesForProduct(productID int64) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.index[productID]
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Sweep evicts expired and version-stale entries and returns how many were
// removed. Run periodically from the worker.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	evicted := 0
	for id, entry := range c.entries {
		if entry.version != c.version || now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, id)
			evicted++
		}
	}
	c.metrics.CacheEviction(evicted)
	return evicted
}

// Len reports the number of stored entries, expired or not.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

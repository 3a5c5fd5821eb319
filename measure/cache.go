package measure

import (
	"math"

	"github.com/elliotchance/orderedmap/v3"

	"folio/flow"
)

// DefaultMaxEntries bounds the cache; on overflow the least recently used
// entry is evicted.
const DefaultMaxEntries = 10000

// maxDim clamps the dimension component of cache keys. Anything above keys
// identically - measuring at such widths produces the same result anyway.
const maxDim = 1_000_000

// Key identifies one cached measure: block id, clamped request dimensions and
// the content fingerprint of the block at the time of measurement.
type Key struct {
	ID          string
	W, H        int
	Fingerprint uint64
}

// Stats are observability counters of a Cache.
type Stats struct {
	Hits          int
	Misses        int
	Sets          int
	Evictions     int
	Invalidations int
	Clears        int
	Size          int
}

// Cache is a bounded content-keyed LRU measurement cache. It is not safe for
// concurrent use; one logical document session owns one instance with a
// single in-flight layout pass at a time.
type Cache struct {
	entries *orderedmap.OrderedMap[Key, Measure]
	max     int
	stats   Stats
}

// NewCache creates a cache bounded at DefaultMaxEntries.
func NewCache() *Cache {
	return NewCacheSize(DefaultMaxEntries)
}

// NewCacheSize creates a cache bounded at max entries.
func NewCacheSize(max int) *Cache {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Cache{
		entries: orderedmap.NewOrderedMap[Key, Measure](),
		max:     max,
	}
}

// Get returns the cached measure for (block, width, height). A nil block or a
// block without an id is a plain miss, never an error - callers treat
// malformed blocks and cache misses identically.
func (c *Cache) Get(b *flow.Block, width, height float64) (Measure, bool) {
	if b == nil || len(b.ID) == 0 {
		c.stats.Misses++
		return Measure{}, false
	}
	key := c.key(b, width, height)
	m, ok := c.entries.Get(key)
	if !ok {
		c.stats.Misses++
		return Measure{}, false
	}
	// promote to most recently used
	c.entries.Delete(key)
	c.entries.Set(key, m)
	c.stats.Hits++
	return m, true
}

// Set stores the measure for (block, width, height), evicting the least
// recently used entry on overflow. Malformed blocks are silently ignored.
func (c *Cache) Set(b *flow.Block, width, height float64, m Measure) {
	if b == nil || len(b.ID) == 0 {
		return
	}
	key := c.key(b, width, height)
	if _, ok := c.entries.Get(key); ok {
		c.entries.Delete(key)
	} else if c.entries.Len() >= c.max {
		if front := c.entries.Front(); front != nil {
			c.entries.Delete(front.Key)
			c.stats.Evictions++
		}
	}
	c.entries.Set(key, m)
	c.stats.Sets++
}

// Invalidate removes every entry whose key id is any of the given ids. Linear
// in cache size; invalidation is rare compared to lookups.
func (c *Cache) Invalidate(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	var victims []Key
	for el := c.entries.Front(); el != nil; el = el.Next() {
		if _, ok := drop[el.Key.ID]; ok {
			victims = append(victims, el.Key)
		}
	}
	for _, k := range victims {
		c.entries.Delete(k)
		c.stats.Invalidations++
	}
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.entries = orderedmap.NewOrderedMap[Key, Measure]()
	c.stats.Clears++
}

// GetStats returns a snapshot of the counters with current size filled in.
func (c *Cache) GetStats() Stats {
	s := c.stats
	s.Size = c.entries.Len()
	return s
}

// ResetStats zeroes the counters without touching entries.
func (c *Cache) ResetStats() {
	c.stats = Stats{}
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) key(b *flow.Block, width, height float64) Key {
	return Key{
		ID:          b.ID,
		W:           clampDim(width),
		H:           clampDim(height),
		Fingerprint: Fingerprint(b),
	}
}

// clampDim floors and clamps a dimension to [0, maxDim] so pathological
// inputs (NaN, Inf, negative, huge) cannot grow the key space.
func clampDim(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) || v > maxDim {
		return maxDim
	}
	return int(math.Floor(v))
}

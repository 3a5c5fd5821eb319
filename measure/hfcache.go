package measure

import "folio/flow"

// HeaderFooterCache keeps one measurement cache per header/footer variant so
// unchanged header/footer blocks are not re-measured across layout calls.
// Keys inside each per-variant cache are identical to body content keys.
type HeaderFooterCache struct {
	caches map[flow.Variant]*Cache
	max    int
}

// NewHeaderFooterCache creates an empty per-variant cache collection.
func NewHeaderFooterCache() *HeaderFooterCache {
	return &HeaderFooterCache{
		caches: make(map[flow.Variant]*Cache),
		max:    DefaultMaxEntries,
	}
}

// Variant returns the cache for one header/footer variant, creating it on
// first use.
func (h *HeaderFooterCache) Variant(v flow.Variant) *Cache {
	c, ok := h.caches[v]
	if !ok {
		c = NewCacheSize(h.max)
		h.caches[v] = c
	}
	return c
}

// Invalidate removes entries for the given block ids across every variant.
func (h *HeaderFooterCache) Invalidate(ids []string) {
	for _, c := range h.caches {
		c.Invalidate(ids)
	}
}

// Clear drops all entries of all variants.
func (h *HeaderFooterCache) Clear() {
	for _, c := range h.caches {
		c.Clear()
	}
}

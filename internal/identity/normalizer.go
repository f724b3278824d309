package identity

import "sync"

// Normalizer maps raw product links to their canonical form.
// It is safe for concurrent use.
type Normalizer struct {
	origin string
	cache  *fifoCache
}

// NewNormalizer creates a Normalizer for the given marketplace origin.
// A non-positive cacheSize falls back to DefaultCacheSize.
func NewNormalizer(origin string, cacheSize int) *Normalizer {
	if origin == "" {
		origin = DefaultMarketplaceURL
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Normalizer{origin: origin, cache: newFIFOCache(cacheSize)}
}

// Origin returns the marketplace origin used for canonical URLs.
func (n *Normalizer) Origin() string {
	return n.origin
}

// Normalize returns the canonical form of rawURL. It is idempotent:
// Normalize(Normalize(x)) == Normalize(x) for every input.
func (n *Normalizer) Normalize(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	key := truncate(rawURL, MaxURLLength)
	if cached, ok := n.cache.get(key); ok {
		return cached
	}

	normalized := n.normalize(key)
	n.cache.put(key, normalized)

	return normalized
}

// Identity returns the canonical URL together with the stable identifier it carries.
func (n *Normalizer) Identity(rawURL string) (string, string) {
	normalized := n.Normalize(rawURL)
	return normalized, ExtractStableID(normalized)
}

func (n *Normalizer) normalize(rawURL string) string {
	if id := ExtractStableID(rawURL); id != "" {
		return CanonicalURL(n.origin, id)
	}

	cleaned := cleanURL(n.origin, rawURL)
	// Coercing a relative link can reveal an identifier that only becomes visible with the origin prepended.
	if id := ExtractStableID(cleaned); id != "" {
		return CanonicalURL(n.origin, id)
	}

	return cleaned
}

// fifoCache is a bounded map that evicts the oldest inserted key first.
type fifoCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]string
	order    []string
	head     int
}

func newFIFOCache(capacity int) *fifoCache {
	return &fifoCache{
		capacity: capacity,
		items:    make(map[string]string, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (c *fifoCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	val, ok := c.items[key]
	return val, ok
}

func (c *fifoCache) put(key, val string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		c.items[key] = val
		return
	}

	if len(c.order) < c.capacity {
		c.order = append(c.order, key)
	} else {
		// order is a ring once full; head points at the oldest key.
		delete(c.items, c.order[c.head])
		c.order[c.head] = key
		c.head = (c.head + 1) % c.capacity
	}
	c.items[key] = val
}

func (c *fifoCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

package cache

import (
	"container/list"
	"sync"
)

type entry[V any] struct {
	key   string
	value V
}

// LRU is a thread-safe least-recently-used cache bounded by item count.
type LRU[V any] struct {
	mu       sync.Mutex
	maxItems int
	items    map[string]*list.Element
	order    *list.List

	hits      int64
	misses    int64
	evictions int64
}

// NewLRU returns a cache holding at most maxItems entries (0 = unlimited).
func NewLRU[V any](maxItems int) *LRU[V] {
	return &LRU[V]{
		maxItems: maxItems,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the value for key and marks it recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits++
		return elem.Value.(*entry[V]).value, true
	}
	c.misses++
	var zero V
	return zero, false
}

// Put adds or replaces key, evicting the least recently used entries when
// the cache is full.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*entry[V]).value = value
		return
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value})

	for c.maxItems > 0 && c.order.Len() > c.maxItems {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry[V]).key)
		c.evictions++
	}
}

// Delete removes key and reports whether it was present.
func (c *LRU[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(elem)
	delete(c.items, key)
	return true
}

func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

type Stats struct {
	Items     int     `json:"items"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := 0.0
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Items:     c.order.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}

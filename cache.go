package recschema

import (
	"container/list"
	"sync"
)

// MaxSchemaCacheSize bounds the number of compiled schemas kept by a Cache.
// Identical keys are coalesced, so the bound is on distinct compilations.
const MaxSchemaCacheSize = 1024

// CacheKey identifies one compilation: record type identity, the type
// arguments it was specialized with, the base-schema identity, and the
// effective unknown-key policy.
type CacheKey struct {
	Record  string // record descriptor key
	Args    string // joined type-argument keys, "" for non-generic
	Base    string // base-schema identity, "" for the default base
	Unknown UnknownPolicy
}

// Cache is a bounded, duplicate-eliminating memo of compiled schemas with
// least-recently-used eviction. Safe for concurrent readers and writers; it
// is the only state shared across independent compile requests.
type Cache struct {
	mu    sync.Mutex
	max   int
	ll    *list.List
	items map[CacheKey]*list.Element
}

type cacheEntry struct {
	key CacheKey
	s   *Schema
}

// NewCache builds a cache bounded to max entries; max <= 0 falls back to
// MaxSchemaCacheSize.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = MaxSchemaCacheSize
	}
	return &Cache{max: max, ll: list.New(), items: map[CacheKey]*list.Element{}}
}

// Get returns the cached schema for key, refreshing its recency.
func (c *Cache) Get(key CacheKey) (*Schema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).s, true
}

// Put stores the schema under key. A concurrent insert of the same key is
// coalesced: the first stored schema wins and is returned, so repeated
// compilations of one record yield one schema identity.
func (c *Cache) Put(key CacheKey, s *Schema) *Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*cacheEntry).s
	}
	el := c.ll.PushFront(&cacheEntry{key: key, s: s})
	c.items[key] = el
	if c.ll.Len() > c.max {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
	return s
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Package memo caches ranking results keyed by catalog version, policy and
// selection.
package memo

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/pkg/metrics"
)

// Cache stores ranked results. Returned slices are shared between callers
// and must be treated as read-only.
type Cache interface {
	Get(key string) ([]model.Simulation, bool)
	Put(key string, result []model.Simulation)
	Len() int
	Purge()
}

// Key builds a cache key from its parts.
func Key(version uint64, policy string, criteriaKey string) string {
	return strconv.FormatUint(version, 10) + "|" + policy + "|" + criteriaKey
}

// node is one entry in the insertion-ordered list.
type node struct {
	key        string
	result     []model.Simulation
	prev, next *node
}

func (n *node) reset() {
	n.key = ""
	n.result = nil
	n.prev = nil
	n.next = nil
}

// inMemoryCache evicts the oldest inserted entry once maxSize is reached.
// maxSize <= 0 disables caching: Put is a no-op and Get always misses.
type inMemoryCache struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryCache creates a bounded cache.
func NewInMemoryCache(opts ...Option) Cache {
	c := &inMemoryCache{
		maxSize: 1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[string]*node)
	c.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return c
}

// Get returns the cached result for key.
func (c *inMemoryCache) Get(key string) ([]model.Simulation, bool) {
	c.mu.Lock()
	n, ok := c.entries[key]
	var result []model.Simulation
	if ok {
		result = n.result
	}
	c.mu.Unlock()

	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return result, ok
}

// Put stores result under key, replacing an existing entry in place.
func (c *inMemoryCache) Put(key string, result []model.Simulation) {
	if c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, exists := c.entries[key]; exists {
		n.result = result
		return
	}
	for len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.key = key
	n.result = result
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
	c.entries[key] = n
	c.size.Add(1)
	metrics.UpdateCacheEntries(int(c.size.Load()))
}

// evictOldest drops the tail. Must be called with c.mu held.
func (c *inMemoryCache) evictOldest() {
	old := c.tail
	if old == nil {
		return
	}
	c.tail = old.prev
	if c.tail != nil {
		c.tail.next = nil
	} else {
		c.head = nil
	}
	delete(c.entries, old.key)
	old.reset()
	c.nodePool.Put(old)
	c.size.Add(-1)
	metrics.RecordCacheEviction()
}

// Len returns the number of cached results.
func (c *inMemoryCache) Len() int {
	return int(c.size.Load())
}

// Purge drops every entry.
func (c *inMemoryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n := c.head; n != nil; {
		next := n.next
		n.reset()
		c.nodePool.Put(n)
		n = next
	}
	c.entries = make(map[string]*node)
	c.head, c.tail = nil, nil
	c.size.Store(0)
	metrics.UpdateCacheEntries(0)
}

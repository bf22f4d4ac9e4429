package pabt

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// ExprLRUCache is a thread-safe LRU cache of compiled expr-lang programs,
// keyed by source expression.
type ExprLRUCache struct {
	mu        sync.Mutex
	cache     map[string]*list.Element
	lru       *list.List
	maxSize   int
	hitCount  int64
	missCount int64
}

type cacheEntry struct {
	expression string
	program    *vm.Program
}

// NewExprLRUCache creates a cache holding at most maxSize programs.
func NewExprLRUCache(maxSize int) *ExprLRUCache {
	if maxSize < 1 {
		maxSize = DefaultExprCacheSize
	}
	return &ExprLRUCache{
		cache:   make(map[string]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns the program compiled from expression, marking it recently
// used.
func (c *ExprLRUCache) Get(expression string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.cache[expression]
	if !ok {
		c.missCount++
		return nil, false
	}
	c.hitCount++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).program, true
}

// Put stores program, evicting the least recently used entries beyond
// capacity.
func (c *ExprLRUCache) Put(expression string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[expression]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).program = program
		return
	}
	c.cache[expression] = c.lru.PushFront(&cacheEntry{expression: expression, program: program})
	c.evict()
}

// Resize changes the capacity, evicting immediately if needed.
func (c *ExprLRUCache) Resize(maxSize int) {
	if maxSize < 1 {
		maxSize = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = maxSize
	c.evict()
}

func (c *ExprLRUCache) evict() {
	for c.lru.Len() > c.maxSize {
		elem := c.lru.Back()
		delete(c.cache, elem.Value.(*cacheEntry).expression)
		c.lru.Remove(elem)
	}
}

// Clear removes every entry.
func (c *ExprLRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the number of cached programs.
func (c *ExprLRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns the cache size, hit and miss counts, and hit ratio.
func (c *ExprLRUCache) Stats() (size int, hits, misses int64, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if total := c.hitCount + c.missCount; total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}
	return c.lru.Len(), c.hitCount, c.missCount, ratio
}

func (c *ExprLRUCache) String() string {
	size, hits, misses, ratio := c.Stats()
	return fmt.Sprintf("ExprLRUCache{size=%d, hits=%d, misses=%d, hit_ratio=%.2f%%}",
		size, hits, misses, ratio*100)
}

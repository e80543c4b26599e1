package service

import (
	"sync"
	"time"
)

// ScoreCache memoizes pure score terms. Implementations are scoped to one
// generation call or one worker and are never shared between requests.
type ScoreCache interface {
	Get(key string) (float64, bool)
	Set(key string, value float64)
	Clear()
}

// ScoreCacheFactory builds a fresh cache for each call or shard.
type ScoreCacheFactory func() ScoreCache

type memoEntry struct {
	value  float64
	stored time.Time
}

// memoCache is a size and TTL bounded map. When full, it is flushed wholesale;
// entries are cheap to recompute.
type memoCache struct {
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	mu      sync.RWMutex
	items   map[string]memoEntry
}

func newMemoCache(maxSize int, ttl time.Duration) *memoCache {
	if maxSize <= 0 {
		maxSize = 50000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &memoCache{
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		items:   make(map[string]memoEntry),
	}
}

// NewMemoCacheFactory returns a factory of bounded in-memory caches.
func NewMemoCacheFactory(maxSize int, ttl time.Duration) ScoreCacheFactory {
	return func() ScoreCache { return newMemoCache(maxSize, ttl) }
}

func (c *memoCache) Get(key string) (float64, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if c.now().Sub(entry.stored) > c.ttl {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return 0, false
	}
	return entry.value, true
}

func (c *memoCache) Set(key string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.items = make(map[string]memoEntry, c.maxSize)
	}
	c.items[key] = memoEntry{value: value, stored: c.now()}
}

func (c *memoCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]memoEntry)
	c.mu.Unlock()
}

func (c *memoCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

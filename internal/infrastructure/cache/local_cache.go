// Package cache provides the normalized-result caches: an in-memory LRU
// for a single process and a Redis cache shared between replicas
package cache

import (
	"sync"
	"time"
)

const defaultMaxSize = 1000

// LocalCache is a thread-safe in-memory cache with LRU eviction and a
// per-entry TTL. A zero TTL keeps entries until they are evicted.
type LocalCache[V any] struct {
	mu      sync.Mutex
	items   map[string]*entry[V]
	head    *entry[V]
	tail    *entry[V]
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *entry[V]
	next      *entry[V]
}

// NewLocalCache creates a new local cache with specified maximum size
func NewLocalCache[V any](maxSize int, ttl time.Duration) *LocalCache[V] {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}

	lc := &LocalCache[V]{
		items:   make(map[string]*entry[V]),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
	lc.reset()
	return lc
}

// Get retrieves an item and marks it as recently used
func (lc *LocalCache[V]) Get(key string) (V, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	var zero V
	item, exists := lc.items[key]
	if !exists {
		lc.misses++
		return zero, false
	}

	if lc.expired(item) {
		lc.remove(item)
		lc.misses++
		return zero, false
	}

	lc.unlink(item)
	lc.pushFront(item)
	lc.hits++
	return item.value, true
}

// Set stores an item, evicting the least recently used one when full
func (lc *LocalCache[V]) Set(key string, value V) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	var expiresAt time.Time
	if lc.ttl > 0 {
		expiresAt = lc.now().Add(lc.ttl)
	}

	if item, exists := lc.items[key]; exists {
		item.value = value
		item.expiresAt = expiresAt
		lc.unlink(item)
		lc.pushFront(item)
		return
	}

	item := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	lc.items[key] = item
	lc.pushFront(item)

	for len(lc.items) > lc.maxSize {
		lc.remove(lc.tail.prev)
		lc.evictions++
	}
}

// Delete removes an item from the cache
func (lc *LocalCache[V]) Delete(key string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if item, exists := lc.items[key]; exists {
		lc.remove(item)
	}
}

// Size returns the current number of items in the cache
func (lc *LocalCache[V]) Size() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return len(lc.items)
}

// Clear removes all items from the cache
func (lc *LocalCache[V]) Clear() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.reset()
}

// CleanupExpired removes all expired items from the cache
func (lc *LocalCache[V]) CleanupExpired() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	removed := 0
	for _, item := range lc.items {
		if lc.expired(item) {
			lc.remove(item)
			removed++
		}
	}
	return removed
}

// GetStats returns cache statistics
func (lc *LocalCache[V]) GetStats() LocalCacheStats {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	return LocalCacheStats{
		Size:             len(lc.items),
		MaxSize:          lc.maxSize,
		Hits:             lc.hits,
		Misses:           lc.misses,
		Evictions:        lc.evictions,
		UtilizationRatio: float64(len(lc.items)) / float64(lc.maxSize),
	}
}

// AutoCleanup starts a goroutine that periodically cleans up expired
// items until the returned channel is closed
func (lc *LocalCache[V]) AutoCleanup(interval time.Duration) chan struct{} {
	stopChan := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				lc.CleanupExpired()
			case <-stopChan:
				return
			}
		}
	}()

	return stopChan
}

// LocalCacheStats represents local cache statistics
type LocalCacheStats struct {
	Size             int     `json:"size"`
	MaxSize          int     `json:"max_size"`
	Hits             uint64  `json:"hits"`
	Misses           uint64  `json:"misses"`
	Evictions        uint64  `json:"evictions"`
	UtilizationRatio float64 `json:"utilization_ratio"`
}

// Internal helpers, callers hold lc.mu

func (lc *LocalCache[V]) reset() {
	lc.items = make(map[string]*entry[V])
	lc.head = &entry[V]{}
	lc.tail = &entry[V]{}
	lc.head.next = lc.tail
	lc.tail.prev = lc.head
}

func (lc *LocalCache[V]) expired(item *entry[V]) bool {
	return !item.expiresAt.IsZero() && lc.now().After(item.expiresAt)
}

func (lc *LocalCache[V]) remove(item *entry[V]) {
	delete(lc.items, item.key)
	lc.unlink(item)
}

func (lc *LocalCache[V]) pushFront(item *entry[V]) {
	item.prev = lc.head
	item.next = lc.head.next
	lc.head.next.prev = item
	lc.head.next = item
}

func (lc *LocalCache[V]) unlink(item *entry[V]) {
	item.prev.next = item.next
	item.next.prev = item.prev
	item.prev, item.next = nil, nil
}

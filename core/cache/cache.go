// Package cache provides LRU caching for compiled charts and their layouts.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/FocuswithJustin/cleanchart/core/chart"
	"github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/layout"
)

// Cache is a generic LRU cache.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V)
	Remove(key K)
	Clear()
	Len() int
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// HitRatio returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{MaxSize: 128}
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	config    Config
	now       func() time.Time
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config) Cache[K, V] {
	return newLRU[K, V](config)
}

func newLRU[K comparable, V any](config Config) *lruCache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	return &lruCache[K, V]{
		config:    config,
		now:       time.Now,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	e := ent.Value.(*entry[K, V])
	if c.expired(e) {
		c.evict(ent)
		c.stats.Misses++
		return zero, false
	}
	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return e.value, true
}

func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = c.deadline()
		return
	}

	e := &entry[K, V]{key: key, value: value, expiresAt: c.deadline()}
	c.entries[key] = c.evictList.PushFront(e)

	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		c.evict(c.evictList.Back())
	}
}

func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.unlink(ent)
	}
}

func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *lruCache[K, V]) deadline() time.Time {
	if c.config.TTL <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.config.TTL)
}

func (c *lruCache[K, V]) expired(e *entry[K, V]) bool {
	return c.config.TTL > 0 && c.now().After(e.expiresAt)
}

// evict drops an entry the cache chose to remove.
func (c *lruCache[K, V]) evict(ent *list.Element) {
	if ent == nil {
		return
	}
	c.unlink(ent)
	c.stats.Evictions++
}

func (c *lruCache[K, V]) unlink(ent *list.Element) *entry[K, V] {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)
	return e
}

// Compiled is the cached result of compiling one source document.
type Compiled struct {
	Chart       *chart.Chart
	Diagnostics []errors.Diagnostic
}

// ChartCache caches compiled charts by source digest. Only successful
// compilations are stored; a cached chart must be treated as read-only.
type ChartCache struct {
	cache Cache[string, *Compiled]
}

// NewChartCache creates a compiled-chart cache.
func NewChartCache(config Config) *ChartCache {
	return &ChartCache{cache: NewLRUCache[string, *Compiled](config)}
}

// NewDefaultChartCache creates a compiled-chart cache with default configuration.
func NewDefaultChartCache() *ChartCache {
	return NewChartCache(DefaultConfig())
}

func (c *ChartCache) Get(sourceDigest string) (*Compiled, bool) {
	return c.cache.Get(sourceDigest)
}

func (c *ChartCache) Put(sourceDigest string, compiled *Compiled) {
	c.cache.Put(sourceDigest, compiled)
}

func (c *ChartCache) Len() int     { return c.cache.Len() }
func (c *ChartCache) Stats() Stats { return c.cache.Stats() }

// GeometryKey identifies one layout of one source.
type GeometryKey struct {
	Source string
	Layout string
}

// GeometryCache caches laid-out geometry. Geometry is larger than a chart,
// so the default keeps fewer entries.
type GeometryCache struct {
	cache Cache[GeometryKey, *layout.Geometry]
}

// NewGeometryCache creates a geometry cache.
func NewGeometryCache(config Config) *GeometryCache {
	return &GeometryCache{cache: NewLRUCache[GeometryKey, *layout.Geometry](config)}
}

// NewDefaultGeometryCache creates a geometry cache with default configuration.
func NewDefaultGeometryCache() *GeometryCache {
	config := DefaultConfig()
	config.MaxSize = 32
	return NewGeometryCache(config)
}

func (c *GeometryCache) Get(key GeometryKey) (*layout.Geometry, bool) {
	return c.cache.Get(key)
}

func (c *GeometryCache) Put(key GeometryKey, geo *layout.Geometry) {
	c.cache.Put(key, geo)
}

func (c *GeometryCache) Len() int     { return c.cache.Len() }
func (c *GeometryCache) Stats() Stats { return c.cache.Stats() }

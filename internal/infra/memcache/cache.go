// Package memcache implements the process-local video cache: a sharded,
// size-bounded LRU whose entries expire after a fixed TTL.
package memcache

import (
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"devtube-server/internal/domain"
	"devtube-server/internal/metrics"
)

// Config holds cache sizing.
type Config struct {
	Capacity int           // total number of entries across all shards
	TTL      time.Duration // maximum entry age
	Shards   int           // number of independently locked shards
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, used by tests to control entry age.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

type entry struct {
	video    *domain.Video
	storedAt time.Time
}

type shard struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, entry]
	capacity int
}

// Cache implements domain.VideoCache.
// Keys are spread over shards by hash; each shard is an LRU with its own lock,
// so lookups of unrelated keys rarely contend.
type Cache struct {
	shards []*shard
	ttl    time.Duration
	now    func() time.Time
}

// New creates a cache. Shard capacities add up to cfg.Capacity exactly.
// With one shard eviction is exact LRU over the whole cache; with more, each
// shard evicts its own least recently used entry.
func New(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.Capacity <= 0 {
		return nil, errors.New("memcache: capacity must be positive")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("memcache: ttl must be positive")
	}

	n := cfg.Shards
	if n <= 0 {
		n = 1
	}
	if n > cfg.Capacity {
		n = cfg.Capacity
	}

	c := &Cache{
		shards: make([]*shard, n),
		ttl:    cfg.TTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	base, extra := cfg.Capacity/n, cfg.Capacity%n
	for i := range c.shards {
		size := base
		if i < extra {
			size++
		}
		lru, err := simplelru.NewLRU[string, entry](size, nil)
		if err != nil {
			return nil, err
		}
		c.shards[i] = &shard{lru: lru, capacity: size}
	}

	return c, nil
}

// Get returns a cached video. Expired entries are dropped and reported as
// absent before the entry is marked as recently used.
func (c *Cache) Get(key string) (*domain.Video, bool) {
	s := c.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Peek(key)
	if !ok {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss).Inc()
		return nil, false
	}
	if c.expired(e) {
		s.lru.Remove(key)
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusExpired).Inc()
		return nil, false
	}

	s.lru.Get(key) // touch
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit).Inc()

	return e.video, true
}

// Set stores a video and resets its age. When the shard is full, expired
// entries are purged first; only then is the least recently used entry evicted.
func (c *Cache) Set(key string, video *domain.Video) {
	s := c.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lru.Len() >= s.capacity && !s.lru.Contains(key) {
		c.purgeExpired(s)
	}

	if evicted := s.lru.Add(key, entry{video: video, storedAt: c.now()}); evicted {
		metrics.CacheEvictionsTotal.Inc()
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusStored).Inc()
}

// Len returns the number of entries held, including expired ones not yet purged.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += s.lru.Len()
		s.mu.Unlock()
	}

	return n
}

// purgeExpired removes every expired entry of a shard. Caller holds s.mu.
func (c *Cache) purgeExpired(s *shard) {
	for _, k := range s.lru.Keys() {
		if e, ok := s.lru.Peek(k); ok && c.expired(e) {
			s.lru.Remove(k)
		}
	}
}

func (c *Cache) expired(e entry) bool {
	return c.now().Sub(e.storedAt) >= c.ttl
}

func (c *Cache) shardFor(key string) *shard {
	if len(c.shards) == 1 {
		return c.shards[0]
	}

	return c.shards[xxhash.Sum64String(key)%uint64(len(c.shards))]
}

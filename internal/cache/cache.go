// Package cache implements the process-wide embedding cache: a
// deduplicating, capacity-bounded, strictly-LRU store keyed by the
// content hash of the text an embedding was computed for. Grounded on the
// container/list-based LRU idiom used throughout the Go ecosystem rather
// than on any single teacher file — codenerd has no equivalent cache, so
// this package is the stdlib-only exception documented in DESIGN.md.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
)

// DefaultCapacity is the default number of entries the cache holds
// before eviction kicks in (spec §4.3).
const DefaultCapacity = 1000

// evictionSlackRatio is how far over capacity the cache is allowed to
// grow before a set() triggers eviction, expressed as a fraction of
// capacity (spec §4.3's "~10% above capacity").
const evictionSlackRatio = 0.10

// entry is one cached embedding plus its LRU bookkeeping.
type entry struct {
	key          string
	vector       []float32
	hits         int
	createdAt    time.Time
	lastAccessed time.Time
}

// Stats is a snapshot of the cache's lifetime counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	HitRatio  float64
}

// Cache is a process-wide, strictly-LRU embedding cache. The zero value
// is not usable; construct with New.
type Cache struct {
	mu       sync.Mutex
	capacity int
	slack    int
	ll       *list.List // front = most recently used
	items    map[string]*list.Element

	hits      int64
	misses    int64
	evictions int64
}

// New constructs a Cache with the given capacity. A capacity <= 0 falls
// back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	slack := int(float64(capacity) * evictionSlackRatio)
	if slack < 1 {
		slack = 1
	}
	return &Cache{
		capacity: capacity,
		slack:    slack,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Key hashes text into the cache key spec §4.3 specifies: the SHA-256
// content hash of the input text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get looks up key, promoting the entry to most-recently-used on a hit.
// The returned slice is a defensive copy; callers may mutate it freely.
func (c *Cache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	e.hits++
	e.lastAccessed = time.Now()
	c.ll.MoveToFront(el)
	c.hits++

	out := make([]float32, len(e.vector))
	copy(out, e.vector)
	return out, true
}

// Set upserts key with vec, evicting the least-recently-used entries
// (ties broken by lowest hits) down to capacity once the cache holds more
// than capacity+slack entries.
func (c *Cache) Set(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]float32, len(vec))
	copy(stored, vec)
	now := time.Now()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.vector = stored
		e.lastAccessed = now
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{
		key:          key,
		vector:       stored,
		createdAt:    now,
		lastAccessed: now,
	})
	c.items[key] = el

	if c.ll.Len() > c.capacity+c.slack {
		c.evictDownTo(c.capacity)
	}
}

// evictDownTo removes least-recently-used entries until the cache holds
// at most target entries. Because container/list keeps strict recency
// order via MoveToFront, ties on last_accessed don't arise in practice;
// the hits-tiebreak only matters when two entries share a last_accessed
// time exactly, which we resolve by scanning the oldest 8 entries for the
// lowest-hit one among those tied with the tail.
func (c *Cache) evictDownTo(target int) {
	for c.ll.Len() > target {
		victim := c.ll.Back()
		// Scan a small tail window for an entry tied with the strict LRU
		// tail on last_accessed but with fewer hits, implementing the
		// hits-tiebreak without maintaining a second index.
		const tailWindow = 8
		oldest := victim.Value.(*entry).lastAccessed
		cursor := victim
		for i := 0; i < tailWindow && cursor != nil; i++ {
			ce := cursor.Value.(*entry)
			if ce.lastAccessed.Equal(oldest) && ce.hits < victim.Value.(*entry).hits {
				victim = cursor
			}
			cursor = cursor.Prev()
		}

		e := victim.Value.(*entry)
		delete(c.items, e.key)
		c.ll.Remove(victim)
		c.evictions++
	}
	logging.Get(logging.CategoryCache).Debugw("evicted cache entries", "remaining", c.ll.Len())
}

// Clear empties the cache, used when the embedding pipeline's model
// configuration changes (spec §4.4: "current pipeline handle is
// discarded and the embedding cache is cleared").
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

// Stats returns a snapshot of the cache's lifetime counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var ratio float64
	if total > 0 {
		ratio = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.ll.Len(),
		HitRatio:  ratio,
	}
}

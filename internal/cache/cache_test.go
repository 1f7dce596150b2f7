package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(n int, fill float32) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestKey(t *testing.T) {
	t.Run("same text hashes identically", func(t *testing.T) {
		assert.Equal(t, Key("hello"), Key("hello"))
	})

	t.Run("different text hashes differently", func(t *testing.T) {
		assert.NotEqual(t, Key("hello"), Key("world"))
	})

	t.Run("produces a 64-char hex digest", func(t *testing.T) {
		assert.Len(t, Key("anything"), 64)
	})
}

func TestNewDefaultsCapacity(t *testing.T) {
	c := New(0)
	assert.Equal(t, DefaultCapacity, c.capacity)

	c2 := New(-5)
	assert.Equal(t, DefaultCapacity, c2.capacity)

	c3 := New(50)
	assert.Equal(t, 50, c3.capacity)
}

func TestCacheGetSet(t *testing.T) {
	c := New(10)

	t.Run("miss on empty cache", func(t *testing.T) {
		_, ok := c.Get("nope")
		assert.False(t, ok)
	})

	t.Run("set then get hits with matching vector", func(t *testing.T) {
		c.Set("k1", vec(3, 1.5))
		got, ok := c.Get("k1")
		require.True(t, ok)
		assert.Equal(t, []float32{1.5, 1.5, 1.5}, got)
	})

	t.Run("returned slice is a defensive copy", func(t *testing.T) {
		c.Set("k2", vec(2, 9))
		got, ok := c.Get("k2")
		require.True(t, ok)
		got[0] = 0
		got2, _ := c.Get("k2")
		assert.Equal(t, float32(9), got2[0])
	})

	t.Run("set on existing key overwrites value", func(t *testing.T) {
		c.Set("k3", vec(1, 1))
		c.Set("k3", vec(1, 2))
		got, ok := c.Get("k3")
		require.True(t, ok)
		assert.Equal(t, []float32{2}, got)
	})
}

func TestCacheStatsHitRatio(t *testing.T) {
	c := New(10)
	c.Set("a", vec(1, 1))

	for i := 0; i < 8; i++ {
		c.Get("a")
	}
	for i := 0; i < 2; i++ {
		c.Get("missing")
	}

	stats := c.Stats()
	assert.Equal(t, int64(8), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.InDelta(t, 0.8, stats.HitRatio, 1e-9)
}

func TestCacheEvictionBound(t *testing.T) {
	capacity := 20
	c := New(capacity)

	for i := 0; i < capacity*3; i++ {
		c.Set(fmt.Sprintf("key-%d", i), vec(1, float32(i)))
	}

	stats := c.Stats()
	assert.LessOrEqual(t, stats.Size, capacity+c.slack)
	assert.Greater(t, stats.Evictions, int64(0))
}

func TestCacheEvictionPrefersLeastRecentlyUsed(t *testing.T) {
	c := New(4)
	c.Set("a", vec(1, 1))
	c.Set("b", vec(1, 2))
	c.Set("c", vec(1, 3))
	c.Set("d", vec(1, 4))

	// Touch "a" so it is no longer the least recently used.
	c.Get("a")

	// Pushing capacity+slack further over forces eviction; "b" (never
	// re-touched) should be the first candidate evicted, not "a".
	for i := 0; i < 2; i++ {
		c.Set(fmt.Sprintf("filler-%d", i), vec(1, 0))
	}

	_, bStillPresent := c.Get("b")
	assert.False(t, bStillPresent, "least recently used entry should be evicted first")
	_, aStillPresent := c.Get("a")
	assert.True(t, aStillPresent, "recently touched entry should survive eviction")
}

func TestCacheClear(t *testing.T) {
	c := New(10)
	c.Set("a", vec(1, 1))
	c.Set("b", vec(1, 2))

	c.Clear()

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheHighRepeatWorkloadHitRatio(t *testing.T) {
	c := New(100)
	keys := make([]string, 20)
	for i := range keys {
		keys[i] = fmt.Sprintf("hot-%d", i)
		c.Set(keys[i], vec(4, float32(i)))
	}

	// 80% of lookups repeat a small hot set already in the cache; the
	// remainder are cold misses. Spec requires >= 0.8 hit ratio under an
	// 80%-repeat workload and capacity well above the hot set.
	for i := 0; i < 80; i++ {
		c.Get(keys[i%len(keys)])
	}
	for i := 0; i < 20; i++ {
		c.Get(fmt.Sprintf("cold-%d", i))
	}

	stats := c.Stats()
	assert.GreaterOrEqual(t, stats.HitRatio, 0.8)
}

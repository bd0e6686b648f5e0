package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string](3)

	c.Put("key1", "value1")
	val, ok := c.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", val)

	val, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, val)

	c.Put("key1", "updated")
	val, _ = c.Get("key1")
	assert.Equal(t, "updated", val)
	assert.Equal(t, 1, c.Len())

	assert.True(t, c.Delete("key1"))
	assert.False(t, c.Delete("key1"))
	assert.Equal(t, 0, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	_, _ = c.Get("a")
	c.Put("d", 4)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, key)
	}

	stats := c.Stats()
	assert.Equal(t, 3, stats.Items)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(4), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.8, stats.HitRate, 1e-9)
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](50)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("%d-%d", w, i)
				c.Put(key, i)
				c.Get(key)
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

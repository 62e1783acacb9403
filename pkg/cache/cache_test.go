package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetMiss(t *testing.T) {
	c := New[string, int](time.Minute, 10)

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestCacheSetGet(t *testing.T) {
	c := New[string, int](time.Minute, 10)
	c.Set("a", 42)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCacheExpiry(t *testing.T) {
	c := New[string, int](time.Minute, 10)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("a", 1)

	current = current.Add(2 * time.Minute)
	_, ok := c.Get("a")
	assert.False(t, ok, "entry should expire after TTL")
}

func TestCacheEvictsLRUWhenFull(t *testing.T) {
	c := New[string, int](time.Minute, 2)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("a", 1)
	current = current.Add(time.Second)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the LRU entry
	current = current.Add(time.Second)
	c.Get("a")

	current = current.Add(time.Second)
	c.Set("c", 3)

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")

	assert.True(t, okA)
	assert.False(t, okB, "least recently used entry should be evicted")
	assert.True(t, okC)
	assert.Equal(t, 2, c.Len())
}

func TestCacheStructKeys(t *testing.T) {
	type key struct {
		Ticker string
		Price  float64
	}

	c := New[key, float64](time.Minute, 10)
	c.Set(key{Ticker: "AAPL", Price: 190.5}, 87.25)

	v, ok := c.Get(key{Ticker: "AAPL", Price: 190.5})
	assert.True(t, ok)
	assert.Equal(t, 87.25, v)

	// Same ticker, different content: distinct key
	_, ok = c.Get(key{Ticker: "AAPL", Price: 191.0})
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := New[string, int](time.Minute, 10)
	c.Set("a", 1)
	c.Clear()

	assert.Equal(t, 0, c.Len())
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("summary:ls_1", 42)

	v, ok := c.Get("summary:ls_1")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Get("summary:ls_2")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.SetWithTTL("k", "v", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheDelete(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("k", "v")
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheInvalidatePrefix(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("summary:ls_1", 1)
	c.Set("summary:ls_2", 2)
	c.Set("other:ls_3", 3)

	c.Invalidate("summary:")

	assert.Equal(t, 1, c.Size())
	_, ok := c.Get("other:ls_3")
	assert.True(t, ok)
}

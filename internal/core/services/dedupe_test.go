package services

import (
	"fmt"
	"testing"

	"livecast/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestDedupeCachePutGet(t *testing.T) {
	cache := newDedupeCache(4)

	_, ok := cache.get("tok-1")
	assert.False(t, ok)

	cache.put("tok-1", 7)
	seq, ok := cache.get("tok-1")
	assert.True(t, ok)
	assert.Equal(t, domain.CommentID(7), seq)

	// A token maps to its first sequence forever.
	cache.put("tok-1", 99)
	seq, _ = cache.get("tok-1")
	assert.Equal(t, domain.CommentID(7), seq)
}

func TestDedupeCacheEvictsOldest(t *testing.T) {
	cache := newDedupeCache(3)

	for i := 1; i <= 3; i++ {
		cache.put(fmt.Sprintf("tok-%d", i), domain.CommentID(i))
	}

	// Fourth insert pushes out the oldest token.
	cache.put("tok-4", 4)

	_, ok := cache.get("tok-1")
	assert.False(t, ok)

	for i := 2; i <= 4; i++ {
		_, ok := cache.get(fmt.Sprintf("tok-%d", i))
		assert.True(t, ok, "tok-%d should survive", i)
	}
}

package services

import (
	"sync"

	"livecast/internal/core/domain"
)

// dedupeCache maps recent client correlation tokens to the sequence
// number they produced. Bounded FIFO: once capacity is reached the
// oldest token is evicted, so dedupe is best-effort over a recent
// window rather than forever.
type dedupeCache struct {
	capacity int
	tokens   map[string]domain.CommentID
	order    []string
	mu       sync.Mutex
}

func newDedupeCache(capacity int) *dedupeCache {
	return &dedupeCache{
		capacity: capacity,
		tokens:   make(map[string]domain.CommentID, capacity),
	}
}

func (d *dedupeCache) get(token string) (domain.CommentID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	seq, ok := d.tokens[token]
	return seq, ok
}

func (d *dedupeCache) put(token string, seq domain.CommentID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.tokens[token]; exists {
		return
	}

	if len(d.order) >= d.capacity {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.tokens, oldest)
	}

	d.tokens[token] = seq
	d.order = append(d.order, token)
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
)

type MemoryLivestreamRepository struct {
	streams map[domain.LivestreamID]*domain.Livestream
	mu      sync.RWMutex
}

func NewMemoryLivestreamRepository() ports.LivestreamRepository {
	return &MemoryLivestreamRepository{
		streams: make(map[domain.LivestreamID]*domain.Livestream),
	}
}

func (r *MemoryLivestreamRepository) Create(ctx context.Context, stream *domain.Livestream) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.streams[stream.ID]; exists {
		return fmt.Errorf("livestream already exists: %s", stream.ID)
	}

	cp := *stream
	r.streams[stream.ID] = &cp
	return nil
}

func (r *MemoryLivestreamRepository) GetByID(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stream, exists := r.streams[id]
	if !exists {
		return nil, domain.ErrLivestreamNotFound
	}

	cp := *stream
	return &cp, nil
}

func (r *MemoryLivestreamRepository) Update(ctx context.Context, stream *domain.Livestream) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.streams[stream.ID]; !exists {
		return domain.ErrLivestreamNotFound
	}

	cp := *stream
	r.streams[stream.ID] = &cp
	return nil
}

func (r *MemoryLivestreamRepository) ListByStatus(ctx context.Context, status domain.LivestreamStatus) ([]*domain.Livestream, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Livestream
	for _, stream := range r.streams {
		if stream.Status == status {
			cp := *stream
			result = append(result, &cp)
		}
	}

	return result, nil
}

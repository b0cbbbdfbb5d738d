package memory

import (
	"sync"
	"time"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
)

// MemoryMembershipRegistry keeps per-livestream rooms as nested maps.
// Room maps are created on first join and dropped when the last member
// leaves, so an ended livestream leaves nothing behind.
type MemoryMembershipRegistry struct {
	rooms map[domain.LivestreamID]map[domain.Identity]*domain.Member
	mu    sync.RWMutex
}

func NewMemoryMembershipRegistry() ports.MembershipRegistry {
	return &MemoryMembershipRegistry{
		rooms: make(map[domain.LivestreamID]map[domain.Identity]*domain.Member),
	}
}

func (r *MemoryMembershipRegistry) Add(livestreamID domain.LivestreamID, identity domain.Identity, conn domain.Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[livestreamID]
	if !exists {
		room = make(map[domain.Identity]*domain.Member)
		r.rooms[livestreamID] = room
	}

	existing, alreadyPresent := room[identity]
	if alreadyPresent {
		// Reconnect: keep the original joinedAt, swap the handle.
		existing.Connection = conn
		return true
	}

	room[identity] = &domain.Member{
		LivestreamID: livestreamID,
		Identity:     identity,
		Connection:   conn,
		JoinedAt:     time.Now(),
	}
	return false
}

func (r *MemoryMembershipRegistry) Remove(livestreamID domain.LivestreamID, identity domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[livestreamID]
	if !exists {
		return
	}

	delete(room, identity)
	if len(room) == 0 {
		delete(r.rooms, livestreamID)
	}
}

func (r *MemoryMembershipRegistry) Get(livestreamID domain.LivestreamID, identity domain.Identity) (*domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[livestreamID]
	if !exists {
		return nil, false
	}

	member, ok := room[identity]
	return member, ok
}

func (r *MemoryMembershipRegistry) ListConnections(livestreamID domain.LivestreamID) []domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[livestreamID]
	if !exists {
		return nil
	}

	conns := make([]domain.Connection, 0, len(room))
	for _, member := range room {
		conns = append(conns, member.Connection)
	}
	return conns
}

func (r *MemoryMembershipRegistry) Count(livestreamID domain.LivestreamID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[livestreamID])
}

func (r *MemoryMembershipRegistry) Clear(livestreamID domain.LivestreamID) []*domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[livestreamID]
	if !exists {
		return nil
	}

	evicted := make([]*domain.Member, 0, len(room))
	for _, member := range room {
		evicted = append(evicted, member)
	}
	delete(r.rooms, livestreamID)
	return evicted
}

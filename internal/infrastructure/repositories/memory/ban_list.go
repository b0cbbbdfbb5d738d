package memory

import (
	"sync"
	"time"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
)

// MemoryBanList is a per-livestream set of banned identities. IsBanned
// is a constant-time map lookup since it gates every join and send.
type MemoryBanList struct {
	bans map[domain.LivestreamID]map[domain.Identity]*domain.BanEntry
	mu   sync.RWMutex
}

func NewMemoryBanList() ports.BanList {
	return &MemoryBanList{
		bans: make(map[domain.LivestreamID]map[domain.Identity]*domain.BanEntry),
	}
}

func (b *MemoryBanList) IsBanned(livestreamID domain.LivestreamID, identity domain.Identity) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries, exists := b.bans[livestreamID]
	if !exists {
		return false
	}
	_, banned := entries[identity]
	return banned
}

func (b *MemoryBanList) Ban(livestreamID domain.LivestreamID, identity domain.Identity, moderator domain.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, exists := b.bans[livestreamID]
	if !exists {
		entries = make(map[domain.Identity]*domain.BanEntry)
		b.bans[livestreamID] = entries
	}

	// Re-banning keeps the original entry.
	if _, banned := entries[identity]; banned {
		return
	}

	entries[identity] = &domain.BanEntry{
		LivestreamID: livestreamID,
		Identity:     identity,
		BannedBy:     moderator,
		BannedAt:     time.Now(),
	}
}

func (b *MemoryBanList) Unban(livestreamID domain.LivestreamID, identity domain.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, exists := b.bans[livestreamID]
	if !exists {
		return
	}

	delete(entries, identity)
	if len(entries) == 0 {
		delete(b.bans, livestreamID)
	}
}

func (b *MemoryBanList) List(livestreamID domain.LivestreamID) []*domain.BanEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries, exists := b.bans[livestreamID]
	if !exists {
		return nil
	}

	result := make([]*domain.BanEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry)
	}
	return result
}

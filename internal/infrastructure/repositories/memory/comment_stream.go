package memory

import (
	"sort"
	"sync"
	"time"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
)

// commentLog holds one livestream's comments keyed by sequence number.
// nextSeq only advances on successful append, so sequences stay
// gap-free: a rejected parent reference consumes nothing.
type commentLog struct {
	comments map[domain.CommentID]*domain.Comment
	nextSeq  domain.CommentID
}

type MemoryCommentStream struct {
	logs map[domain.LivestreamID]*commentLog
	mu   sync.RWMutex
}

func NewMemoryCommentStream() ports.CommentStream {
	return &MemoryCommentStream{
		logs: make(map[domain.LivestreamID]*commentLog),
	}
}

func (s *MemoryCommentStream) Append(livestreamID domain.LivestreamID, author domain.Identity, content string, parentID *domain.CommentID) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, exists := s.logs[livestreamID]
	if !exists {
		log = &commentLog{
			comments: make(map[domain.CommentID]*domain.Comment),
			nextSeq:  1,
		}
		s.logs[livestreamID] = log
	}

	if parentID != nil {
		parent, ok := log.comments[*parentID]
		if !ok || parent.IsDeleted() {
			return nil, domain.ErrCommentNotFound
		}
	}

	comment := &domain.Comment{
		ID:           log.nextSeq,
		LivestreamID: livestreamID,
		Author:       author,
		Content:      content,
		ParentID:     parentID,
		CreatedAt:    time.Now(),
	}
	log.comments[comment.ID] = comment
	log.nextSeq++

	cp := *comment
	return &cp, nil
}

func (s *MemoryCommentStream) Tombstone(livestreamID domain.LivestreamID, commentID domain.CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, exists := s.logs[livestreamID]
	if !exists {
		return domain.ErrCommentNotFound
	}

	comment, ok := log.comments[commentID]
	if !ok {
		return domain.ErrCommentNotFound
	}

	// Already tombstoned: idempotent no-op success.
	if comment.IsDeleted() {
		return nil
	}

	now := time.Now()
	comment.DeletedAt = &now
	return nil
}

func (s *MemoryCommentStream) Get(livestreamID domain.LivestreamID, commentID domain.CommentID) (*domain.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, exists := s.logs[livestreamID]
	if !exists {
		return nil, false
	}

	comment, ok := log.comments[commentID]
	if !ok {
		return nil, false
	}

	cp := *comment
	return &cp, true
}

func (s *MemoryCommentStream) ListSince(livestreamID domain.LivestreamID, afterSeq domain.CommentID, limit int) []*domain.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, exists := s.logs[livestreamID]
	if !exists {
		return nil
	}

	var result []*domain.Comment
	for id, comment := range log.comments {
		if id > afterSeq {
			result = append(result, comment.Redacted())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

package ports

import (
	"context"

	"livecast/internal/core/domain"
)

type LivestreamRepository interface {
	Create(ctx context.Context, stream *domain.Livestream) error
	GetByID(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error)
	Update(ctx context.Context, stream *domain.Livestream) error
	ListByStatus(ctx context.Context, status domain.LivestreamStatus) ([]*domain.Livestream, error)
}

// MembershipRegistry tracks which identities hold an open connection to
// a livestream's room. All mutation happens under the coordinator's
// per-livestream serialization point; reads are lazy snapshots.
type MembershipRegistry interface {
	// Add is idempotent: re-adding an identity replaces its connection
	// handle and reports whether the member was already present.
	Add(livestreamID domain.LivestreamID, identity domain.Identity, conn domain.Connection) (alreadyPresent bool)
	// Remove is idempotent and tolerates identities it never added.
	Remove(livestreamID domain.LivestreamID, identity domain.Identity)
	Get(livestreamID domain.LivestreamID, identity domain.Identity) (*domain.Member, bool)
	// ListConnections returns a snapshot of delivery handles as of the
	// call instant, for the broadcaster to fan out over.
	ListConnections(livestreamID domain.LivestreamID) []domain.Connection
	Count(livestreamID domain.LivestreamID) int
	// Clear removes every member of the room, returning the evicted
	// members. Used on livestream end.
	Clear(livestreamID domain.LivestreamID) []*domain.Member
}

// BanList is the per-livestream set of banned identities. IsBanned sits
// on the hot path of every join and comment send.
type BanList interface {
	IsBanned(livestreamID domain.LivestreamID, identity domain.Identity) bool
	Ban(livestreamID domain.LivestreamID, identity domain.Identity, moderator domain.Identity)
	Unban(livestreamID domain.LivestreamID, identity domain.Identity)
	List(livestreamID domain.LivestreamID) []*domain.BanEntry
}

// CommentStream is the append-only, per-livestream ordered comment log.
type CommentStream interface {
	// Append assigns the next sequence number. Returns
	// domain.ErrCommentNotFound when parentID references a missing or
	// tombstoned comment.
	Append(livestreamID domain.LivestreamID, author domain.Identity, content string, parentID *domain.CommentID) (*domain.Comment, error)
	// Tombstone is idempotent; the comment keeps its id and position.
	Tombstone(livestreamID domain.LivestreamID, commentID domain.CommentID) error
	Get(livestreamID domain.LivestreamID, commentID domain.CommentID) (*domain.Comment, bool)
	// ListSince returns up to limit comments with id > afterSeq, in
	// sequence order. Restartable by re-querying with a new cursor.
	ListSince(livestreamID domain.LivestreamID, afterSeq domain.CommentID, limit int) []*domain.Comment
}

// SessionArchive is the durable persistence collaborator. The in-memory
// registries above are the authoritative live view; the archive is
// written after each mutation commits and read on coordinator startup.
type SessionArchive interface {
	SaveLivestream(ctx context.Context, stream *domain.Livestream) error
	LoadLivestream(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error)
	SaveComment(ctx context.Context, comment *domain.Comment) error
	SaveBan(ctx context.Context, entry *domain.BanEntry) error
	DeleteBan(ctx context.Context, livestreamID domain.LivestreamID, identity domain.Identity) error
}

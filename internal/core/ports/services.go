package ports

import (
	"context"

	"livecast/internal/core/domain"
)

// Coordinator owns the per-livestream state machine and is the sole
// mutator of membership, bans, and comments for its livestreams. All
// mutating calls for one livestream are serialized; calls that cannot
// acquire the serialization point within the configured bound fail
// with domain.ErrBusy.
type Coordinator interface {
	CreateLivestream(ctx context.Context, stream *domain.Livestream) (*domain.Livestream, error)
	GetLivestream(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error)

	Start(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error)
	End(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error)
	Cancel(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error)
	SetChatEnabled(ctx context.Context, id domain.LivestreamID, enabled bool) error

	Join(ctx context.Context, id domain.LivestreamID, identity domain.Identity, conn domain.Connection) error
	Leave(ctx context.Context, id domain.LivestreamID, identity domain.Identity) error

	SendComment(ctx context.Context, req SendCommentRequest) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id domain.LivestreamID, moderator domain.Identity, commentID domain.CommentID) error
	BanUser(ctx context.Context, id domain.LivestreamID, moderator, target domain.Identity) error
	UnbanUser(ctx context.Context, id domain.LivestreamID, moderator, target domain.Identity) error

	// Read side: snapshot-consistent, not linearized with in-flight writes.
	ViewerCount(id domain.LivestreamID) int
	ListCommentsSince(id domain.LivestreamID, afterSeq domain.CommentID, limit int) []*domain.Comment
}

// SendCommentRequest carries one comment send. DedupeToken is an
// optional client-supplied correlation token: a replayed token returns
// the originally appended comment instead of appending a duplicate.
type SendCommentRequest struct {
	LivestreamID domain.LivestreamID
	Author       domain.Identity
	Content      string
	ParentID     *domain.CommentID
	DedupeToken  string
}

// Broadcaster fans events out to room members. Delivery is best-effort
// and at-most-once per connection; failures are never surfaced to the
// caller that produced the event.
type Broadcaster interface {
	Publish(livestreamID domain.LivestreamID, event domain.Event)
	PublishToOne(conn domain.Connection, event domain.Event)
}

package services

import (
	"context"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
	"livecast/pkg/utils"
)

func (c *Coordinator) SendComment(ctx context.Context, req ports.SendCommentRequest) (*domain.Comment, error) {
	release, err := c.acquire(ctx, req.LivestreamID)
	if err != nil {
		return nil, err
	}

	if c.bans.IsBanned(req.LivestreamID, req.Author) {
		release()
		return nil, domain.ErrForbidden
	}

	stream, err := c.GetLivestream(ctx, req.LivestreamID)
	if err != nil {
		release()
		c.reapRoom(ctx, req.LivestreamID)
		return nil, err
	}
	if stream.Status != domain.StatusLive {
		release()
		return nil, domain.ErrNotLive
	}
	if !stream.IsChatEnabled {
		release()
		return nil, domain.ErrChatDisabled
	}

	// Client retry with the same correlation token returns the comment
	// appended the first time instead of a duplicate.
	r := c.getRoom(req.LivestreamID)
	if req.DedupeToken != "" {
		if seq, seen := r.dedupe.get(req.DedupeToken); seen {
			original, ok := c.comments.Get(req.LivestreamID, seq)
			release()
			if ok {
				return original, nil
			}
			return nil, domain.ErrCommentNotFound
		}
	}

	// Strip control characters before the content enters the stream. A
	// comment that is empty after sanitization consumes no sequence.
	content := utils.SanitizeString(req.Content)
	if content == "" {
		release()
		return nil, domain.ErrEmptyContent
	}

	// A bad parent reference fails here with ErrCommentNotFound and
	// consumes no sequence number.
	comment, err := c.comments.Append(req.LivestreamID, req.Author, content, req.ParentID)
	if err != nil {
		release()
		return nil, err
	}

	if req.DedupeToken != "" {
		r.dedupe.put(req.DedupeToken, comment.ID)
	}
	release()

	// Archived after release: the serialization point is never held
	// across store I/O. Still before the broadcast, so a fanned-out
	// comment has already been handed to the archive.
	c.persist(ctx, "comment", func(ctx context.Context) error {
		return c.archive.SaveComment(ctx, comment)
	})

	if c.metrics != nil {
		c.metrics.RecordCommentAppended()
	}
	c.logger.Debugw("comment appended",
		"livestream_id", req.LivestreamID,
		"seq", comment.ID,
		"author", req.Author,
		"preview", utils.TruncateString(comment.Content, 48),
	)

	c.broadcaster.Publish(req.LivestreamID, domain.NewCommentAddedEvent(comment))
	return comment, nil
}

// DeleteComment is an idempotent tombstone: the comment keeps its id
// and position, so reply threads stay structurally valid, but the
// content is withheld from every subsequent read.
func (c *Coordinator) DeleteComment(ctx context.Context, id domain.LivestreamID, moderator domain.Identity, commentID domain.CommentID) error {
	release, err := c.acquire(ctx, id)
	if err != nil {
		return err
	}

	if err := c.comments.Tombstone(id, commentID); err != nil {
		release()
		c.reapRoom(ctx, id)
		return err
	}

	comment, tombstoned := c.comments.Get(id, commentID)
	release()

	if tombstoned {
		c.persist(ctx, "comment", func(ctx context.Context) error {
			return c.archive.SaveComment(ctx, comment)
		})
	}

	if c.metrics != nil {
		c.metrics.RecordTombstone()
	}
	c.logger.Infow("comment deleted",
		"livestream_id", id,
		"comment_id", commentID,
		"moderator", moderator,
	)

	// Only the id travels: clients drop their cached copy instantly.
	c.broadcaster.Publish(id, domain.NewCommentDeletedEvent(id, commentID))
	return nil
}

// BanUser creates the ban entry and synchronously evicts any active
// member for the target. Once this returns, no join or send by the
// target can succeed until an explicit unban.
func (c *Coordinator) BanUser(ctx context.Context, id domain.LivestreamID, moderator, target domain.Identity) error {
	release, err := c.acquire(ctx, id)
	if err != nil {
		return err
	}

	c.bans.Ban(id, target, moderator)

	var kicked domain.Connection
	if member, present := c.members.Get(id, target); present {
		kicked = member.Connection
		c.members.Remove(id, target)
	}
	release()

	c.persist(ctx, "ban", func(ctx context.Context) error {
		return c.archive.SaveBan(ctx, &domain.BanEntry{
			LivestreamID: id,
			Identity:     target,
			BannedBy:     moderator,
		})
	})

	if c.metrics != nil {
		c.metrics.RecordBan()
		if kicked != nil {
			c.metrics.RecordViewerLeft(id)
		}
	}
	c.logger.Infow("viewer banned",
		"livestream_id", id,
		"target", target,
		"moderator", moderator,
		"was_connected", kicked != nil,
	)

	// Kick notice goes to exactly the banned viewer's connection.
	if kicked != nil {
		c.broadcaster.PublishToOne(kicked, domain.NewViewerKickedEvent(id, target))
	}
	return nil
}

func (c *Coordinator) UnbanUser(ctx context.Context, id domain.LivestreamID, moderator, target domain.Identity) error {
	release, err := c.acquire(ctx, id)
	if err != nil {
		return err
	}

	c.bans.Unban(id, target)
	release()

	c.persist(ctx, "unban", func(ctx context.Context) error {
		return c.archive.DeleteBan(ctx, id, target)
	})

	c.logger.Infow("viewer unbanned",
		"livestream_id", id,
		"target", target,
		"moderator", moderator,
	)
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisSessionArchive is the durable persistence collaborator. The
// in-memory registries remain the authoritative live view; the archive
// records livestream transitions, comments, and bans so a restarted
// coordinator can reload lifecycle state.
type RedisSessionArchive struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionArchive(client *redis.Client) ports.SessionArchive {
	return &RedisSessionArchive{
		client: client,
		prefix: "livecast:",
	}
}

func (a *RedisSessionArchive) livestreamKey(id domain.LivestreamID) string {
	return a.prefix + "livestream:" + string(id)
}

func (a *RedisSessionArchive) commentsKey(id domain.LivestreamID) string {
	return a.prefix + "comments:" + string(id)
}

func (a *RedisSessionArchive) bansKey(id domain.LivestreamID) string {
	return a.prefix + "bans:" + string(id)
}

func (a *RedisSessionArchive) SaveLivestream(ctx context.Context, stream *domain.Livestream) error {
	data, err := json.Marshal(stream)
	if err != nil {
		return fmt.Errorf("failed to marshal livestream: %w", err)
	}

	if err := a.client.Set(ctx, a.livestreamKey(stream.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set livestream in Redis: %w", err)
	}

	return nil
}

func (a *RedisSessionArchive) LoadLivestream(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error) {
	data, err := a.client.Get(ctx, a.livestreamKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrLivestreamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get livestream from Redis: %w", err)
	}

	var stream domain.Livestream
	if err := json.Unmarshal([]byte(data), &stream); err != nil {
		return nil, fmt.Errorf("failed to unmarshal livestream: %w", err)
	}

	return &stream, nil
}

// SaveComment writes one comment into a per-livestream hash keyed by
// sequence number. Tombstoning re-saves the comment with DeletedAt set.
func (a *RedisSessionArchive) SaveComment(ctx context.Context, comment *domain.Comment) error {
	data, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}

	field := fmt.Sprintf("%d", comment.ID)
	if err := a.client.HSet(ctx, a.commentsKey(comment.LivestreamID), field, data).Err(); err != nil {
		return fmt.Errorf("failed to set comment in Redis: %w", err)
	}

	return nil
}

func (a *RedisSessionArchive) SaveBan(ctx context.Context, entry *domain.BanEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ban entry: %w", err)
	}

	if err := a.client.HSet(ctx, a.bansKey(entry.LivestreamID), string(entry.Identity), data).Err(); err != nil {
		return fmt.Errorf("failed to set ban entry in Redis: %w", err)
	}

	return nil
}

func (a *RedisSessionArchive) DeleteBan(ctx context.Context, livestreamID domain.LivestreamID, identity domain.Identity) error {
	if err := a.client.HDel(ctx, a.bansKey(livestreamID), string(identity)).Err(); err != nil {
		return fmt.Errorf("failed to delete ban entry from Redis: %w", err)
	}
	return nil
}

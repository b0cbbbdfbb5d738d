package repositories

import (
	"context"

	"livecast/internal/core/ports"
	"livecast/internal/infrastructure/repositories/memory"
	redisrepo "livecast/internal/infrastructure/repositories/redis"
	"livecast/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory wires the in-memory live-view registries and the
// optional Redis-backed durable archive, with memory-only fallback when
// Redis is disabled or unreachable.
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	// Try to connect to Redis if enabled
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(redisrepo.ClientConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}, logger)
		if err != nil {
			logger.Warnw("failed to connect to Redis, running without durable archive",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis session archive")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory-only repositories")
	}

	return factory, nil
}

// CreateLivestreamRepository creates the authoritative live-view store.
func (f *RepositoryFactory) CreateLivestreamRepository() ports.LivestreamRepository {
	return memory.NewMemoryLivestreamRepository()
}

func (f *RepositoryFactory) CreateMembershipRegistry() ports.MembershipRegistry {
	return memory.NewMemoryMembershipRegistry()
}

func (f *RepositoryFactory) CreateBanList() ports.BanList {
	return memory.NewMemoryBanList()
}

func (f *RepositoryFactory) CreateCommentStream() ports.CommentStream {
	return memory.NewMemoryCommentStream()
}

// CreateSessionArchive returns the durable archive, or nil when running
// memory-only. The coordinator treats a nil archive as "durability
// delegated to nobody" and skips persistence.
func (f *RepositoryFactory) CreateSessionArchive() ports.SessionArchive {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisSessionArchive(f.redisClient)
	}
	return nil
}

// RedisClient returns the shared client, or nil when memory-only. The
// cross-instance event relay reuses the archive's connection pool.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	if f.useRedis {
		return f.redisClient
	}
	return nil
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}

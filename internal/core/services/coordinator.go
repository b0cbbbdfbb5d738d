package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
	"livecast/pkg/utils"

	"go.uber.org/zap"
)

// Metrics is the subset of the monitoring collector the coordinator
// reports to. Nil-tolerant: every call site checks before use.
type Metrics interface {
	RecordViewerJoined(livestreamID domain.LivestreamID)
	RecordViewerLeft(livestreamID domain.LivestreamID)
	RecordLivestreamStarted(livestreamID domain.LivestreamID)
	RecordLivestreamEnded(livestreamID domain.LivestreamID)
	RecordCommentAppended()
	RecordTombstone()
	RecordBan()
	RecordBusyRejection()
	RecordMutationHold(duration time.Duration)
}

// room is the per-livestream serialization point plus the send dedupe
// cache. The sem channel has capacity 1: whoever holds the token is
// the single writer for this livestream.
type room struct {
	sem    chan struct{}
	dedupe *dedupeCache
}

// Coordinator owns the livestream state machine and is the sole
// mutator of membership, bans, and comments. Mutations for one
// livestream are serialized through its room's semaphore; different
// livestreams proceed fully in parallel and no two room semaphores are
// ever held at once.
type Coordinator struct {
	streams     ports.LivestreamRepository
	members     ports.MembershipRegistry
	bans        ports.BanList
	comments    ports.CommentStream
	archive     ports.SessionArchive
	broadcaster ports.Broadcaster
	metrics     Metrics
	logger      *zap.SugaredLogger

	mutationTimeout time.Duration
	backfillLimit   int
	dedupeCapacity  int

	rooms map[domain.LivestreamID]*room
	mu    sync.Mutex
}

type CoordinatorOptions struct {
	// MutationTimeout bounds how long a mutation may wait for its
	// livestream's serialization point before failing with ErrBusy.
	MutationTimeout time.Duration
	BackfillLimit   int
	DedupeCapacity  int
}

func DefaultCoordinatorOptions() CoordinatorOptions {
	return CoordinatorOptions{
		MutationTimeout: 2 * time.Second,
		BackfillLimit:   100,
		DedupeCapacity:  256,
	}
}

func NewCoordinator(
	streams ports.LivestreamRepository,
	members ports.MembershipRegistry,
	bans ports.BanList,
	comments ports.CommentStream,
	archive ports.SessionArchive,
	broadcaster ports.Broadcaster,
	metrics Metrics,
	logger *zap.SugaredLogger,
	opts CoordinatorOptions,
) *Coordinator {
	if opts.MutationTimeout <= 0 {
		opts.MutationTimeout = DefaultCoordinatorOptions().MutationTimeout
	}
	if opts.BackfillLimit <= 0 {
		opts.BackfillLimit = DefaultCoordinatorOptions().BackfillLimit
	}
	if opts.DedupeCapacity <= 0 {
		opts.DedupeCapacity = DefaultCoordinatorOptions().DedupeCapacity
	}

	return &Coordinator{
		streams:         streams,
		members:         members,
		bans:            bans,
		comments:        comments,
		archive:         archive,
		broadcaster:     broadcaster,
		metrics:         metrics,
		logger:          logger,
		mutationTimeout: opts.MutationTimeout,
		backfillLimit:   opts.BackfillLimit,
		dedupeCapacity:  opts.DedupeCapacity,
		rooms:           make(map[domain.LivestreamID]*room),
	}
}

func (c *Coordinator) getRoom(id domain.LivestreamID) *room {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, exists := c.rooms[id]
	if !exists {
		r = &room{
			sem:    make(chan struct{}, 1),
			dedupe: newDedupeCache(c.dedupeCapacity),
		}
		c.rooms[id] = r
	}
	return r
}

// reapRoom drops the room object when the livestream cannot need one:
// the id is unknown, or the stream is terminal with nobody connected.
// acquire allocates a room before the livestream is looked up, so every
// mutation path that saw a missing or terminal stream reaps on the way
// out to keep the rooms map from accumulating dead entries.
func (c *Coordinator) reapRoom(ctx context.Context, id domain.LivestreamID) {
	stream, err := c.streams.GetByID(ctx, id)
	if err == nil && (!stream.Status.IsTerminal() || c.members.Count(id) > 0) {
		return
	}
	c.mu.Lock()
	delete(c.rooms, id)
	c.mu.Unlock()
}

// acquire takes the livestream's serialization point, failing with
// ErrBusy when it cannot be had within the configured bound. The
// returned release func must be called before any archive write or
// broadcaster work: neither store I/O nor delivery happens under the
// lock.
func (c *Coordinator) acquire(ctx context.Context, id domain.LivestreamID) (func(), error) {
	r := c.getRoom(id)

	timer := time.NewTimer(c.mutationTimeout)
	defer timer.Stop()

	select {
	case r.sem <- struct{}{}:
		held := time.Now()
		return func() {
			if c.metrics != nil {
				c.metrics.RecordMutationHold(time.Since(held))
			}
			<-r.sem
		}, nil
	case <-timer.C:
		if c.metrics != nil {
			c.metrics.RecordBusyRejection()
		}
		return nil, domain.ErrBusy
	case <-ctx.Done():
		return nil, fmt.Errorf("mutation canceled: %w", ctx.Err())
	}
}

// persist writes to the durable archive when one is configured.
// The in-memory view stays authoritative: archive failures are logged,
// not surfaced, so a flaky store cannot reject live actions.
func (c *Coordinator) persist(ctx context.Context, what string, fn func(ctx context.Context) error) {
	if c.archive == nil {
		return
	}
	if err := fn(ctx); err != nil {
		c.logger.Warnw("archive write failed",
			"what", what,
			"error", err,
		)
	}
}

func (c *Coordinator) CreateLivestream(ctx context.Context, stream *domain.Livestream) (*domain.Livestream, error) {
	if stream.ID == "" {
		stream.ID = domain.LivestreamID(utils.GenerateLivestreamID())
	}
	if stream.Status == "" {
		stream.Status = domain.StatusScheduled
	}
	if stream.ScheduleType == "" {
		stream.ScheduleType = domain.ScheduleScheduled
	}
	stream.CreatedAt = time.Now()

	if err := c.streams.Create(ctx, stream); err != nil {
		return nil, fmt.Errorf("failed to create livestream: %w", err)
	}

	c.persist(ctx, "livestream", func(ctx context.Context) error {
		return c.archive.SaveLivestream(ctx, stream)
	})

	c.logger.Infow("livestream created",
		"livestream_id", stream.ID,
		"schedule_type", stream.ScheduleType,
	)
	return stream, nil
}

func (c *Coordinator) GetLivestream(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error) {
	stream, err := c.streams.GetByID(ctx, id)
	if err == nil {
		return stream, nil
	}
	if c.archive == nil {
		return nil, err
	}

	// Fall back to the durable record, e.g. after a restart.
	stream, archiveErr := c.archive.LoadLivestream(ctx, id)
	if archiveErr != nil {
		return nil, err
	}
	if createErr := c.streams.Create(ctx, stream); createErr != nil {
		c.logger.Warnw("failed to rehydrate livestream", "livestream_id", id, "error", createErr)
	}
	return stream, nil
}

// transition applies one state-machine edge under the serialization
// point and returns the updated record. mutate runs with the current
// record after the edge has been validated.
func (c *Coordinator) transition(ctx context.Context, id domain.LivestreamID, next domain.LivestreamStatus, mutate func(*domain.Livestream)) (*domain.Livestream, error) {
	release, err := c.acquire(ctx, id)
	if err != nil {
		return nil, err
	}

	stream, err := c.GetLivestream(ctx, id)
	if err != nil {
		release()
		c.reapRoom(ctx, id)
		return nil, err
	}

	if !stream.Status.CanTransitionTo(next) {
		release()
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, stream.Status, next)
	}

	stream.Status = next
	if mutate != nil {
		mutate(stream)
	}

	if err := c.streams.Update(ctx, stream); err != nil {
		release()
		return nil, fmt.Errorf("failed to update livestream: %w", err)
	}
	release()

	// Archive writes happen off the serialization point: a slow store
	// must not starve concurrent mutations into Busy.
	c.persist(ctx, "livestream", func(ctx context.Context) error {
		return c.archive.SaveLivestream(ctx, stream)
	})

	return stream, nil
}

func (c *Coordinator) Start(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error) {
	stream, err := c.transition(ctx, id, domain.StatusLive, func(s *domain.Livestream) {
		now := time.Now()
		s.StartedAt = &now
	})
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordLivestreamStarted(id)
	}
	c.logger.Infow("livestream started", "livestream_id", id)

	c.broadcaster.Publish(id, domain.NewStatusChangedEvent(id, domain.StatusLive))
	return stream, nil
}

func (c *Coordinator) End(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error) {
	var evicted []*domain.Member
	stream, err := c.transition(ctx, id, domain.StatusEnded, func(s *domain.Livestream) {
		now := time.Now()
		s.EndedAt = &now
		// Room teardown: every member is forced into leave.
		evicted = c.members.Clear(id)
	})
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordLivestreamEnded(id)
		for range evicted {
			c.metrics.RecordViewerLeft(id)
		}
	}
	c.logger.Infow("livestream ended",
		"livestream_id", id,
		"evicted_members", len(evicted),
	)

	// The local registry is already empty, so the room publish only
	// feeds cross-instance relays; the closing notice goes to the
	// evicted local connections directly.
	event := domain.NewStatusChangedEvent(id, domain.StatusEnded)
	c.broadcaster.Publish(id, event)
	for _, member := range evicted {
		c.broadcaster.PublishToOne(member.Connection, event)
	}

	c.reapRoom(ctx, id)
	return stream, nil
}

func (c *Coordinator) Cancel(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error) {
	stream, err := c.transition(ctx, id, domain.StatusCanceled, nil)
	if err != nil {
		return nil, err
	}

	c.logger.Infow("livestream canceled", "livestream_id", id)

	c.broadcaster.Publish(id, domain.NewStatusChangedEvent(id, domain.StatusCanceled))
	c.reapRoom(ctx, id)
	return stream, nil
}

func (c *Coordinator) SetChatEnabled(ctx context.Context, id domain.LivestreamID, enabled bool) error {
	release, err := c.acquire(ctx, id)
	if err != nil {
		return err
	}

	stream, err := c.GetLivestream(ctx, id)
	if err != nil {
		release()
		c.reapRoom(ctx, id)
		return err
	}

	if stream.IsChatEnabled == enabled {
		release()
		return nil
	}

	stream.IsChatEnabled = enabled
	if err := c.streams.Update(ctx, stream); err != nil {
		release()
		return fmt.Errorf("failed to update livestream: %w", err)
	}
	release()

	c.persist(ctx, "livestream", func(ctx context.Context) error {
		return c.archive.SaveLivestream(ctx, stream)
	})

	c.logger.Infow("chat toggled", "livestream_id", id, "enabled", enabled)
	return nil
}

func (c *Coordinator) Join(ctx context.Context, id domain.LivestreamID, identity domain.Identity, conn domain.Connection) error {
	release, err := c.acquire(ctx, id)
	if err != nil {
		return err
	}

	if c.bans.IsBanned(id, identity) {
		release()
		return domain.ErrForbidden
	}

	stream, err := c.GetLivestream(ctx, id)
	if err != nil {
		release()
		c.reapRoom(ctx, id)
		return err
	}
	if stream.Status != domain.StatusLive {
		release()
		c.reapRoom(ctx, id)
		return domain.ErrNotLive
	}

	alreadyPresent := c.members.Add(id, identity, conn)
	count := c.members.Count(id)
	release()

	if alreadyPresent {
		// Idempotent re-join: connection handle refreshed, no event.
		return nil
	}

	if c.metrics != nil {
		c.metrics.RecordViewerJoined(id)
	}
	c.logger.Infow("viewer joined",
		"livestream_id", id,
		"identity", identity,
		"viewer_count", count,
	)

	c.broadcaster.Publish(id, domain.NewViewerJoinedEvent(id, identity, count))
	return nil
}

func (c *Coordinator) Leave(ctx context.Context, id domain.LivestreamID, identity domain.Identity) error {
	release, err := c.acquire(ctx, id)
	if err != nil {
		return err
	}

	_, present := c.members.Get(id, identity)
	c.members.Remove(id, identity)
	release()

	// A disconnect-time leave must not resurrect the room of a stream
	// that ended while the viewer was connected.
	c.reapRoom(ctx, id)

	if !present {
		return nil
	}

	if c.metrics != nil {
		c.metrics.RecordViewerLeft(id)
	}
	c.logger.Infow("viewer left", "livestream_id", id, "identity", identity)
	return nil
}

// ViewerCount is a snapshot read, not linearized with in-flight writes.
func (c *Coordinator) ViewerCount(id domain.LivestreamID) int {
	return c.members.Count(id)
}

func (c *Coordinator) ListCommentsSince(id domain.LivestreamID, afterSeq domain.CommentID, limit int) []*domain.Comment {
	if limit <= 0 || limit > c.backfillLimit {
		limit = c.backfillLimit
	}
	return c.comments.ListSince(id, afterSeq, limit)
}

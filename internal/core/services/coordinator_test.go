package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
	"livecast/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakeConn) Send(event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeConn) received() []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Event, len(f.events))
	copy(out, f.events)
	return out
}

// captureBroadcaster records what the coordinator publishes without
// any delivery machinery.
type captureBroadcaster struct {
	mu        sync.Mutex
	published []domain.Event
	direct    []directEvent
}

type directEvent struct {
	conn  domain.Connection
	event domain.Event
}

func (b *captureBroadcaster) Publish(livestreamID domain.LivestreamID, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *captureBroadcaster) PublishToOne(conn domain.Connection, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.direct = append(b.direct, directEvent{conn: conn, event: event})
}

func (b *captureBroadcaster) publishedEvents() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Event, len(b.published))
	copy(out, b.published)
	return out
}

func (b *captureBroadcaster) lastPublished(eventType domain.EventType) (domain.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.published) - 1; i >= 0; i-- {
		if b.published[i].Type == eventType {
			return b.published[i], true
		}
	}
	return domain.Event{}, false
}

func newTestCoordinator(t *testing.T, opts CoordinatorOptions) (*Coordinator, *captureBroadcaster) {
	t.Helper()

	broadcaster := &captureBroadcaster{}
	coord := NewCoordinator(
		memory.NewMemoryLivestreamRepository(),
		memory.NewMemoryMembershipRegistry(),
		memory.NewMemoryBanList(),
		memory.NewMemoryCommentStream(),
		nil, // no archive
		broadcaster,
		nil, // no metrics
		zap.NewNop().Sugar(),
		opts,
	)
	return coord, broadcaster
}

func createLiveStream(t *testing.T, coord *Coordinator) domain.LivestreamID {
	t.Helper()
	ctx := context.Background()

	stream, err := coord.CreateLivestream(ctx, &domain.Livestream{
		ChannelID:     "chan-1",
		Title:         "Launch day",
		IsChatEnabled: true,
	})
	require.NoError(t, err)

	_, err = coord.Start(ctx, stream.ID)
	require.NoError(t, err)
	return stream.ID
}

func TestCreateLivestreamDefaults(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()

	stream, err := coord.CreateLivestream(ctx, &domain.Livestream{
		ChannelID: "chan-1",
		Title:     "Launch day",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, stream.ID)
	assert.Equal(t, domain.StatusScheduled, stream.Status)
	assert.Equal(t, domain.ScheduleScheduled, stream.ScheduleType)
	assert.Nil(t, stream.StartedAt)
}

func TestLifecycleTransitions(t *testing.T) {
	coord, broadcaster := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()

	stream, err := coord.CreateLivestream(ctx, &domain.Livestream{ChannelID: "c", Title: "t"})
	require.NoError(t, err)

	started, err := coord.Start(ctx, stream.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLive, started.Status)
	require.NotNil(t, started.StartedAt)

	// live -> canceled is not a legal edge.
	_, err = coord.Cancel(ctx, stream.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Starting twice is rejected.
	_, err = coord.Start(ctx, stream.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	ended, err := coord.End(ctx, stream.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, ended.Status)
	require.NotNil(t, ended.EndedAt)

	// Terminal states admit nothing.
	_, err = coord.Start(ctx, stream.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	event, found := broadcaster.lastPublished(domain.EventStatusChanged)
	require.True(t, found)
	assert.Equal(t, domain.StatusLive, event.Status)
}

func TestCancelScheduled(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()

	stream, err := coord.CreateLivestream(ctx, &domain.Livestream{ChannelID: "c", Title: "t"})
	require.NoError(t, err)

	canceled, err := coord.Cancel(ctx, stream.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, canceled.Status)

	// Canceled is terminal.
	_, err = coord.Start(ctx, stream.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestJoinRequiresLive(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()

	stream, err := coord.CreateLivestream(ctx, &domain.Livestream{ChannelID: "c", Title: "t"})
	require.NoError(t, err)

	err = coord.Join(ctx, stream.ID, "viewer-1", &fakeConn{})
	assert.ErrorIs(t, err, domain.ErrNotLive)
}

func TestJoinUnknownLivestream(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})

	err := coord.Join(context.Background(), "ls_missing", "viewer-1", &fakeConn{})
	assert.ErrorIs(t, err, domain.ErrLivestreamNotFound)
}

func TestJoinIsIdempotent(t *testing.T) {
	coord, broadcaster := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	require.NoError(t, coord.Join(ctx, id, "viewer-1", &fakeConn{}))
	assert.Equal(t, 1, coord.ViewerCount(id))

	// Re-join swaps the connection handle but emits no second event.
	second := &fakeConn{}
	require.NoError(t, coord.Join(ctx, id, "viewer-1", second))
	assert.Equal(t, 1, coord.ViewerCount(id))

	joined := 0
	for _, e := range broadcaster.publishedEvents() {
		if e.Type == domain.EventViewerJoined {
			joined++
		}
	}
	assert.Equal(t, 1, joined)
}

func TestLeaveIsIdempotent(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	require.NoError(t, coord.Join(ctx, id, "viewer-1", &fakeConn{}))
	require.NoError(t, coord.Leave(ctx, id, "viewer-1"))
	assert.Equal(t, 0, coord.ViewerCount(id))

	// Leaving again is a no-op, not an error.
	require.NoError(t, coord.Leave(ctx, id, "viewer-1"))
}

func TestBannedViewerCannotJoin(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	require.NoError(t, coord.BanUser(ctx, id, "mod-1", "troll-9"))

	err := coord.Join(ctx, id, "troll-9", &fakeConn{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Unban restores access.
	require.NoError(t, coord.UnbanUser(ctx, id, "mod-1", "troll-9"))
	assert.NoError(t, coord.Join(ctx, id, "troll-9", &fakeConn{}))
}

func TestBanEvictsAndKicksExactlyTarget(t *testing.T) {
	coord, broadcaster := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	target := &fakeConn{}
	bystander := &fakeConn{}
	require.NoError(t, coord.Join(ctx, id, "troll-9", target))
	require.NoError(t, coord.Join(ctx, id, "viewer-1", bystander))

	require.NoError(t, coord.BanUser(ctx, id, "mod-1", "troll-9"))

	assert.Equal(t, 1, coord.ViewerCount(id))

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	require.Len(t, broadcaster.direct, 1)
	assert.Same(t, domain.Connection(target), broadcaster.direct[0].conn)
	assert.Equal(t, domain.EventViewerKicked, broadcaster.direct[0].event.Type)
	assert.Equal(t, domain.Identity("troll-9"), broadcaster.direct[0].event.Viewer)
}

func TestSendCommentGates(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()

	stream, err := coord.CreateLivestream(ctx, &domain.Livestream{
		ChannelID: "c", Title: "t", IsChatEnabled: true,
	})
	require.NoError(t, err)

	// Not live yet.
	_, err = coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: stream.ID, Author: "viewer-1", Content: "early",
	})
	assert.ErrorIs(t, err, domain.ErrNotLive)

	_, err = coord.Start(ctx, stream.ID)
	require.NoError(t, err)

	// Chat disabled.
	require.NoError(t, coord.SetChatEnabled(ctx, stream.ID, false))
	_, err = coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: stream.ID, Author: "viewer-1", Content: "muted",
	})
	assert.ErrorIs(t, err, domain.ErrChatDisabled)

	// Banned author.
	require.NoError(t, coord.SetChatEnabled(ctx, stream.ID, true))
	require.NoError(t, coord.BanUser(ctx, stream.ID, "mod-1", "troll-9"))
	_, err = coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: stream.ID, Author: "troll-9", Content: "hi",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSendCommentSanitizesContent(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	comment, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "  hi\x00 there\x07  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", comment.Content)

	// Whitespace-only content consumes no sequence number.
	_, err = coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "   \x1b   ",
	})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	next, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "second",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CommentID(2), next.ID)
}

func TestCommentSequencesAreGapFree(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	const senders = 20
	results := make(chan domain.CommentID, senders)
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comment, err := coord.SendComment(ctx, ports.SendCommentRequest{
				LivestreamID: id, Author: "viewer-1", Content: "hello",
			})
			if err == nil {
				results <- comment.ID
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[domain.CommentID]bool)
	for seq := range results {
		assert.False(t, seen[seq], "sequence %d assigned twice", seq)
		seen[seq] = true
	}
	require.Len(t, seen, senders)
	for seq := domain.CommentID(1); seq <= senders; seq++ {
		assert.True(t, seen[seq], "sequence %d missing", seq)
	}
}

func TestBadParentConsumesNoSequence(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	missing := domain.CommentID(42)
	_, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "re", ParentID: &missing,
	})
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)

	// The failed send left no gap behind.
	comment, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "first",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CommentID(1), comment.ID)
}

func TestReplyToTombstonedParentRejected(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	parent, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "parent",
	})
	require.NoError(t, err)
	require.NoError(t, coord.DeleteComment(ctx, id, "mod-1", parent.ID))

	_, err = coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-2", Content: "re", ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)
}

func TestDedupeTokenReplayReturnsOriginal(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	first, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "hello", DedupeToken: "tok-1",
	})
	require.NoError(t, err)

	replay, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "hello", DedupeToken: "tok-1",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)

	// No duplicate was appended.
	assert.Len(t, coord.ListCommentsSince(id, 0, 10), 1)
}

func TestDeleteCommentTombstones(t *testing.T) {
	coord, broadcaster := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	comment, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "oops",
	})
	require.NoError(t, err)

	require.NoError(t, coord.DeleteComment(ctx, id, "mod-1", comment.ID))
	// Idempotent.
	require.NoError(t, coord.DeleteComment(ctx, id, "mod-1", comment.ID))

	// The tombstone keeps its position but withholds content.
	comments := coord.ListCommentsSince(id, 0, 10)
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)
	assert.Empty(t, comments[0].Content)
	assert.True(t, comments[0].IsDeleted())

	event, found := broadcaster.lastPublished(domain.EventCommentDeleted)
	require.True(t, found)
	assert.Equal(t, comment.ID, event.CommentID)
	assert.Nil(t, event.Comment)

	// Deleting a never-existing comment is an error.
	err = coord.DeleteComment(ctx, id, "mod-1", 99)
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)
}

func TestEndEvictsMembersAndNotifiesThem(t *testing.T) {
	coord, broadcaster := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	connA := &fakeConn{}
	connB := &fakeConn{}
	require.NoError(t, coord.Join(ctx, id, "viewer-a", connA))
	require.NoError(t, coord.Join(ctx, id, "viewer-b", connB))

	_, err := coord.End(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 0, coord.ViewerCount(id))

	// The ended notice also goes out as a room publish so relays can
	// forward it to viewers held by other instances.
	ended, ok := broadcaster.lastPublished(domain.EventStatusChanged)
	require.True(t, ok)
	assert.Equal(t, domain.StatusEnded, ended.Status)

	// Both evicted connections got the closing status change.
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	require.Len(t, broadcaster.direct, 2)
	for _, d := range broadcaster.direct {
		assert.Equal(t, domain.EventStatusChanged, d.event.Type)
		assert.Equal(t, domain.StatusEnded, d.event.Status)
	}
}

func TestBusyWhenSerializationPointHeld(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{
		MutationTimeout: 20 * time.Millisecond,
	})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	// Occupy the livestream's serialization point.
	r := coord.getRoom(id)
	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	_, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-1", Content: "blocked",
	})
	assert.ErrorIs(t, err, domain.ErrBusy)

	_, err = coord.End(ctx, id)
	assert.ErrorIs(t, err, domain.ErrBusy)
}

func TestMutationsOnDifferentLivestreamsDoNotContend(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{
		MutationTimeout: 50 * time.Millisecond,
	})
	ctx := context.Background()
	first := createLiveStream(t, coord)
	second := createLiveStream(t, coord)

	// Holding one room's point must not block the other livestream.
	r := coord.getRoom(first)
	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	_, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: second, Author: "viewer-1", Content: "independent",
	})
	assert.NoError(t, err)
}

func TestListCommentsSinceClampsLimit(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{BackfillLimit: 5})
	ctx := context.Background()
	id := createLiveStream(t, coord)

	for i := 0; i < 10; i++ {
		_, err := coord.SendComment(ctx, ports.SendCommentRequest{
			LivestreamID: id, Author: "viewer-1", Content: "msg",
		})
		require.NoError(t, err)
	}

	// Oversized and zero limits both clamp to the backfill bound.
	assert.Len(t, coord.ListCommentsSince(id, 0, 1000), 5)
	assert.Len(t, coord.ListCommentsSince(id, 0, 0), 5)
	assert.Len(t, coord.ListCommentsSince(id, 0, 3), 3)

	// afterSeq is exclusive.
	comments := coord.ListCommentsSince(id, 8, 5)
	require.Len(t, comments, 2)
	assert.Equal(t, domain.CommentID(9), comments[0].ID)
}

func TestFullSessionScenario(t *testing.T) {
	coord, broadcaster := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()

	stream, err := coord.CreateLivestream(ctx, &domain.Livestream{
		ChannelID: "chan-1", Title: "Launch day", IsChatEnabled: true,
	})
	require.NoError(t, err)

	_, err = coord.Start(ctx, stream.ID)
	require.NoError(t, err)

	alice := &fakeConn{}
	bob := &fakeConn{}
	require.NoError(t, coord.Join(ctx, stream.ID, "alice", alice))
	require.NoError(t, coord.Join(ctx, stream.ID, "bob", bob))
	assert.Equal(t, 2, coord.ViewerCount(stream.ID))

	c1, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: stream.ID, Author: "alice", Content: "first!",
	})
	require.NoError(t, err)

	_, err = coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: stream.ID, Author: "bob", Content: "reply", ParentID: &c1.ID,
	})
	require.NoError(t, err)

	require.NoError(t, coord.DeleteComment(ctx, stream.ID, "mod-1", c1.ID))
	require.NoError(t, coord.BanUser(ctx, stream.ID, "mod-1", "bob"))
	assert.Equal(t, 1, coord.ViewerCount(stream.ID))

	_, err = coord.End(ctx, stream.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, coord.ViewerCount(stream.ID))

	// Comment history survives the end of the session, with the
	// tombstone redacted and the reply intact.
	comments := coord.ListCommentsSince(stream.ID, 0, 10)
	require.Len(t, comments, 2)
	assert.True(t, comments[0].IsDeleted())
	assert.Empty(t, comments[0].Content)
	assert.Equal(t, "reply", comments[1].Content)

	var types []domain.EventType
	for _, e := range broadcaster.publishedEvents() {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, domain.EventStatusChanged)
	assert.Contains(t, types, domain.EventViewerJoined)
	assert.Contains(t, types, domain.EventCommentAdded)
	assert.Contains(t, types, domain.EventCommentDeleted)
}

func roomCount(coord *Coordinator) int {
	coord.mu.Lock()
	defer coord.mu.Unlock()
	return len(coord.rooms)
}

func TestRoomsAreReclaimed(t *testing.T) {
	coord, _ := newTestCoordinator(t, CoordinatorOptions{})
	ctx := context.Background()

	// Failed joins against unknown ids leave no per-stream state behind.
	for i := 0; i < 100; i++ {
		id := domain.LivestreamID(fmt.Sprintf("ghost-%d", i))
		err := coord.Join(ctx, id, "viewer-1", &fakeConn{})
		require.ErrorIs(t, err, domain.ErrLivestreamNotFound)
	}
	assert.Equal(t, 0, roomCount(coord))

	// Ending an emptied stream discards its room.
	id := createLiveStream(t, coord)
	require.NoError(t, coord.Join(ctx, id, "viewer-1", &fakeConn{}))
	_, err := coord.End(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, roomCount(coord))

	// A disconnect-time leave after the end does not resurrect it.
	require.NoError(t, coord.Leave(ctx, id, "viewer-1"))
	assert.Equal(t, 0, roomCount(coord))

	// A join attempt against the ended stream leaves nothing either.
	err = coord.Join(ctx, id, "viewer-2", &fakeConn{})
	require.ErrorIs(t, err, domain.ErrNotLive)
	assert.Equal(t, 0, roomCount(coord))
}

// slowArchive stalls the first comment write until released.
type slowArchive struct {
	once    sync.Once
	entered chan struct{}
	unblock chan struct{}
}

func (a *slowArchive) SaveLivestream(context.Context, *domain.Livestream) error { return nil }

func (a *slowArchive) LoadLivestream(context.Context, domain.LivestreamID) (*domain.Livestream, error) {
	return nil, domain.ErrLivestreamNotFound
}

func (a *slowArchive) SaveComment(context.Context, *domain.Comment) error {
	stall := false
	a.once.Do(func() { stall = true })
	if stall {
		close(a.entered)
		<-a.unblock
	}
	return nil
}

func (a *slowArchive) SaveBan(context.Context, *domain.BanEntry) error { return nil }

func (a *slowArchive) DeleteBan(context.Context, domain.LivestreamID, domain.Identity) error {
	return nil
}

func TestArchiveWriteDoesNotHoldSerializationPoint(t *testing.T) {
	archive := &slowArchive{entered: make(chan struct{}), unblock: make(chan struct{})}
	coord := NewCoordinator(
		memory.NewMemoryLivestreamRepository(),
		memory.NewMemoryMembershipRegistry(),
		memory.NewMemoryBanList(),
		memory.NewMemoryCommentStream(),
		archive,
		&captureBroadcaster{},
		nil,
		zap.NewNop().Sugar(),
		CoordinatorOptions{MutationTimeout: 50 * time.Millisecond},
	)
	ctx := context.Background()
	id := createLiveStream(t, coord)

	firstDone := make(chan error, 1)
	go func() {
		_, err := coord.SendComment(ctx, ports.SendCommentRequest{
			LivestreamID: id, Author: "viewer-1", Content: "first",
		})
		firstDone <- err
	}()

	// The first send is stalled inside the archive write.
	<-archive.entered

	// The serialization point must already be free for other senders.
	second, err := coord.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: id, Author: "viewer-2", Content: "second",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CommentID(2), second.ID)

	close(archive.unblock)
	require.NoError(t, <-firstDone)
}

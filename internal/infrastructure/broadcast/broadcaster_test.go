package broadcast

import (
	"errors"
	"testing"

	"livecast/internal/core/domain"
	"livecast/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingConn struct {
	events []domain.Event
	fail   bool
}

func (c *recordingConn) Send(event domain.Event) error {
	if c.fail {
		return errors.New("buffer full")
	}
	c.events = append(c.events, event)
	return nil
}

func TestPublishFansOutToAllMembers(t *testing.T) {
	registry := memory.NewMemoryMembershipRegistry()
	b := NewBroadcaster(registry, nil, zap.NewNop().Sugar())

	alice := &recordingConn{}
	bob := &recordingConn{}
	registry.Add("ls_1", "alice", alice)
	registry.Add("ls_1", "bob", bob)

	other := &recordingConn{}
	registry.Add("ls_2", "carol", other)

	event := domain.NewStatusChangedEvent("ls_1", domain.StatusLive)
	b.Publish("ls_1", event)

	assert.Len(t, alice.events, 1)
	assert.Len(t, bob.events, 1)
	// Members of other livestreams see nothing.
	assert.Empty(t, other.events)
}

func TestPublishSurvivesFailingConnection(t *testing.T) {
	registry := memory.NewMemoryMembershipRegistry()
	b := NewBroadcaster(registry, nil, zap.NewNop().Sugar())

	healthy := &recordingConn{}
	broken := &recordingConn{fail: true}
	registry.Add("ls_1", "alice", healthy)
	registry.Add("ls_1", "bob", broken)

	// The failure is swallowed; the healthy member still gets the event.
	b.Publish("ls_1", domain.NewStatusChangedEvent("ls_1", domain.StatusEnded))
	assert.Len(t, healthy.events, 1)
}

func TestPublishEmptyRoomIsNoop(t *testing.T) {
	registry := memory.NewMemoryMembershipRegistry()
	b := NewBroadcaster(registry, nil, zap.NewNop().Sugar())

	b.Publish("ls_empty", domain.NewStatusChangedEvent("ls_empty", domain.StatusLive))
}

func TestPublishToOne(t *testing.T) {
	registry := memory.NewMemoryMembershipRegistry()
	b := NewBroadcaster(registry, nil, zap.NewNop().Sugar())

	conn := &recordingConn{}
	event := domain.NewViewerKickedEvent("ls_1", "troll-9")
	b.PublishToOne(conn, event)

	assert.Len(t, conn.events, 1)
	assert.Equal(t, domain.EventViewerKicked, conn.events[0].Type)

	// Nil connection and failing sends are both tolerated.
	b.PublishToOne(nil, event)
	b.PublishToOne(&recordingConn{fail: true}, event)
}

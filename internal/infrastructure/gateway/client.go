package gateway

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"livecast/internal/core/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrSendBufferFull   = errors.New("send buffer full")
	ErrConnectionClosed = errors.New("connection closed")
)

// Config carries the WebSocket tuning knobs for one connection.
type Config struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	SendBufferSize int
}

// Client is one connected viewer. It implements domain.Connection so
// the coordinator and broadcaster can push events without knowing the
// transport; slow readers lose events instead of blocking the room.
type Client struct {
	identity domain.Identity
	conn     *websocket.Conn
	send     chan []byte
	cfg      Config
	logger   *zap.SugaredLogger

	// livestreams this client has joined, so teardown can leave them all
	mu     sync.Mutex
	joined map[domain.LivestreamID]struct{}

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(identity domain.Identity, conn *websocket.Conn, cfg Config, logger *zap.SugaredLogger) *Client {
	return &Client{
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, cfg.SendBufferSize),
		cfg:      cfg,
		logger:   logger,
		joined:   make(map[domain.LivestreamID]struct{}),
		done:     make(chan struct{}),
	}
}

// Send implements domain.Connection. It never blocks: if the client's
// buffer is full the event is dropped and the error is reported to the
// broadcaster, which counts it.
func (c *Client) Send(event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// enqueue pushes a direct response (ack, error, backfill) to this
// client, same non-blocking contract as Send.
func (c *Client) enqueue(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) markJoined(id domain.LivestreamID) {
	c.mu.Lock()
	c.joined[id] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) markLeft(id domain.LivestreamID) {
	c.mu.Lock()
	delete(c.joined, id)
	c.mu.Unlock()
}

func (c *Client) joinedLivestreams() []domain.LivestreamID {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]domain.LivestreamID, 0, len(c.joined))
	for id := range c.joined {
		ids = append(ids, id)
	}
	return ids
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump reads client messages until the connection drops. It owns
// the read side of the connection.
func (c *Client) readPump(handler func(*Client, []byte)) {
	defer c.close()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Infow("websocket read error", "identity", c.identity, "error", err)
			}
			return
		}
		handler(c, message)
	}
}

// writePump drains the send buffer and keeps the connection alive with
// pings. It owns the write side of the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
	"livecast/internal/core/services"
	"livecast/internal/infrastructure/middleware"
	apperrors "livecast/pkg/errors"
	"livecast/pkg/retry"
	"livecast/pkg/tracing"
	"livecast/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// teardownRetry bounds the disconnect-time Leave attempts when the
// livestream's serialization point is contended.
var teardownRetry = retry.Config{
	Enabled:      true,
	MaxAttempts:  5,
	InitialDelay: 25 * time.Millisecond,
	MaxDelay:     time.Second,
	Multiplier:   2.0,
	Jitter:       true,
}

// Gateway accepts WebSocket connections and translates client messages
// into coordinator calls. Every connection gets a guaranteed Leave for
// each joined livestream on teardown, whatever way it drops.
type Gateway struct {
	coordinator      ports.Coordinator
	limiter          *middleware.LimiterStore
	cfg              Config
	maxCommentLength int
	logger           *zap.SugaredLogger
}

// clientMessage is the envelope for everything a client sends.
type clientMessage struct {
	Type         string              `json:"type"`
	LivestreamID domain.LivestreamID `json:"livestream_id,omitempty"`
	Content      string              `json:"content,omitempty"`
	ParentID     *domain.CommentID   `json:"parent_id,omitempty"`
	DedupeToken  string              `json:"dedupe_token,omitempty"`
	CommentID    domain.CommentID    `json:"comment_id,omitempty"`
	Target       domain.Identity     `json:"target,omitempty"`
	AfterSeq     domain.CommentID    `json:"after_seq,omitempty"`
	Limit        int                 `json:"limit,omitempty"`
}

func New(coordinator ports.Coordinator, limiter *middleware.LimiterStore, cfg Config, maxCommentLength int, logger *zap.SugaredLogger) *Gateway {
	return &Gateway{
		coordinator:      coordinator,
		limiter:          limiter,
		cfg:              cfg,
		maxCommentLength: maxCommentLength,
		logger:           logger,
	}
}

// HandleWebSocket upgrades the request and runs the connection until
// it drops. It must run behind AuthMiddleware.
func (g *Gateway) HandleWebSocket(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Errorw("websocket upgrade failed", "identity", identity, "error", err)
		return
	}

	role := c.GetString(middleware.ContextRoleKey)
	client := NewClient(identity, conn, g.cfg, g.logger)

	g.logger.Infow("viewer connected", "identity", identity, "role", role)

	go client.writePump()
	client.readPump(func(cl *Client, message []byte) {
		g.handleMessage(cl, role, message)
	})

	// readPump returned, the connection is gone. Leave every room the
	// client was still in so membership never outlives the socket.
	// Leave is idempotent, so a Busy rejection under contention is
	// retried rather than leaking the dead connection's membership.
	for _, id := range client.joinedLivestreams() {
		err := retry.Retry(context.Background(), teardownRetry, func() error {
			return g.coordinator.Leave(context.Background(), id, identity)
		})
		if err != nil {
			g.logger.Warnw("leave on disconnect failed",
				"livestream_id", id, "identity", identity, "error", err)
		}
	}
	g.limiter.Forget(string(identity))

	g.logger.Infow("viewer disconnected", "identity", identity)
}

func (g *Gateway) handleMessage(client *Client, role string, message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		g.sendError(client, apperrors.NewInvalidInputError("invalid message format"))
		return
	}

	ctx, span := tracing.TraceGatewayMessage(context.Background(), msg.Type, string(client.identity))
	defer span.End()
	if msg.LivestreamID != "" {
		tracing.AddSpanAttributes(ctx, tracing.LivestreamIDKey.String(string(msg.LivestreamID)))
	}

	var err error
	switch msg.Type {
	case "join":
		err = g.handleJoin(ctx, client, msg)
	case "leave":
		err = g.handleLeave(ctx, client, msg)
	case "send_comment":
		err = g.handleSendComment(ctx, client, msg)
	case "delete_comment":
		err = g.requireModerator(role, func() error {
			return g.coordinator.DeleteComment(ctx, msg.LivestreamID, client.identity, msg.CommentID)
		})
	case "ban":
		err = g.requireModerator(role, func() error {
			return g.coordinator.BanUser(ctx, msg.LivestreamID, client.identity, msg.Target)
		})
	case "unban":
		err = g.requireModerator(role, func() error {
			return g.coordinator.UnbanUser(ctx, msg.LivestreamID, client.identity, msg.Target)
		})
	case "backfill":
		err = g.handleBackfill(client, msg)
	case "ping":
		client.enqueue(map[string]string{"type": "pong"})
		return
	default:
		err = apperrors.NewInvalidInputError(fmt.Sprintf("unknown message type: %s", msg.Type))
	}

	if err != nil {
		tracing.RecordError(ctx, err)
		g.logger.Infow("message rejected",
			"type", msg.Type,
			"identity", client.identity,
			"livestream_id", msg.LivestreamID,
			"error", err,
		)
		g.sendError(client, err)
	}
}

func (g *Gateway) handleJoin(ctx context.Context, client *Client, msg clientMessage) error {
	if msg.LivestreamID == "" {
		return apperrors.NewInvalidInputError("livestream_id is required")
	}

	if err := g.coordinator.Join(ctx, msg.LivestreamID, client.identity, client); err != nil {
		return err
	}
	client.markJoined(msg.LivestreamID)

	// Recent history so a late joiner is not staring at an empty chat.
	comments := g.coordinator.ListCommentsSince(msg.LivestreamID, 0, msg.Limit)
	count := g.coordinator.ViewerCount(msg.LivestreamID)
	tracing.AddSpanAttributes(ctx, tracing.ViewerCountKey.Int(count))

	return client.enqueue(map[string]interface{}{
		"type":          "joined",
		"livestream_id": msg.LivestreamID,
		"viewer_count":  count,
		"comments":      comments,
		"timestamp":     time.Now().Unix(),
	})
}

func (g *Gateway) handleLeave(ctx context.Context, client *Client, msg clientMessage) error {
	if msg.LivestreamID == "" {
		return apperrors.NewInvalidInputError("livestream_id is required")
	}

	if err := g.coordinator.Leave(ctx, msg.LivestreamID, client.identity); err != nil {
		return err
	}
	client.markLeft(msg.LivestreamID)

	return client.enqueue(map[string]interface{}{
		"type":          "left",
		"livestream_id": msg.LivestreamID,
	})
}

func (g *Gateway) handleSendComment(ctx context.Context, client *Client, msg clientMessage) error {
	if msg.LivestreamID == "" {
		return apperrors.NewInvalidInputError("livestream_id is required")
	}
	if err := validation.ValidateCommentContent(msg.Content, g.maxCommentLength); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if !g.limiter.Allow(string(client.identity)) {
		return apperrors.NewRateLimitError()
	}

	comment, err := g.coordinator.SendComment(ctx, ports.SendCommentRequest{
		LivestreamID: msg.LivestreamID,
		Author:       client.identity,
		Content:      msg.Content,
		ParentID:     msg.ParentID,
		DedupeToken:  msg.DedupeToken,
	})
	if err != nil {
		return err
	}
	tracing.AddSpanAttributes(ctx, tracing.CommentSeqKey.Int64(int64(comment.ID)))

	// The comment itself arrives through the room broadcast; the ack
	// carries the assigned sequence number for the sender.
	return client.enqueue(map[string]interface{}{
		"type":          "comment_ack",
		"livestream_id": msg.LivestreamID,
		"comment_id":    comment.ID,
		"dedupe_token":  msg.DedupeToken,
	})
}

func (g *Gateway) handleBackfill(client *Client, msg clientMessage) error {
	if msg.LivestreamID == "" {
		return apperrors.NewInvalidInputError("livestream_id is required")
	}

	comments := g.coordinator.ListCommentsSince(msg.LivestreamID, msg.AfterSeq, msg.Limit)

	return client.enqueue(map[string]interface{}{
		"type":          "backfill",
		"livestream_id": msg.LivestreamID,
		"after_seq":     msg.AfterSeq,
		"comments":      comments,
	})
}

func (g *Gateway) requireModerator(role string, fn func() error) error {
	if !services.CanModerate(role) {
		return apperrors.NewForbiddenError("moderator role required")
	}
	return fn()
}

func (g *Gateway) sendError(client *Client, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		appErr = apperrors.FromDomain(err)
	}

	client.enqueue(map[string]interface{}{
		"type":    "error",
		"code":    string(appErr.Code),
		"message": appErr.Message,
	})
}

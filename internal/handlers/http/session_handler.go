package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
	"livecast/internal/infrastructure/middleware"
	"livecast/pkg/cache"
	"livecast/pkg/errors"
	"livecast/pkg/validation"

	"github.com/gin-gonic/gin"
)

// summaryTTL bounds how stale the public summary endpoint may get.
const summaryTTL = 3 * time.Second

type SessionHandler struct {
	coordinator      ports.Coordinator
	summaryCache     *cache.Cache
	maxCommentLength int
}

func NewSessionHandler(coordinator ports.Coordinator, maxCommentLength int) *SessionHandler {
	return &SessionHandler{
		coordinator:      coordinator,
		summaryCache:     cache.New(summaryTTL),
		maxCommentLength: maxCommentLength,
	}
}

func (h *SessionHandler) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc, moderator gin.HandlerFunc, commentLimit gin.HandlerFunc) {
	api := router.Group("/api/v1")
	{
		// Public read side.
		api.GET("/livestreams/:id", h.GetLivestream)
		api.GET("/livestreams/:id/summary", h.GetSummary)
		api.GET("/livestreams/:id/comments", h.ListComments)

		// Comment send over plain HTTP, for clients without a socket.
		api.POST("/livestreams/:id/comments", auth, commentLimit, h.SendComment)

		// Host and moderator operations.
		mod := api.Group("", auth, moderator)
		{
			mod.POST("/livestreams", h.CreateLivestream)
			mod.POST("/livestreams/:id/start", h.StartLivestream)
			mod.POST("/livestreams/:id/end", h.EndLivestream)
			mod.POST("/livestreams/:id/cancel", h.CancelLivestream)
			mod.PUT("/livestreams/:id/chat", h.SetChatEnabled)
			mod.POST("/livestreams/:id/bans", h.BanUser)
			mod.DELETE("/livestreams/:id/bans/:identity", h.UnbanUser)
			mod.DELETE("/livestreams/:id/comments/:commentID", h.DeleteComment)
		}
	}
}

// Close releases the summary cache's background goroutine.
func (h *SessionHandler) Close() {
	h.summaryCache.Stop()
}

type CreateLivestreamRequest struct {
	ChannelID        string     `json:"channel_id" binding:"required,max=100"`
	Title            string     `json:"title" binding:"required,min=1,max=200"`
	ScheduleType     string     `json:"schedule_type" binding:"omitempty,oneof=continuous scheduled"`
	ScheduledStartAt *time.Time `json:"scheduled_start_at"`
	ScheduledEndAt   *time.Time `json:"scheduled_end_at"`
}

func (h *SessionHandler) CreateLivestream(c *gin.Context) {
	var req CreateLivestreamRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	stream := &domain.Livestream{
		ChannelID:        strings.TrimSpace(req.ChannelID),
		Title:            strings.TrimSpace(req.Title),
		ScheduleType:     domain.ScheduleType(req.ScheduleType),
		ScheduledStartAt: req.ScheduledStartAt,
		ScheduledEndAt:   req.ScheduledEndAt,
		IsChatEnabled:    true,
	}

	created, err := h.coordinator.CreateLivestream(c.Request.Context(), stream)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"livestream": created})
}

func (h *SessionHandler) GetLivestream(c *gin.Context) {
	id, ok := h.livestreamID(c)
	if !ok {
		return
	}

	stream, err := h.coordinator.GetLivestream(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"livestream": stream})
}

func (h *SessionHandler) StartLivestream(c *gin.Context) {
	h.transition(c, h.coordinator.Start)
}

func (h *SessionHandler) EndLivestream(c *gin.Context) {
	h.transition(c, h.coordinator.End)
}

func (h *SessionHandler) CancelLivestream(c *gin.Context) {
	h.transition(c, h.coordinator.Cancel)
}

func (h *SessionHandler) SetChatEnabled(c *gin.Context) {
	id, ok := h.livestreamID(c)
	if !ok {
		return
	}

	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if err := h.coordinator.SetChatEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated", "chat_enabled": *req.Enabled})
}

func (h *SessionHandler) BanUser(c *gin.Context) {
	id, ok := h.livestreamID(c)
	if !ok {
		return
	}
	moderator, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req struct {
		Target string `json:"target" binding:"required,max=100"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidateIdentity(req.Target); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	if err := h.coordinator.BanUser(c.Request.Context(), id, moderator, domain.Identity(req.Target)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "banned", "target": req.Target})
}

func (h *SessionHandler) UnbanUser(c *gin.Context) {
	id, ok := h.livestreamID(c)
	if !ok {
		return
	}
	moderator, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	target := c.Param("identity")
	if err := validation.ValidateIdentity(target); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	if err := h.coordinator.UnbanUser(c.Request.Context(), id, moderator, domain.Identity(target)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unbanned", "target": target})
}

func (h *SessionHandler) DeleteComment(c *gin.Context) {
	id, ok := h.livestreamID(c)
	if !ok {
		return
	}
	moderator, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	commentID, err := strconv.ParseInt(c.Param("commentID"), 10, 64)
	if err != nil || commentID <= 0 {
		c.Error(errors.NewInvalidInputError("invalid comment id"))
		return
	}

	if err := h.coordinator.DeleteComment(c.Request.Context(), id, moderator, domain.CommentID(commentID)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type SendCommentRequest struct {
	Content     string            `json:"content" binding:"required"`
	ParentID    *domain.CommentID `json:"parent_id"`
	DedupeToken string            `json:"dedupe_token" binding:"max=100"`
}

func (h *SessionHandler) SendComment(c *gin.Context) {
	id, ok := h.livestreamID(c)
	if !ok {
		return
	}
	author, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req SendCommentRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidateCommentContent(req.Content, h.maxCommentLength); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	comment, err := h.coordinator.SendComment(c.Request.Context(), ports.SendCommentRequest{
		LivestreamID: id,
		Author:       author,
		Content:      req.Content,
		ParentID:     req.ParentID,
		DedupeToken:  req.DedupeToken,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *SessionHandler) ListComments(c *gin.Context) {
	id, ok := h.livestreamID(c)
	if !ok {
		return
	}

	afterSeq, _ := strconv.ParseInt(c.DefaultQuery("after_seq", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	comments := h.coordinator.ListCommentsSince(id, domain.CommentID(afterSeq), limit)

	c.JSON(http.StatusOK, gin.H{
		"livestream_id": id,
		"after_seq":     afterSeq,
		"comments":      comments,
	})
}

// GetSummary serves the public livestream summary. Responses are
// cached briefly because this is the endpoint every channel page polls.
func (h *SessionHandler) GetSummary(c *gin.Context) {
	id, ok := h.livestreamID(c)
	if !ok {
		return
	}

	key := "summary:" + string(id)
	if cached, found := h.summaryCache.Get(key); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	stream, err := h.coordinator.GetLivestream(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	summary := gin.H{
		"livestream_id": stream.ID,
		"title":         stream.Title,
		"status":        stream.Status,
		"started_at":    stream.StartedAt,
		"chat_enabled":  stream.IsChatEnabled,
		"viewer_count":  h.coordinator.ViewerCount(id),
	}

	h.summaryCache.Set(key, summary)
	c.JSON(http.StatusOK, summary)
}

func (h *SessionHandler) transition(c *gin.Context, op func(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error)) {
	id, ok := h.livestreamID(c)
	if !ok {
		return
	}

	stream, err := op(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	// A transition invalidates whatever summary is cached.
	h.summaryCache.Delete("summary:" + string(id))

	c.JSON(http.StatusOK, gin.H{"livestream": stream})
}

func (h *SessionHandler) livestreamID(c *gin.Context) (domain.LivestreamID, bool) {
	id := c.Param("id")
	if err := validation.ValidateLivestreamID(id); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return "", false
	}
	return domain.LivestreamID(id), true
}

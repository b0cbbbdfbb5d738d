package domain

import "time"

// EventType identifies a pushed room event.
type EventType string

const (
	EventStatusChanged  EventType = "status-changed"
	EventCommentAdded   EventType = "comment-added"
	EventCommentDeleted EventType = "comment-deleted"
	EventViewerJoined   EventType = "viewer-joined"
	EventViewerKicked   EventType = "viewer-kicked"
)

// Event is what the broadcaster pushes to connected viewers. Exactly
// one of the optional payload fields is set, depending on Type.
type Event struct {
	Type         EventType        `json:"type"`
	LivestreamID LivestreamID     `json:"livestream_id"`
	Status       LivestreamStatus `json:"status,omitempty"`
	Comment      *Comment         `json:"comment,omitempty"`
	CommentID    CommentID        `json:"comment_id,omitempty"`
	Viewer       Identity         `json:"viewer,omitempty"`
	ViewerCount  int              `json:"viewer_count,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

func NewStatusChangedEvent(id LivestreamID, status LivestreamStatus) Event {
	return Event{
		Type:         EventStatusChanged,
		LivestreamID: id,
		Status:       status,
		Timestamp:    time.Now(),
	}
}

func NewCommentAddedEvent(comment *Comment) Event {
	return Event{
		Type:         EventCommentAdded,
		LivestreamID: comment.LivestreamID,
		Comment:      comment,
		Timestamp:    time.Now(),
	}
}

// NewCommentDeletedEvent carries only the id so clients can drop a
// cached comment without ever re-seeing its content.
func NewCommentDeletedEvent(id LivestreamID, commentID CommentID) Event {
	return Event{
		Type:         EventCommentDeleted,
		LivestreamID: id,
		CommentID:    commentID,
		Timestamp:    time.Now(),
	}
}

func NewViewerJoinedEvent(id LivestreamID, viewer Identity, count int) Event {
	return Event{
		Type:         EventViewerJoined,
		LivestreamID: id,
		Viewer:       viewer,
		ViewerCount:  count,
		Timestamp:    time.Now(),
	}
}

func NewViewerKickedEvent(id LivestreamID, viewer Identity) Event {
	return Event{
		Type:         EventViewerKicked,
		LivestreamID: id,
		Viewer:       viewer,
		Timestamp:    time.Now(),
	}
}

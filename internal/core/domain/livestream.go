package domain

import (
	"time"
)

type LivestreamID string
type Identity string
type CommentID int64

// LivestreamStatus is the lifecycle state of a livestream.
type LivestreamStatus string

const (
	StatusScheduled LivestreamStatus = "scheduled"
	StatusLive      LivestreamStatus = "live"
	StatusEnded     LivestreamStatus = "ended"
	StatusCanceled  LivestreamStatus = "canceled"
)

// ScheduleType distinguishes always-on channels from one-off scheduled events.
type ScheduleType string

const (
	ScheduleContinuous ScheduleType = "continuous"
	ScheduleScheduled  ScheduleType = "scheduled"
)

type Livestream struct {
	ID               LivestreamID     `json:"id"`
	ChannelID        string           `json:"channel_id"`
	Title            string           `json:"title"`
	Status           LivestreamStatus `json:"status"`
	ScheduleType     ScheduleType     `json:"schedule_type"`
	ScheduledStartAt *time.Time       `json:"scheduled_start_at,omitempty"`
	ScheduledEndAt   *time.Time       `json:"scheduled_end_at,omitempty"`
	StartedAt        *time.Time       `json:"started_at,omitempty"`
	EndedAt          *time.Time       `json:"ended_at,omitempty"`
	IsChatEnabled    bool             `json:"is_chat_enabled"`
	CreatedAt        time.Time        `json:"created_at"`
}

// IsTerminal reports whether no further status transitions are allowed.
func (s LivestreamStatus) IsTerminal() bool {
	return s == StatusEnded || s == StatusCanceled
}

// CanTransitionTo validates the lifecycle edges:
// scheduled -> live -> ended, scheduled -> canceled.
func (s LivestreamStatus) CanTransitionTo(next LivestreamStatus) bool {
	switch s {
	case StatusScheduled:
		return next == StatusLive || next == StatusCanceled
	case StatusLive:
		return next == StatusEnded
	default:
		return false
	}
}

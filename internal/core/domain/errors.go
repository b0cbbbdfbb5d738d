package domain

import "errors"

var (
	ErrLivestreamNotFound = errors.New("livestream not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotLive            = errors.New("livestream is not live")
	ErrForbidden          = errors.New("identity is banned from this livestream")
	ErrChatDisabled       = errors.New("chat is disabled for this livestream")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrEmptyContent       = errors.New("comment content is empty")
	ErrBusy               = errors.New("livestream is busy, retry later")
)

package domain

import "time"

// Comment is one chat message in a livestream. ID doubles as the
// per-livestream sequence number: strictly increasing, gap-free,
// never reused.
type Comment struct {
	ID           CommentID    `json:"id"`
	LivestreamID LivestreamID `json:"livestream_id"`
	Author       Identity     `json:"author"`
	Content      string       `json:"content"`
	ParentID     *CommentID   `json:"parent_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the comment has been tombstoned.
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// Redacted returns a copy safe to hand to clients: a tombstoned
// comment keeps its id and position but withholds the content.
func (c *Comment) Redacted() *Comment {
	if !c.IsDeleted() {
		return c
	}
	cp := *c
	cp.Content = ""
	return &cp
}

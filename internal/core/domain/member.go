package domain

import "time"

// Connection is the opaque delivery handle for one connected viewer.
// The concrete transport (websocket, test double) implements it; the
// coordinator and broadcaster never see past this interface.
type Connection interface {
	Send(event Event) error
}

// Member is one viewer's presence in a livestream room. A viewer holds
// at most one Member record per livestream.
type Member struct {
	LivestreamID LivestreamID
	Identity     Identity
	Connection   Connection
	JoinedAt     time.Time
}

// BanEntry blocks an identity from joining or commenting on one
// livestream until explicitly unbanned.
type BanEntry struct {
	LivestreamID LivestreamID `json:"livestream_id"`
	Identity     Identity     `json:"identity"`
	BannedBy     Identity     `json:"banned_by"`
	BannedAt     time.Time    `json:"banned_at"`
}

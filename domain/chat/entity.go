package chat

import "time"

// Message is a single relayed chat message. Messages are immutable once
// created and live only in their room's in-memory history.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomSnapshot is a read-only view of a room for the query surface.
type RoomSnapshot struct {
	ID           string    `json:"id"`
	UserCount    int       `json:"userCount"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is one connection's relay-side state: the display name resolved on
// first join and the room the connection currently belongs to (at most one).
type Session struct {
	ConnID   string `json:"conn_id"`
	Username string `json:"username"`
	RoomID   string `json:"room_id"`
}

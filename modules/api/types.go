package api

import (
	"encoding/json"
	"time"
)

// Inbound frame types accepted on the WebSocket.
const (
	frameJoinRoom    = "join_room"
	frameSendMessage = "send_message"
)

// InboundFrame is the wire envelope read from WebSocket clients.
type InboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload is the payload of a join_room frame. A legacy client may send
// a bare JSON string instead, which is treated as the room identifier.
type JoinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username,omitempty"`
}

// SendPayload is the payload of a send_message frame.
type SendPayload struct {
	Message string `json:"message"`
}

// RoomCountResponse reports the process-wide room count.
type RoomCountResponse struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// RoomSnapshotResponse is the read-only view of one room.
type RoomSnapshotResponse struct {
	UserCount    int       `json:"userCount"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryMessage is one stored message in a history response.
type HistoryMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse is the read-only view of a room's message history.
type HistoryResponse struct {
	RoomID   string           `json:"roomId"`
	Messages []HistoryMessage `json:"messages"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// Package events declares the outbound relay events carried over the
// application event bus. Every event names its delivery target: a single
// connection, a whole room, or a room minus one connection.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// Activity kinds for RoomActivityEvent.
const (
	ActivityJoin  = "join"
	ActivityLeave = "leave"
)

// MessageReceivedEvent is emitted when a message is accepted into a room's
// history. Delivered to every member of the room, including the sender.
type MessageReceivedEvent struct {
	RoomID    string    `json:"room_id"`
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserJoinedEvent confirms a join to the joining connection only.
type UserJoinedEvent struct {
	RoomID    string    `json:"room_id"`
	ConnID    string    `json:"conn_id"`
	Username  string    `json:"username"`
	UserCount int       `json:"user_count"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomActivityEvent announces a join or leave to a room, excluding the
// connection the activity is about.
type RoomActivityEvent struct {
	RoomID    string    `json:"room_id"`
	ConnID    string    `json:"conn_id"`
	Kind      string    `json:"kind"` // "join" or "leave"
	Notice    string    `json:"notice"`
	UserCount int       `json:"user_count"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the relay domain.
var (
	MessageReceivedV1 = helper.EventDefinition[MessageReceivedEvent](
		"relay",
		"MessageReceived",
		"v1",
	)

	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"relay",
		"UserJoined",
		"v1",
	)

	RoomActivityV1 = helper.EventDefinition[RoomActivityEvent](
		"relay",
		"RoomActivity",
		"v1",
	)
)

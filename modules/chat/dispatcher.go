package chat

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/events"
	"github.com/example/chat-relay/metrics"
)

// EventSink receives the dispatcher's outbound events. The production sink
// publishes them on the application event bus; tests substitute a recorder.
type EventSink interface {
	MessageReceived(events.MessageReceivedEvent)
	UserJoined(events.UserJoinedEvent)
	RoomActivity(events.RoomActivityEvent)
}

// ReapScheduler schedules deferred deletion of a room that became empty.
type ReapScheduler interface {
	Schedule(roomID string)
}

// JoinResult reports the outcome of a join for transport bookkeeping. The
// client-facing confirmation travels separately as a UserJoined event.
type JoinResult struct {
	ConnID    string
	RoomID    string
	Username  string
	UserCount int
	Created   bool
}

// Dispatcher drives the per-connection protocol state machine: join_room,
// send_message and disconnect. Invalid input degrades to a no-op; nothing
// here surfaces an error to the client.
type Dispatcher struct {
	registry *Registry
	sessions *sessionTable
	sink     EventSink
	reaper   ReapScheduler
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, sink EventSink, reaper ReapScheduler) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		sessions: newSessionTable(),
		sink:     sink,
		reaper:   reaper,
		logger:   slog.Default(),
	}
}

// Join places a connection in a room, creating the room on first use. A
// connection already in a different room leaves it silently first: the old
// room's remaining members get no activity notice. Rejoining the current
// room re-runs the sequence; the membership set absorbs the duplicate add.
func (d *Dispatcher) Join(connID, roomID, customUsername string) JoinResult {
	username := resolveDisplayName(customUsername)

	if prev, ok := d.sessions.get(connID); ok && prev.RoomID != roomID {
		if count, exists := d.registry.Leave(prev.RoomID, connID); exists && count == 0 {
			d.reaper.Schedule(prev.RoomID)
		}
	}

	created, count := d.registry.Join(roomID, connID)
	d.sessions.put(domain.Session{
		ConnID:   connID,
		Username: username,
		RoomID:   roomID,
	})

	if created {
		metrics.RoomsCreated.Inc()
		d.logger.Info("Room created", "roomID", roomID)
	}

	now := time.Now()
	d.sink.UserJoined(events.UserJoinedEvent{
		RoomID:    roomID,
		ConnID:    connID,
		Username:  username,
		UserCount: count,
		Timestamp: now,
	})
	d.sink.RoomActivity(events.RoomActivityEvent{
		RoomID:    roomID,
		ConnID:    connID,
		Kind:      events.ActivityJoin,
		Notice:    fmt.Sprintf("%s joined the chat", username),
		UserCount: count,
		Timestamp: now,
	})

	d.logger.Info("User joined room", "connID", connID, "roomID", roomID, "username", username)
	return JoinResult{
		ConnID:    connID,
		RoomID:    roomID,
		Username:  username,
		UserCount: count,
		Created:   created,
	}
}

// Send appends a message to the sender's current room and fans it out to
// every member, sender included. Whitespace-only text, connections outside
// any room and rooms that vanished under a race are all silently ignored.
func (d *Dispatcher) Send(connID, text string) {
	content := strings.TrimSpace(text)
	if content == "" {
		return
	}

	// A session always carries the room it joined; the empty string is a
	// legal room identifier, not an unset marker.
	sess, ok := d.sessions.get(connID)
	if !ok {
		return
	}

	msg := domain.Message{
		ID:        uuid.New().String(),
		RoomID:    sess.RoomID,
		SenderID:  connID,
		Sender:    sess.Username,
		Content:   content,
		Timestamp: time.Now(),
	}
	if !d.registry.Append(msg) {
		// Deletion only happens to empty rooms, so an active sender should
		// never hit this; guard anyway rather than resurrect the room.
		return
	}

	metrics.MessagesRelayed.Inc()
	d.sink.MessageReceived(events.MessageReceivedEvent{
		RoomID:    msg.RoomID,
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Sender:    msg.Sender,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	})
}

// Disconnect tears down a connection's session. If it was in a room the
// remaining members get a leave notice, and a room left empty is handed to
// the reaper.
func (d *Dispatcher) Disconnect(connID string) {
	sess, ok := d.sessions.remove(connID)
	if !ok {
		return
	}

	count, exists := d.registry.Leave(sess.RoomID, connID)
	if !exists {
		return
	}

	d.sink.RoomActivity(events.RoomActivityEvent{
		RoomID:    sess.RoomID,
		ConnID:    connID,
		Kind:      events.ActivityLeave,
		Notice:    fmt.Sprintf("%s left the chat", sess.Username),
		UserCount: count,
		Timestamp: time.Now(),
	})

	if count == 0 {
		d.reaper.Schedule(sess.RoomID)
	}

	d.logger.Info("User disconnected", "connID", connID, "roomID", sess.RoomID)
}

// Session returns a connection's current session state.
func (d *Dispatcher) Session(connID string) (domain.Session, bool) {
	return d.sessions.get(connID)
}

// SessionCount returns the number of live sessions.
func (d *Dispatcher) SessionCount() int {
	return d.sessions.size()
}

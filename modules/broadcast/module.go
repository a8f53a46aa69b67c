package broadcast

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/chat-relay/events"
)

// Outbound frame types written to WebSocket clients.
const (
	FrameUserJoined     = "user_joined"
	FrameUserActivity   = "user_activity"
	FrameReceiveMessage = "receive_message"
)

// BroadcastModule consumes relay events and delivers them over the hub to
// the connections each event targets.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageReceivedV1, m.handleMessageReceived, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageReceived consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomActivityV1, m.handleRoomActivity, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomActivity consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: MessageReceived, UserJoined, RoomActivity")
	return nil
}

// Event handlers

// handleMessageReceived fans a message out to the whole room, sender
// included.
func (m *BroadcastModule) handleMessageReceived(_ context.Context, event events.MessageReceivedEvent, _ *mono.Msg) error {
	m.hub.BroadcastRoom(event.RoomID, "", Frame{
		Type: FrameReceiveMessage,
		Payload: MessagePayload{
			ID:        event.MessageID,
			Sender:    event.Sender,
			Message:   event.Content,
			Timestamp: event.Timestamp,
		},
	})
	return nil
}

// handleUserJoined confirms a join to the joining connection only.
func (m *BroadcastModule) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.hub.SendToClient(event.ConnID, Frame{
		Type: FrameUserJoined,
		Payload: JoinedPayload{
			Username:  event.Username,
			UserCount: event.UserCount,
		},
	})
	return nil
}

// handleRoomActivity notifies a room about a join or leave, excluding the
// connection the activity is about.
func (m *BroadcastModule) handleRoomActivity(_ context.Context, event events.RoomActivityEvent, _ *mono.Msg) error {
	m.hub.BroadcastRoom(event.RoomID, event.ConnID, Frame{
		Type: FrameUserActivity,
		Payload: ActivityPayload{
			Type:      event.Kind,
			Message:   event.Notice,
			UserCount: event.UserCount,
		},
	})
	return nil
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}

// MessagePayload is the client-facing payload of a receive_message frame.
type MessagePayload struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// JoinedPayload is the client-facing payload of a user_joined frame.
type JoinedPayload struct {
	Username  string `json:"username"`
	UserCount int    `json:"userCount"`
}

// ActivityPayload is the client-facing payload of a user_activity frame.
type ActivityPayload struct {
	Type      string `json:"type"` // "join" or "leave"
	Message   string `json:"message"`
	UserCount int    `json:"userCount"`
}

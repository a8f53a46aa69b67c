package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"

	"github.com/example/chat-relay/events"
)

// Module wires the relay core into the application: it owns the registry,
// the dispatcher and the reaper, and publishes the dispatcher's outbound
// events on the EventBus for the broadcast module to deliver.
type Module struct {
	registry   *Registry
	dispatcher *Dispatcher
	reaper     *Reaper
	eventBus   mono.EventBus
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ EventSink                  = (*Module)(nil)
)

// NewModule creates the chat module. reapDelay is the grace period before an
// empty room is deleted.
func NewModule(reapDelay time.Duration) *Module {
	m := &Module{
		registry: NewRegistry(maxHistorySize),
	}
	m.reaper = NewReaper(m.registry, reapDelay)
	m.dispatcher = NewDispatcher(m.registry, m, m.reaper)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageReceivedV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.RoomActivityV1.ToBase(),
	}
}

// Start brings the module up. Rooms are created lazily on first join, so
// there is nothing to seed.
func (m *Module) Start(_ context.Context) error {
	slog.Info("Chat module started", "reapDelay", m.reaper.delay)
	return nil
}

// Stop shuts the module down. Pending reap timers are left to the process
// exit; all state is ephemeral anyway.
func (m *Module) Stop(_ context.Context) error {
	slog.Info("Chat module stopped", "rooms", m.registry.Size())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms":    m.registry.Size(),
			"sessions": m.dispatcher.SessionCount(),
		},
	}
}

// Dispatcher returns the event dispatcher for the transport layer.
func (m *Module) Dispatcher() *Dispatcher {
	return m.dispatcher
}

// Registry returns the room registry for the query surface.
func (m *Module) Registry() *Registry {
	return m.registry
}

// EventSink implementation: outbound events go onto the bus. A failed
// publish drops the event; delivery is at-most-once by design.

// MessageReceived publishes a whole-room message broadcast.
func (m *Module) MessageReceived(ev events.MessageReceivedEvent) {
	if err := events.MessageReceivedV1.Publish(m.eventBus, ev, nil); err != nil {
		slog.Warn("Failed to publish MessageReceived event", "error", err)
	}
}

// UserJoined publishes a join confirmation for a single connection.
func (m *Module) UserJoined(ev events.UserJoinedEvent) {
	if err := events.UserJoinedV1.Publish(m.eventBus, ev, nil); err != nil {
		slog.Warn("Failed to publish UserJoined event", "error", err)
	}
}

// RoomActivity publishes a join/leave notice for a room, excluding the
// connection it is about.
func (m *Module) RoomActivity(ev events.RoomActivityEvent) {
	if err := events.RoomActivityV1.Publish(m.eventBus, ev, nil); err != nil {
		slog.Warn("Failed to publish RoomActivity event", "error", err)
	}
}

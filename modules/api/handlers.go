package api

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/chat-relay/metrics"
	"github.com/example/chat-relay/modules/broadcast"
)

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"rooms":             m.chatModule.Registry().Size(),
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// roomCount handles GET /api/v1/rooms.
func (m *APIModule) roomCount(c *fiber.Ctx) error {
	return c.JSON(RoomCountResponse{
		Rooms:       m.chatModule.Registry().Size(),
		Connections: m.hub.ClientCount(),
	})
}

// roomSnapshot handles GET /api/v1/rooms/:id.
func (m *APIModule) roomSnapshot(c *fiber.Ctx) error {
	snap, ok := m.chatModule.Registry().Snapshot(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}

	return c.JSON(RoomSnapshotResponse{
		UserCount:    snap.UserCount,
		MessageCount: snap.MessageCount,
		CreatedAt:    snap.CreatedAt,
	})
}

// roomHistory handles GET /api/v1/rooms/:id/history.
func (m *APIModule) roomHistory(c *fiber.Ctx) error {
	roomID := c.Params("id")
	messages, ok := m.chatModule.Registry().History(roomID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}

	response := HistoryResponse{
		RoomID:   roomID,
		Messages: make([]HistoryMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		response.Messages = append(response.Messages, HistoryMessage{
			ID:        msg.ID,
			Sender:    msg.Sender,
			Message:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return c.JSON(response)
}

// handleWebSocket runs one connection's read loop. Each connection gets a
// stable id for its lifetime; the dispatcher sees disconnect exactly once,
// however the loop exits.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	client := &broadcast.Client{ID: connID, Conn: c}
	logger := slog.Default()

	m.hub.Register(client)
	metrics.ConnectionsActive.Inc()

	defer func() {
		m.chatModule.Dispatcher().Disconnect(connID)
		m.hub.Unregister(client)
		metrics.ConnectionsActive.Dec()
		c.Close()
		logger.Info("WebSocket disconnected", "connID", connID)
	}()

	logger.Info("WebSocket connected", "connID", connID)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Error("WebSocket error", "connID", connID, "error", err)
			}
			break
		}

		var frame InboundFrame
		if err := json.Unmarshal(msgBytes, &frame); err != nil {
			// Out-of-protocol input is dropped, not answered.
			logger.Debug("Dropping malformed frame", "connID", connID)
			continue
		}

		m.handleFrame(connID, frame)
	}
}

// handleFrame routes one inbound frame to the dispatcher.
func (m *APIModule) handleFrame(connID string, frame InboundFrame) {
	switch frame.Type {
	case frameJoinRoom:
		payload := decodeJoinPayload(frame.Payload)
		res := m.chatModule.Dispatcher().Join(connID, payload.RoomID, payload.Username)
		m.hub.JoinRoom(connID, res.RoomID)
	case frameSendMessage:
		var payload SendPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return
		}
		m.chatModule.Dispatcher().Send(connID, payload.Message)
	default:
		slog.Debug("Dropping unknown frame type", "connID", connID, "type", frame.Type)
	}
}

// decodeJoinPayload accepts both the current object form and the legacy
// bare-string form, where the string is the room identifier. Anything else
// degrades to an empty payload, which joins the empty-named room.
func decodeJoinPayload(raw json.RawMessage) JoinPayload {
	var payload JoinPayload
	if err := json.Unmarshal(raw, &payload); err == nil {
		return payload
	}

	var roomID string
	if err := json.Unmarshal(raw, &roomID); err == nil {
		return JoinPayload{RoomID: roomID}
	}
	return JoinPayload{}
}

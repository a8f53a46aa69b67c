package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Client represents a connected WebSocket client.
type Client struct {
	ID   string
	Conn *websocket.Conn
}

// Frame is the wire envelope written to WebSocket clients.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// delivery is one queued outbound write. toRoom selects room fan-out
// (minus excludeID) over a single-target send; the distinction matters
// because the empty string is a legal room identifier.
type delivery struct {
	toRoom    bool
	roomID    string
	excludeID string
	targetID  string
	frame     Frame
}

// Hub tracks live WebSocket connections and delivers targeted frames:
// to one connection, to a whole room, or to a room minus one connection.
// Room membership here mirrors the relay core's view and exists only so
// the hub knows which sockets a room-scoped frame maps to.
type Hub struct {
	clients    map[string]*Client
	members    map[string]string          // clientID -> roomID, present only while in a room
	rooms      map[string]map[string]bool // roomID -> set of clientIDs
	register   chan *Client
	unregister chan *Client
	deliveries chan delivery
	done       chan struct{}
	mu         sync.RWMutex

	// send writes a frame to one client; replaceable in tests.
	send func(*Client, []byte)
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		members:    make(map[string]string),
		rooms:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
	}
	h.send = h.writeToConn
	return h
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case d := <-h.deliveries:
			h.handleDelivery(d)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.members = make(map[string]string)
	h.rooms = make(map[string]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("[hub] Client %s registered", client.ID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	h.dropMembershipLocked(client.ID)
	log.Printf("[hub] Client %s unregistered", client.ID)
}

func (h *Hub) dropMembershipLocked(clientID string) {
	roomID, ok := h.members[clientID]
	if !ok {
		return
	}
	delete(h.members, clientID)
	if h.rooms[roomID] != nil {
		delete(h.rooms[roomID], clientID)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) handleDelivery(d delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(d.frame)
	if err != nil {
		log.Printf("[hub] Failed to marshal frame: %v", err)
		return
	}

	if !d.toRoom {
		if client, ok := h.clients[d.targetID]; ok {
			h.send(client, data)
		}
		return
	}

	for clientID := range h.rooms[d.roomID] {
		if clientID == d.excludeID {
			continue
		}
		if client, ok := h.clients[clientID]; ok {
			h.send(client, data)
		}
	}
}

func (h *Hub) writeToConn(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToClient queues a frame for one connection.
func (h *Hub) SendToClient(clientID string, frame Frame) {
	h.deliveries <- delivery{targetID: clientID, frame: frame}
}

// BroadcastRoom queues a frame for every member of a room. excludeID may
// name one connection to skip; pass "" to include everyone.
func (h *Hub) BroadcastRoom(roomID, excludeID string, frame Frame) {
	h.deliveries <- delivery{toRoom: true, roomID: roomID, excludeID: excludeID, frame: frame}
}

// JoinRoom moves a client into a room, leaving any previous one.
func (h *Hub) JoinRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; !ok {
		return
	}

	h.dropMembershipLocked(clientID)

	h.members[clientID] = roomID
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][clientID] = true
	log.Printf("[hub] Client %s joined room %q", clientID, roomID)
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[roomID]; ok {
		return len(clients)
	}
	return 0
}

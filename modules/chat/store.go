package chat

import (
	"sync"
	"time"

	domain "github.com/example/chat-relay/domain/chat"
)

// maxHistorySize is the maximum number of messages kept per room.
const maxHistorySize = 100

// room holds one room's mutable state. Its mutex makes membership and
// history mutations atomic without blocking other rooms.
type room struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	members   map[string]struct{}
	messages  []domain.Message
}

func newRoom(id string) *room {
	return &room{
		id:        id,
		createdAt: time.Now(),
		members:   make(map[string]struct{}),
	}
}

func (r *room) addMember(connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[connID] = struct{}{}
	return len(r.members)
}

func (r *room) removeMember(connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, connID)
	return len(r.members)
}

func (r *room) appendMessage(msg domain.Message, maxHistory int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	if len(r.messages) > maxHistory {
		r.messages = r.messages[len(r.messages)-maxHistory:]
	}
}

func (r *room) snapshot() domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.RoomSnapshot{
		ID:           r.id,
		UserCount:    len(r.members),
		MessageCount: len(r.messages),
		CreatedAt:    r.createdAt,
	}
}

func (r *room) history() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Registry is the concurrent room store. Rooms are created lazily on first
// join and removed by the reaper once empty.
//
// Membership and history operations hold the registry read lock for the full
// critical section, so DeleteIfEmpty (which takes the write lock) can never
// interleave between a room lookup and the mutation that follows it. Room
// identifiers are opaque; the empty string is a valid, if degenerate, key.
type Registry struct {
	mu         sync.RWMutex
	rooms      map[string]*room
	maxHistory int
}

// NewRegistry creates an empty registry. maxHistory bounds each room's
// message history; values <= 0 fall back to the default of 100.
func NewRegistry(maxHistory int) *Registry {
	if maxHistory <= 0 {
		maxHistory = maxHistorySize
	}
	return &Registry{
		rooms:      make(map[string]*room),
		maxHistory: maxHistory,
	}
}

// Join adds a connection to a room, creating the room if it does not exist.
// It reports whether the room was created and the membership count after the
// add. Adding an existing member is absorbed by the set.
func (s *Registry) Join(roomID, connID string) (created bool, count int) {
	s.mu.RLock()
	if r, ok := s.rooms[roomID]; ok {
		count = r.addMember(connID)
		s.mu.RUnlock()
		return false, count
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		r = newRoom(roomID)
		s.rooms[roomID] = r
		created = true
	}
	return created, r.addMember(connID)
}

// Leave removes a connection from a room. It reports the membership count
// after the removal; ok is false if the room does not exist.
func (s *Registry) Leave(roomID, connID string) (count int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, exists := s.rooms[roomID]
	if !exists {
		return 0, false
	}
	return r.removeMember(connID), true
}

// Append stores a message in its room's history, evicting the oldest entry
// once the history exceeds the configured bound. It reports false if the
// room does not exist.
func (s *Registry) Append(msg domain.Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[msg.RoomID]
	if !ok {
		return false
	}
	r.appendMessage(msg, s.maxHistory)
	return true
}

// DeleteIfEmpty removes a room only if its membership is still zero. The
// write lock excludes all membership operations, so a concurrent join cannot
// slip in between the emptiness check and the delete.
func (s *Registry) DeleteIfEmpty(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	r.mu.Lock()
	empty := len(r.members) == 0
	r.mu.Unlock()
	if !empty {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

// Delete removes a room unconditionally. Absent keys are a no-op.
func (s *Registry) Delete(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}

// Size returns the number of tracked rooms.
func (s *Registry) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Snapshot returns a read-only view of a room for the query surface.
func (s *Registry) Snapshot(roomID string) (domain.RoomSnapshot, bool) {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return domain.RoomSnapshot{}, false
	}
	return r.snapshot(), true
}

// History returns a copy of a room's message history, oldest first.
func (s *Registry) History(roomID string) ([]domain.Message, bool) {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.history(), true
}

package chat

import (
	"sync"

	domain "github.com/example/chat-relay/domain/chat"
)

// sessionTable tracks per-connection state. A connection belongs to at most
// one room; the transport layer guarantees connection ids are stable and
// unique for the connection's lifetime.
type sessionTable struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func newSessionTable() *sessionTable {
	return &sessionTable{
		sessions: make(map[string]domain.Session),
	}
}

func (t *sessionTable) get(connID string) (domain.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sess, ok := t.sessions[connID]
	return sess, ok
}

func (t *sessionTable) put(sess domain.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sess.ConnID] = sess
}

// remove deletes a session and returns its last value.
func (t *sessionTable) remove(connID string) (domain.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[connID]
	if ok {
		delete(t.sessions, connID)
	}
	return sess, ok
}

func (t *sessionTable) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

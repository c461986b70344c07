package ws

import (
	"sync"

	"chatcore/internal/domain"
	"chatcore/internal/presence"
)

// Hub tracks every open connection and the broadcast-group membership table:
// which connections subscribed to which conversation.
//
// All reads hand out snapshots; no socket write ever happens while the hub
// lock is held.
type Hub struct {
	mu      sync.RWMutex
	clients map[presence.Conn]struct{}
	groups  map[domain.ConversationID]map[presence.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[presence.Conn]struct{}),
		groups:  make(map[domain.ConversationID]map[presence.Conn]struct{}),
	}
}

// Register adds a freshly upgraded connection.
func (h *Hub) Register(c presence.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister drops the connection and every group membership it holds.
func (h *Hub) Unregister(c presence.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	for id, members := range h.groups {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, id)
		}
	}
}

// Join subscribes the connection to a conversation's broadcast group.
// Joining is repeatable and allowed whether or not the session is bound.
func (h *Hub) Join(c presence.Conn, id domain.ConversationID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[id] == nil {
		h.groups[id] = make(map[presence.Conn]struct{})
	}
	h.groups[id][c] = struct{}{}
}

// Members returns a snapshot of the connections subscribed to the
// conversation.
func (h *Hub) Members(id domain.ConversationID) []presence.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]presence.Conn, 0, len(h.groups[id]))
	for c := range h.groups[id] {
		members = append(members, c)
	}
	return members
}

// BroadcastAll delivers the payload to every open connection, not just a
// conversation's group. Global fan-out on each presence change is O(conns)
// per event: a known ceiling at chat-feature scale.
func (h *Hub) BroadcastAll(payload any) {
	h.mu.RLock()
	conns := make([]presence.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Deliver(payload)
	}
}

type closer interface{ Close() }

// CloseAll closes every connection; used on shutdown after the HTTP listener
// stopped accepting.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]presence.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if cl, ok := c.(closer); ok {
			cl.Close()
		}
	}
}

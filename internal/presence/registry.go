// Package presence tracks which users currently have a live connection.
//
// The registry is scoped to the process lifetime: it starts empty, is rebuilt
// empty on restart, and is never persisted. That is acceptable because it
// only ever reflects live sockets.
package presence

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Conn is the connection handle the registry holds for each online user.
// Deliver reports false when the peer is gone; dead handles must fail
// silently, never crash a caller.
type Conn interface {
	Deliver(payload any) bool
}

// Registry maps a user id to its single active connection. A user connecting
// from a second device replaces the mapping for the first: last connect wins.
//
// All mutations are serialized under one mutex. Methods return snapshots so
// callers never write to sockets while the lock is held.
type Registry struct {
	mu     sync.Mutex
	byUser map[string]Conn
	byConn map[Conn]string
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]Conn),
		byConn: make(map[Conn]string),
	}
}

// Announce records conn as the active connection for userID, superseding any
// prior handle for that user. It returns the updated online-user snapshot;
// the caller broadcasts it to every connection.
func (r *Registry) Announce(userID string, conn Conn) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[userID]; ok && prev != conn {
		delete(r.byConn, prev)
	}
	r.byUser[userID] = conn
	r.byConn[conn] = userID

	return r.onlineLocked()
}

// Withdraw removes the mapping owned by conn, if it still owns one. When the
// departing connection was already superseded by a newer Announce for the
// same user, the newer mapping is left untouched and changed is false: an old
// socket closing after a reconnect must not knock the user offline.
func (r *Registry) Withdraw(conn Conn) (userID string, online []string, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[conn]
	if !ok {
		return "", nil, false
	}
	delete(r.byConn, conn)
	if r.byUser[userID] == conn {
		delete(r.byUser, userID)
	}
	return userID, r.onlineLocked(), true
}

// Lookup returns the active connection for userID, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.byUser[userID]
	return conn, ok
}

// Online returns a sorted snapshot of the user ids currently connected.
func (r *Registry) Online() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onlineLocked()
}

func (r *Registry) onlineLocked() []string {
	online := lo.Keys(r.byUser)
	sort.Strings(online)
	return online
}

// internal/handlers/broadcast.go
package handlers

import (
	"sync"

	"github.com/jason-s-yu/kingscup/internal/game"
)

// broadcastGroups tracks which connections are subscribed to which session.
// Callers may hold a session lock while calling in; the groups lock never waits on a session.
type broadcastGroups struct {
	mu     sync.Mutex
	groups map[string]map[*clientConn]struct{}
}

func newBroadcastGroups() *broadcastGroups {
	return &broadcastGroups{
		groups: make(map[string]map[*clientConn]struct{}),
	}
}

func (b *broadcastGroups) subscribe(sessionID string, c *clientConn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.groups[sessionID]
	if !ok {
		members = make(map[*clientConn]struct{})
		b.groups[sessionID] = members
	}
	members[c] = struct{}{}
}

func (b *broadcastGroups) unsubscribe(sessionID string, c *clientConn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.groups[sessionID]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(b.groups, sessionID)
	}
}

// drop forgets a whole group, used when its session is torn down.
func (b *broadcastGroups) drop(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.groups, sessionID)
}

// broadcast queues ev on every member of the group.
func (b *broadcastGroups) broadcast(sessionID string, ev game.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.groups[sessionID] {
		c.Write(ev)
	}
}

func (b *broadcastGroups) size(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.groups[sessionID])
}

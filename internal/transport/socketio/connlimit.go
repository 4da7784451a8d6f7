package socketio

import (
	"net"
	"sync"
)

// ConnectionLimiter caps concurrent non-localhost connections. Local
// clients are always admitted. When an external client would exceed
// the cap, the oldest external client is evicted to make room.
type ConnectionLimiter struct {
	mu          sync.Mutex
	maxExternal int
	order       []connEntry     // admission order, external clients only
	known       map[string]bool // clientID -> isExternal
}

type connEntry struct {
	id string
}

// NewConnectionLimiter creates a limiter admitting up to maxExternal
// concurrent non-localhost clients.
func NewConnectionLimiter(maxExternal int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxExternal: maxExternal,
		known:       make(map[string]bool),
	}
}

// TryAdd registers a connection. It always admits, but may return the
// ID of an older external client that must be disconnected to stay
// under the cap.
func (cl *ConnectionLimiter) TryAdd(clientID, remoteIP string) (allowed bool, evictedID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, seen := cl.known[clientID]; seen {
		return true, ""
	}

	external := !isLoopback(remoteIP)
	cl.known[clientID] = external
	if !external {
		return true, ""
	}

	cl.order = append(cl.order, connEntry{id: clientID})
	if len(cl.order) <= cl.maxExternal {
		return true, ""
	}

	evictedID = cl.order[0].id
	cl.order = cl.order[1:]
	delete(cl.known, evictedID)
	return true, evictedID
}

// Remove unregisters a disconnected client.
func (cl *ConnectionLimiter) Remove(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	external, seen := cl.known[clientID]
	if !seen {
		return
	}
	delete(cl.known, clientID)
	if !external {
		return
	}
	for i, e := range cl.order {
		if e.id == clientID {
			cl.order = append(cl.order[:i], cl.order[i+1:]...)
			return
		}
	}
}

// ExternalCount reports how many external clients are tracked.
func (cl *ConnectionLimiter) ExternalCount() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.order)
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

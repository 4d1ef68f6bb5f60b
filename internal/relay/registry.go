package relay

import "sync"

// Registry is the table of live authenticated connections and their room
// memberships. All mutation goes through its mutex; socket handler
// goroutines and the relay dispatch loop touch it concurrently.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register adds a connection. Called once per successful authenticated
// handshake.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

// Unregister removes a connection and closes its send channel. Safe to
// call twice: a client already dropped by Broadcast is skipped.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ID]; !ok {
		return
	}
	delete(r.clients, c.ID)
	close(c.send)
}

// JoinRoom adds roomId to the connection's membership set. Idempotent:
// joining twice leaves a single membership.
func (r *Registry) JoinRoom(c *Client, roomID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.rooms[roomID] = struct{}{}
}

// LeaveRoom removes roomId from the connection's membership set.
func (r *Registry) LeaveRoom(c *Client, roomID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(c.rooms, roomID)
}

// InRoom reports whether the connection currently has the room joined.
func (r *Registry) InRoom(c *Client, roomID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := c.rooms[roomID]
	return ok
}

// Broadcast delivers msg to every registered connection whose room set
// contains roomID, including the sender, excluding any connections in
// exclude. Sends never block: a client whose buffer is full is dropped so
// one slow consumer cannot stall the room.
func (r *Registry) Broadcast(roomID int64, msg []byte, exclude ...*Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		if _, ok := c.rooms[roomID]; !ok {
			continue
		}
		if excluded(c, exclude) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(r.clients, id)
		}
	}
}

func excluded(c *Client, exclude []*Client) bool {
	for _, e := range exclude {
		if e == c {
			return true
		}
	}
	return false
}

// ClientCount returns the number of registered connections.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

package reload

import (
	"sync"
)

// Conn is the part of a WebSocket connection the registry needs. Closing the
// connection is the reload signal understood by the injected client script.
type Conn interface {
	Close() error
}

// Registry is the mutex-guarded set of open reload connections. The accept
// loop inserts, the refresh consumer drains; no per-connection identity is
// tracked beyond membership.
type Registry struct {
	mu    sync.Mutex
	conns map[Conn]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[Conn]struct{}),
	}
}

// Add inserts a freshly accepted connection.
func (r *Registry) Add(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = struct{}{}
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// DrainAndClose atomically removes every registered connection, then closes
// them. Removal happens under the lock in one step, so a connection accepted
// mid-drain is neither lost nor double-closed. Returns the number of
// connections that were closed.
func (r *Registry) DrainAndClose() int {
	r.mu.Lock()
	drained := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		drained = append(drained, c)
	}
	r.conns = make(map[Conn]struct{})
	r.mu.Unlock()

	for _, c := range drained {
		_ = c.Close()
	}
	return len(drained)
}

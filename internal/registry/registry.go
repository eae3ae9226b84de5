// Package registry tracks the connections that are currently live on the
// relay, keyed by the identifier the transport assigned at connect time.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrDuplicateConnection is returned when an id is registered twice.
	ErrDuplicateConnection = errors.New("duplicate connection")
	// ErrEmptyID is returned when registering an empty identifier.
	ErrEmptyID = errors.New("empty connection id")
)

// Connection is a live, addressable endpoint known to the registry.
type Connection struct {
	ID        string
	CreatedAt time.Time
}

// Registry maps connection ids to their Connection. It is safe for
// concurrent use.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]Connection
	clock       clockwork.Clock
}

// New creates an empty Registry. A nil clock falls back to the real clock.
func New(clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		connections: make(map[string]Connection),
		clock:       clock,
	}
}

// Register adds id to the registry. If id is already present the existing
// entry is kept and an error wrapping ErrDuplicateConnection is returned.
func (r *Registry) Register(id string) error {
	if id == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[id]; exists {
		return fmt.Errorf("register %q: %w", id, ErrDuplicateConnection)
	}
	r.connections[id] = Connection{ID: id, CreatedAt: r.clock.Now()}
	return nil
}

// Unregister removes id and reports whether it was present. Removing an
// unknown id is a no-op so duplicate disconnect notifications are harmless.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[id]; !exists {
		return false
	}
	delete(r.connections, id)
	return true
}

// List returns a snapshot of the registered ids in arbitrary order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.connections))
	for id := range r.connections {
		ids = append(ids, id)
	}
	return ids
}

// Get returns the Connection registered under id.
func (r *Registry) Get(id string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[id]
	return conn, ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

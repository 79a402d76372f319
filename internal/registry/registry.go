package registry

import (
	"log/slog"
	"sync"
)

// Conn is the transport surface the registry and router need from a
// live connection.
type Conn interface {
	// Send queues data for delivery. It must not block; a full queue or
	// closed connection returns an error.
	Send(data []byte) error

	// IsOpen reports whether the underlying transport is still open.
	IsOpen() bool

	// Close tears down the transport. Idempotent.
	Close() error
}

// Entry pairs a live connection with the token that authenticated it.
type Entry struct {
	Token string
	Conn  Conn
}

// Registry is a thread-safe token → connection map.
//
// The internal lock is held only for the duration of each individual
// operation, never across a delivery pass; routers iterate over
// Snapshot copies.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Conn
	logger  *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]Conn),
		logger:  logger,
	}
}

// Register inserts or replaces the entry for token. Overwriting is
// silent; the displaced connection, if any, is closed so its pumps do
// not linger. Tokens are reissued per login, so a same-token reconnect
// superseding the old socket is expected behavior.
func (r *Registry) Register(token string, conn Conn) {
	r.mu.Lock()
	prior, replaced := r.entries[token]
	r.entries[token] = conn
	total := len(r.entries)
	r.mu.Unlock()

	if replaced && prior != conn {
		prior.Close()
	}

	r.logger.Debug("connection registered",
		"replaced", replaced,
		"total", total,
	)
}

// Deregister removes the entry for token. Removing an absent token is a
// harmless no-op: close events can race with a previous eviction.
func (r *Registry) Deregister(token string) {
	r.mu.Lock()
	_, present := r.entries[token]
	delete(r.entries, token)
	total := len(r.entries)
	r.mu.Unlock()

	if present {
		r.logger.Debug("connection deregistered", "total", total)
	}
}

// Release removes the entry for token only if it still maps to conn.
// Close callbacks use this so a stale socket's teardown cannot evict
// the connection that replaced it.
func (r *Registry) Release(token string, conn Conn) {
	r.mu.Lock()
	current, present := r.entries[token]
	if present && current == conn {
		delete(r.entries, token)
	}
	total := len(r.entries)
	r.mu.Unlock()

	if present && current == conn {
		r.logger.Debug("connection released", "total", total)
	}
}

// Snapshot returns a copy of the current entries, stable against
// concurrent registration and deregistration.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.entries))
	for token, conn := range r.entries {
		entries = append(entries, Entry{Token: token, Conn: conn})
	}
	return entries
}

// Len returns the current number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

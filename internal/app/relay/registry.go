/*
Package relay contains the core of the position relay.

This file defines the Registry, the sole owner of the connection to client binding
and of each connection's liveness flag.
*/
package relay

import (
	"sync"

	"github.com/rs/zerolog"

	"cursorrelay/internal/app/user"
	"cursorrelay/internal/pkg/errs"
	"cursorrelay/internal/pkg/logx"
)

// registryEntry is the per-connection state the Registry keeps.
type registryEntry struct {
	conn Conn

	// bound identity; zero while the connection has not joined a room.
	user user.User

	// cleared by every sweep, set again by a transport pong.
	alive bool
}

// Registry tracks every live connection and the identity bound to it.
type Registry struct {
	// entries maps Conn.ID() to its state.
	entries map[string]*registryEntry

	// mu serializes mutations; lookups take the read lock.
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		logger:  logx.Component("Registry"),
	}
}

// Register adds conn in the unjoined, alive state.
func (r *Registry) Register(conn Conn) *errs.CustomError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[conn.ID()]; ok {
		r.logger.Error().Str("conn_id", conn.ID()).Msg("Connection registered twice.")
		return errs.NewError(errs.ErrConnAlreadyRegistered, conn.ID())
	}

	r.entries[conn.ID()] = &registryEntry{conn: conn, alive: true}
	return nil
}

// Bind attaches u to conn, replacing any earlier binding, which is returned
// together with true when it existed.
func (r *Registry) Bind(conn Conn, u user.User) (user.User, bool, *errs.CustomError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[conn.ID()]
	if !ok {
		return user.User{}, false, errs.NewError(errs.ErrConnNotRegistered, conn.ID())
	}

	prev := e.user
	e.user = u
	return prev, !prev.IsZero(), nil
}

// Lookup returns the identity bound to conn, or false if it has not joined.
func (r *Registry) Lookup(conn Conn) (user.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[conn.ID()]
	if !ok || e.user.IsZero() {
		return user.User{}, false
	}
	return e.user, true
}

// Unregister removes all state for conn and returns the identity it had, if any.
// A second call for the same connection reports nothing.
func (r *Registry) Unregister(conn Conn) (user.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[conn.ID()]
	if !ok {
		return user.User{}, false
	}
	delete(r.entries, conn.ID())

	return e.user, !e.user.IsZero()
}

// IsRegistered reports whether conn is still tracked.
func (r *Registry) IsRegistered(conn Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[conn.ID()]
	return ok
}

// MarkAlive records a transport pong from conn.
func (r *Registry) MarkAlive(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[conn.ID()]; ok {
		e.alive = true
	}
}

// Sweep runs one liveness pass. Connections whose flag is still cleared from the
// previous pass are handed to onDead; every other connection has its flag cleared
// and is pinged. Callbacks and pings run after the lock is released.
func (r *Registry) Sweep(onDead func(Conn)) (evicted, pinged int) {
	var dead, live []Conn

	r.mu.Lock()
	for _, e := range r.entries {
		if !e.alive {
			dead = append(dead, e.conn)
			continue
		}
		e.alive = false
		live = append(live, e.conn)
	}
	r.mu.Unlock()

	for _, conn := range dead {
		onDead(conn)
	}

	for _, conn := range live {
		if err := conn.Ping(); err != nil {
			r.logger.Debug().Err(err).Str("conn_id", conn.ID()).Msg("Ping failed; connection will be evicted next sweep.")
		}
	}

	return len(dead), len(live)
}

// Conns returns a snapshot of every registered connection.
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.entries))
	for _, e := range r.entries {
		conns = append(conns, e.conn)
	}
	return conns
}

// Count returns the number of registered connections, joined or not.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ClientCount returns the number of connections bound to a room.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if !e.user.IsZero() {
			n++
		}
	}
	return n
}

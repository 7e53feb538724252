/*
Package relay contains the core of the position relay.

This file defines the Router, which validates inbound frames and drives each
connection through Unjoined, Joined and Closed. Operations on one connection are
serialized by a session lock, so a liveness eviction never interleaves with a join
or a position update from the same connection.
*/
package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cursorrelay/internal/app/user"
	"cursorrelay/internal/pkg/errs"
	"cursorrelay/internal/pkg/logx"
	"cursorrelay/internal/pkg/randx"
)

// Router dispatches client messages and performs join, position and disconnect transitions.
type Router struct {
	registry *Registry
	rooms    *RoomManager

	// now stamps relayed positions.
	now func() time.Time

	// newClientID issues identities on join.
	newClientID func() string

	// sessions holds one lock per open connection, keyed by Conn.ID().
	sessions map[string]*sync.Mutex
	mu       sync.Mutex

	logger zerolog.Logger
}

// NewRouter returns a Router working on the given registry and room manager.
func NewRouter(registry *Registry, rooms *RoomManager) *Router {
	return &Router{
		registry:    registry,
		rooms:       rooms,
		now:         time.Now,
		newClientID: randx.ClientID,
		sessions:    make(map[string]*sync.Mutex),
		logger:      logx.Component("Router"),
	}
}

// Connect registers conn in the unjoined state and opens its session.
func (r *Router) Connect(conn Conn) *errs.CustomError {
	if err := r.registry.Register(conn); err != nil {
		return err
	}

	r.mu.Lock()
	r.sessions[conn.ID()] = &sync.Mutex{}
	r.mu.Unlock()

	r.logger.Debug().Str("conn_id", conn.ID()).Msg("Connection registered.")
	return nil
}

// lockSession acquires conn's session lock. It returns false when the connection
// has already been closed.
func (r *Router) lockSession(conn Conn) (*sync.Mutex, bool) {
	r.mu.Lock()
	s, ok := r.sessions[conn.ID()]
	r.mu.Unlock()

	if !ok {
		return nil, false
	}
	s.Lock()
	return s, true
}

// HandleMessage decodes one frame from conn and applies it. Malformed frames are
// logged and dropped; they never close the connection or produce a reply.
func (r *Router) HandleMessage(conn Conn, data []byte) {
	msg, customErr := decodeInbound(data)
	if customErr != nil {
		r.logger.Warn().
			Str("conn_id", conn.ID()).
			Int("error_code", customErr.Code).
			Str("reason", customErr.Message).
			Int("size", len(data)).
			Msg("Dropped malformed message.")
		return
	}

	s, ok := r.lockSession(conn)
	if !ok {
		r.logger.Debug().Str("conn_id", conn.ID()).Msg("Message for closed connection ignored.")
		return
	}
	defer s.Unlock()

	switch msg.Type {
	case TypeJoin:
		username := ""
		if msg.Username != nil {
			username = *msg.Username
		}
		r.join(conn, *msg.RoomCode, username)

	case TypeMouse:
		r.position(conn, *msg.X, *msg.Y)

	case TypePing:
		r.sendTo(conn, PongMessage{Type: TypePong})
	}
}

// join binds a fresh identity to conn and moves it into roomCode. A previous
// membership is left first and announced to that room.
func (r *Router) join(conn Conn, roomCode, username string) {
	clientID := r.newClientID()
	u := user.User{
		ID:       clientID,
		Username: randx.DisplayName(username, clientID),
		RoomCode: roomCode,
	}

	prev, hadPrev, err := r.registry.Bind(conn, u)
	if err != nil {
		r.logger.Warn().Str("conn_id", conn.ID()).Int("error_code", err.Code).Msg("Join on unregistered connection dropped.")
		return
	}

	if hadPrev {
		r.rooms.Leave(prev.RoomCode, conn)
		r.broadcast(prev.RoomCode, newPeerLeave(prev), nil)

		r.logger.Info().
			Str("client_id", prev.ID).
			Str("room_code", prev.RoomCode).
			Msg("Client left room to re-join.")
	}

	r.rooms.Join(roomCode, conn)
	r.sendTo(conn, newJoined(u))
	r.broadcast(roomCode, newPeerJoin(u), conn)

	r.logger.Info().
		Str("conn_id", conn.ID()).
		Str("client_id", u.ID).
		Str("username", u.Username).
		Str("room_code", roomCode).
		Int("room_size", r.rooms.Size(roomCode)).
		Msg("Client joined room.")
}

// position relays a coordinate pair to the sender's room. Positions sent before a
// join are dropped silently.
func (r *Router) position(conn Conn, x, y float64) {
	u, ok := r.registry.Lookup(conn)
	if !ok {
		r.logger.Debug().Str("conn_id", conn.ID()).Msg("Position before join dropped.")
		return
	}

	r.broadcast(u.RoomCode, MouseMessage{
		Type:     TypeMouse,
		ID:       u.ID,
		Username: u.Username,
		X:        x,
		Y:        y,
		T:        r.now().UnixMilli(),
	}, conn)
}

// Disconnect runs the cleanup for a closed or evicted connection: the binding is
// removed, the room is left and the remaining members get a peer-leave. It is safe
// to call more than once; only the first call has an effect.
func (r *Router) Disconnect(conn Conn, reason string) {
	s, ok := r.lockSession(conn)
	if !ok {
		return
	}

	r.mu.Lock()
	delete(r.sessions, conn.ID())
	r.mu.Unlock()
	defer s.Unlock()

	prev, bound := r.registry.Unregister(conn)
	if !bound {
		r.logger.Debug().Str("conn_id", conn.ID()).Str("reason", reason).Msg("Unjoined connection closed.")
		return
	}

	emptied := r.rooms.Leave(prev.RoomCode, conn)
	r.broadcast(prev.RoomCode, newPeerLeave(prev), nil)

	r.logger.Info().
		Str("conn_id", conn.ID()).
		Str("client_id", prev.ID).
		Str("room_code", prev.RoomCode).
		Str("reason", reason).
		Bool("room_deleted", emptied).
		Msg("Client disconnected.")
}

// sendTo delivers v to conn alone.
func (r *Router) sendTo(conn Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode outbound message.")
		return
	}

	if err := conn.Send(data); err != nil {
		r.logger.Warn().Err(err).Str("conn_id", conn.ID()).Msg("Failed to queue message for sender.")
	}
}

// broadcast encodes v once and fans it out to the room without exclude.
func (r *Router) broadcast(roomCode string, v any, exclude Conn) int {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error().Err(err).Str("room_code", roomCode).Msg("Failed to encode broadcast message.")
		return 0
	}
	return r.rooms.BroadcastToAll(roomCode, data, exclude)
}

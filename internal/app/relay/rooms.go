package relay

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"cursorrelay/internal/pkg/errs"
	"cursorrelay/internal/pkg/logx"
)

// RoomManager owns the room code to member set mapping. A room exists exactly
// while it has at least one member.
type RoomManager struct {
	// rooms maps room code to members keyed by Conn.ID().
	rooms map[string]map[string]Conn

	// mu serializes membership changes; fan-out snapshots take the read lock.
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewRoomManager returns a RoomManager with no rooms.
func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:  make(map[string]map[string]Conn),
		logger: logx.Component("RoomManager"),
	}
}

// Join adds conn to the room, creating the room when absent. Joining twice is a no-op.
// It reports whether the room was created by this call.
func (m *RoomManager) Join(roomCode string, conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.rooms[roomCode]
	if !ok {
		members = make(map[string]Conn)
		m.rooms[roomCode] = members
		m.logger.Info().Str("room_code", roomCode).Msg("Room created.")
	}
	members[conn.ID()] = conn

	return !ok
}

// Leave removes conn from the room. When that empties the room it is deleted in the
// same critical section and Leave returns true.
func (m *RoomManager) Leave(roomCode string, conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.rooms[roomCode]
	if !ok {
		return false
	}
	if _, member := members[conn.ID()]; !member {
		return false
	}

	delete(members, conn.ID())
	if len(members) > 0 {
		return false
	}

	delete(m.rooms, roomCode)
	m.logger.Info().Str("room_code", roomCode).Msg("Room deleted (empty).")
	return true
}

// Members returns a snapshot of the room's members without exclude.
// A nil exclude returns every member.
func (m *RoomManager) Members(roomCode string, exclude Conn) []Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := m.rooms[roomCode]
	out := make([]Conn, 0, len(members))
	for id, conn := range members {
		if exclude != nil && id == exclude.ID() {
			continue
		}
		out = append(out, conn)
	}
	return out
}

// BroadcastToAll sends msg to every member except exclude and returns how many
// accepted it. Sends happen outside the lock; a failing recipient is skipped.
func (m *RoomManager) BroadcastToAll(roomCode string, msg []byte, exclude Conn) int {
	delivered := 0

	for _, conn := range m.Members(roomCode, exclude) {
		if err := conn.Send(msg); err != nil {
			event := m.logger.Warn()
			if errors.Is(err, errConnClosed) {
				event = m.logger.Debug()
			}
			event.Err(err).
				Int("error_code", errs.CodeOf(err)).
				Str("room_code", roomCode).
				Str("conn_id", conn.ID()).
				Msg("Dropped broadcast for recipient.")
			continue
		}
		delivered++
	}

	return delivered
}

// Exists reports whether the room currently has members.
func (m *RoomManager) Exists(roomCode string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.rooms[roomCode]
	return ok
}

// Size returns the number of members in the room.
func (m *RoomManager) Size(roomCode string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomCode])
}

// Count returns the number of rooms.
func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Snapshot returns the member count of every room.
func (m *RoomManager) Snapshot() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int, len(m.rooms))
	for code, members := range m.rooms {
		out[code] = len(members)
	}
	return out
}

/*
Package relay contains the core of the position relay.

This file defines the Hub, which wires the Registry, RoomManager, Router and Monitor
together, serves upgraded WebSocket connections and coordinates shutdown.
*/
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"cursorrelay/internal/pkg/logx"
)

// Options configures a Hub.
type Options struct {
	// HeartbeatInterval is the liveness sweep period.
	HeartbeatInterval time.Duration

	// Conn tunes every WebSocket connection the hub serves.
	Conn ConnOptions
}

// Stats is a point-in-time view of the relay.
type Stats struct {
	// Connections counts every registered connection, joined or not.
	Connections int

	// Rooms counts non-empty rooms.
	Rooms int

	// Clients counts connections bound to a room.
	Clients int
}

// Hub is the relay's top-level component.
type Hub struct {
	registry *Registry
	rooms    *RoomManager
	router   *Router
	monitor  *Monitor

	opts Options

	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger zerolog.Logger
}

// NewHub builds a Hub. Call Start to begin liveness sweeps.
func NewHub(opts Options) *Hub {
	registry := NewRegistry()
	rooms := NewRoomManager()
	router := NewRouter(registry, rooms)

	return &Hub{
		registry: registry,
		rooms:    rooms,
		router:   router,
		monitor:  NewMonitor(registry, router, opts.HeartbeatInterval),
		opts:     opts,
		logger:   logx.Component("Hub"),
	}
}

// Start launches the liveness monitor. It stops when ctx is cancelled or on Shutdown.
func (h *Hub) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.monitor.Run(ctx)
	}()
}

// ServeWebSocket runs an upgraded connection until it closes. It blocks.
func (h *Hub) ServeWebSocket(ws *websocket.Conn) {
	conn := NewWSConn(ws, h.opts.Conn)
	h.Serve(conn)
}

// Serve registers conn, runs it and performs the disconnect cleanup when it ends.
func (h *Hub) Serve(conn *WSConn) {
	if err := h.router.Connect(conn); err != nil {
		h.logger.Error().Err(err).Str("conn_id", conn.ID()).Msg("Failed to register connection.")
		_ = conn.Terminate()
		return
	}

	conn.Run(
		func(data []byte) { h.router.HandleMessage(conn, data) },
		func() { h.registry.MarkAlive(conn) },
	)

	h.router.Disconnect(conn, "connection closed")
}

// Stats returns the current connection and room counts.
func (h *Hub) Stats() Stats {
	return Stats{
		Connections: h.registry.Count(),
		Rooms:       h.rooms.Count(),
		Clients:     h.registry.ClientCount(),
	}
}

// Sweep runs one liveness pass immediately.
func (h *Hub) Sweep() (evicted, pinged int) {
	return h.monitor.Sweep()
}

// goingAwayCloser is implemented by connections that can say goodbye before closing.
type goingAwayCloser interface {
	CloseGoingAway(reason string) error
}

// Shutdown stops the monitor and closes every connection. The read pumps then run
// the regular disconnect cleanup.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub...")

	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()

	conns := h.registry.Conns()
	for _, conn := range conns {
		var err error
		if c, ok := conn.(goingAwayCloser); ok {
			err = c.CloseGoingAway("server shutting down")
		} else {
			err = conn.Terminate()
		}
		if err != nil {
			h.logger.Debug().Err(err).Str("conn_id", conn.ID()).Msg("Close during shutdown returned an error.")
		}
	}

	h.logger.Info().Int("closed", len(conns)).Msg("Hub shutdown complete.")
}

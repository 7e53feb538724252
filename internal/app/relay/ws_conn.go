/*
Package relay contains the core of the position relay.

This file defines WSConn, the gorilla/websocket implementation of Conn. Each WSConn
runs a read pump on the caller's goroutine and a write pump that is the only writer
of data frames. Control frames go through WriteControl, which gorilla allows
concurrently with the write pump.
*/
package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"cursorrelay/internal/pkg/errs"
	"cursorrelay/internal/pkg/logx"
	"cursorrelay/internal/pkg/randx"
)

const (
	// timeout for a single frame write on the socket.
	writeWait = 10 * time.Second

	// DefaultSendQueueSize is the outbound queue length per connection.
	DefaultSendQueueSize = 256

	// DefaultMaxMessageSize bounds inbound frames in bytes.
	DefaultMaxMessageSize = 4096
)

// ConnOptions tunes a WSConn.
type ConnOptions struct {
	// SendQueueSize is the outbound buffer length.
	SendQueueSize int

	// MaxMessageSize is the read limit in bytes.
	MaxMessageSize int64

	// MessageRate limits inbound frames per second; zero disables the limit.
	MessageRate float64

	// MessageBurst is the inbound token bucket size.
	MessageBurst int
}

func (o ConnOptions) withDefaults() ConnOptions {
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = DefaultSendQueueSize
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	if o.MessageRate > 0 && o.MessageBurst <= 0 {
		o.MessageBurst = 1
	}
	return o
}

// WSConn is a relay connection backed by a WebSocket.
type WSConn struct {
	id string

	// underlying WebSocket connection.
	ws *websocket.Conn

	// queued outbound frames, drained by the write pump.
	send chan []byte

	// closed once when the connection shuts down.
	done      chan struct{}
	closeOnce sync.Once

	// inbound frame budget; nil when unlimited.
	limiter *rate.Limiter

	maxMessageSize int64

	logger zerolog.Logger
}

// NewWSConn wraps an upgraded WebSocket.
func NewWSConn(ws *websocket.Conn, opts ConnOptions) *WSConn {
	opts = opts.withDefaults()
	id := randx.ConnID()

	c := &WSConn{
		id:             id,
		ws:             ws,
		send:           make(chan []byte, opts.SendQueueSize),
		done:           make(chan struct{}),
		maxMessageSize: opts.MaxMessageSize,
		logger: logx.Logger().With().
			Str("component", "WSConn").
			Str("conn_id", id).
			Logger(),
	}

	if opts.MessageRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.MessageRate), opts.MessageBurst)
	}

	return c
}

// ID implements Conn.
func (c *WSConn) ID() string { return c.id }

// Send implements Conn. It never blocks.
func (c *WSConn) Send(data []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSendQueueFull
	}
}

// Ping implements Conn.
func (c *WSConn) Ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Terminate implements Conn by closing the socket without a close handshake.
func (c *WSConn) Terminate() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// CloseGoingAway sends a going-away close frame and then terminates.
func (c *WSConn) CloseGoingAway(reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	if err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send close frame.")
	}
	return c.Terminate()
}

// Run starts the write pump and reads frames until the socket fails or closes.
// onMessage receives every frame within the rate budget; onPong fires for every
// transport pong. Run returns after the connection has been terminated.
func (c *WSConn) Run(onMessage func([]byte), onPong func()) {
	go c.writePump()

	defer func() {
		if err := c.Terminate(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error.")
		}
	}()

	c.readPump(onMessage, onPong)
}

func (c *WSConn) readPump(onMessage func([]byte), onPong func()) {
	c.ws.SetReadLimit(c.maxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		onPong()
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly.")
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.logger.Debug().Err(errs.NewError(errs.ErrMessageRateExceeded)).Msg("Frame dropped.")
			continue
		}

		onMessage(data)
	}
}

// writePump is the single writer of data frames.
func (c *WSConn) writePump() {
	for {
		select {
		case message := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Debug().Err(err).Msg("Failed to set write deadline.")
				_ = c.Terminate()
				return
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing message.")
				_ = c.Terminate()
				return
			}

		case <-c.done:
			return
		}
	}
}

/*
Package relay contains the core of the position relay: connection bookkeeping, room
membership, message routing and liveness eviction.

This file defines Conn, the transport-neutral handle every other component works with.
*/
package relay

import "cursorrelay/internal/pkg/errs"

// Conn is one live client session as seen by the relay core.
type Conn interface {
	// ID returns the transport-level identity, unique for the life of the process.
	ID() string

	// Send queues data for delivery without blocking. A full queue or a closed
	// connection is reported as an error and the frame is dropped.
	Send(data []byte) error

	// Ping sends a transport-level ping.
	Ping() error

	// Terminate closes the connection immediately. The transport's read side then
	// observes the close and runs the normal disconnect cleanup.
	Terminate() error
}

var (
	errSendQueueFull = errs.NewError(errs.ErrSendQueueFull)
	errConnClosed    = errs.NewError(errs.ErrConnClosed)
)

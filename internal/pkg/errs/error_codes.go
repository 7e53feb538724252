/*
Package errs provides custom error types and application-level error code constants.

These error codes identify request failures at the HTTP boundary and protocol
failures on a relay connection. Protocol errors are only logged; clients never
receive them.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrNotFound indicates that no route serves the requested path.
	ErrNotFound = 1008
)

// 2xxx: Relay Protocol Errors
const (
	// ErrInvalidJSONFormat indicates that an inbound frame is not a valid JSON message.
	ErrInvalidJSONFormat = 2001

	// ErrUnknownMessageType indicates that the message type field is absent or not supported.
	ErrUnknownMessageType = 2002

	// ErrMissingField indicates that a known message type lacks a required field.
	ErrMissingField = 2003

	// ErrMessageRateExceeded indicates that a connection sent messages faster than allowed.
	ErrMessageRateExceeded = 2004

	// ErrConnAlreadyRegistered indicates a second registration of the same connection identity.
	ErrConnAlreadyRegistered = 2101

	// ErrConnNotRegistered indicates an operation on a connection that is closed or unknown.
	ErrConnNotRegistered = 2102

	// ErrSendQueueFull indicates that a recipient's outbound queue could not accept a frame.
	ErrSendQueueFull = 2201

	// ErrConnClosed indicates that a frame was offered to a connection that has shut down.
	ErrConnClosed = 2202
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)

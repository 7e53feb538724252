package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrNotFound:          {Code: ErrNotFound, Message: "Not found.", Status: http.StatusNotFound},

	// 2xxx
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Message is not valid JSON."},
	ErrUnknownMessageType:    {Code: ErrUnknownMessageType, Message: "Unknown message type %q."},
	ErrMissingField:          {Code: ErrMissingField, Message: "Message %q is missing required field %q."},
	ErrMessageRateExceeded:   {Code: ErrMessageRateExceeded, Message: "Message rate exceeded."},
	ErrConnAlreadyRegistered: {Code: ErrConnAlreadyRegistered, Message: "Connection %s is already registered."},
	ErrConnNotRegistered:     {Code: ErrConnNotRegistered, Message: "Connection %s is not registered."},
	ErrSendQueueFull:         {Code: ErrSendQueueFull, Message: "Send queue full."},
	ErrConnClosed:            {Code: ErrConnClosed, Message: "Connection closed."},

	// 5xxx
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}

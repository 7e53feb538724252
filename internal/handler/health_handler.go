package handler

import (
	"net/http"
	"time"

	"cursorrelay/internal/app/relay"
	"cursorrelay/internal/pkg/resp"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// StatusResponse is the body served by the status endpoints.
type StatusResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
}

func newStatus(stats relay.Stats, now time.Time) StatusResponse {
	return StatusResponse{
		Status:      "ok",
		Timestamp:   now.UTC().Format(timestampLayout),
		Connections: stats.Connections,
		Rooms:       stats.Rooms,
	}
}

// HandleStatus reports liveness plus the current connection and room counts.
func HandleStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondOK(w, r, newStatus(deps.Hub.Stats(), time.Now()))
	}
}

/*
Package handler provides the HTTP handler function for WebSocket connection upgrading.

HandleWebSocket applies the per-IP connect budget, upgrades the request and hands the
socket to the relay hub, which owns it until it closes.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"cursorrelay/internal/pkg/errs"
	"cursorrelay/internal/pkg/limiter"
	"cursorrelay/internal/pkg/logx"
	"cursorrelay/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc that upgrades the request and serves
// the connection on the relay hub.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if deps.ConnectLimiter != nil && !deps.ConnectLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logx.Warn("Failed to upgrade connection to WebSocket", "ip", ip, "error", err.Error())
			return
		}

		logx.Debug("WebSocket connection established", "ip", ip)

		deps.Hub.ServeWebSocket(conn)
	}
}

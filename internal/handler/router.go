/*
Package handler provides the HTTP handlers and routing setup for the position relay.

This file defines the main Router, applying middleware like logging, CORS and recovery
before delegating requests to the status and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"cursorrelay/internal/pkg/errs"
	"cursorrelay/internal/pkg/logx"
	"cursorrelay/internal/pkg/resp"
)

// Router sets up the HTTP routing table for the relay.
// Both "/" and "/ws" accept WebSocket handshakes; plain requests to "/" get the status body.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}
	allowAnyOrigin := deps.Config.IsDevelopment() || len(allowedOrigins) == 0

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowAnyOrigin {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{"*"}
	if !allowAnyOrigin {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	wsHandler := HandleWebSocket(wsUpgrader, deps)
	statusHandler := HandleStatus(deps)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			wsHandler(w, r)
			return
		}
		statusHandler(w, r)
	})
	r.Get("/health", statusHandler)
	r.Get("/ws", wsHandler)

	notFound := func(w http.ResponseWriter, r *http.Request) {
		resp.RespondError(w, r, errs.NewError(errs.ErrNotFound))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

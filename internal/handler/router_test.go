package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"cursorrelay/internal/app/relay"
	"cursorrelay/internal/configs"
	"cursorrelay/internal/pkg/errs"
	"cursorrelay/internal/pkg/limiter"
	"cursorrelay/internal/pkg/resp"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, cfg *configs.AppConfig, lim *limiter.IPRateLimiter) (*httptest.Server, *relay.Hub) {
	t.Helper()

	if cfg == nil {
		cfg = &configs.AppConfig{Environment: "development"}
	}
	hub := relay.NewHub(relay.Options{HeartbeatInterval: time.Hour})
	hub.Start(context.Background())

	srv := httptest.NewServer(Router(&AppDeps{Hub: hub, Config: cfg, ConnectLimiter: lim}))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return srv, hub
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv, path), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg map[string]any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(msg))
}

func read(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func join(t *testing.T, ws *websocket.Conn, room, name string) string {
	t.Helper()

	send(t, ws, map[string]any{"type": "join", "roomCode": room, "username": name})
	msg := read(t, ws)
	require.Equal(t, "joined", msg["type"])
	require.Equal(t, room, msg["roomCode"])

	id, _ := msg["clientId"].(string)
	require.NotEmpty(t, id)
	return id
}

func getStatus(t *testing.T, srv *httptest.Server, path string) StatusResponse {
	t.Helper()

	res, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var status StatusResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
	return status
}

func TestRelay_EndToEnd(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	a := dial(t, srv, "/ws")
	b := dial(t, srv, "/")

	join(t, a, "ABC", "alice")
	bID := join(t, b, "ABC", "bob")

	peer := read(t, a)
	assert.Equal(t, "peer-join", peer["type"])
	assert.Equal(t, bID, peer["id"])
	assert.Equal(t, "bob", peer["username"])

	status := getStatus(t, srv, "/health")
	assert.Equal(t, 2, status.Connections)
	assert.Equal(t, 1, status.Rooms)

	send(t, b, map[string]any{"type": "mouse", "x": 0.25, "y": 0.75})
	pos := read(t, a)
	assert.Equal(t, "mouse", pos["type"])
	assert.Equal(t, bID, pos["id"])
	assert.Equal(t, "bob", pos["username"])
	assert.Equal(t, 0.25, pos["x"])
	assert.Equal(t, 0.75, pos["y"])
	assert.Greater(t, pos["t"], float64(0))

	send(t, a, map[string]any{"type": "ping"})
	assert.Equal(t, map[string]any{"type": "pong"}, read(t, a))

	// Malformed frames are dropped and the connection stays usable.
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("not json")))
	send(t, a, map[string]any{"type": "ping"})
	assert.Equal(t, "pong", read(t, a)["type"])

	require.NoError(t, b.Close())
	leave := read(t, a)
	assert.Equal(t, "peer-leave", leave["type"])
	assert.Equal(t, bID, leave["id"])

	require.Eventually(t, func() bool {
		return getStatus(t, srv, "/health").Connections == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRelay_EvictsSilentClient(t *testing.T) {
	srv, hub := newTestServer(t, nil, nil)

	watcher := dial(t, srv, "/ws")
	silent := dial(t, srv, "/ws")

	join(t, watcher, "R", "watcher")
	silentID := join(t, silent, "R", "silent")
	assert.Equal(t, "peer-join", read(t, watcher)["type"])

	evicted, pinged := hub.Sweep()
	assert.Equal(t, 0, evicted)
	assert.Equal(t, 2, pinged)

	// The watcher answers the transport ping while reading. Its second
	// application ping is written after that pong, so the server has seen it.
	for range 2 {
		send(t, watcher, map[string]any{"type": "ping"})
		assert.Equal(t, "pong", read(t, watcher)["type"])
	}

	evicted, _ = hub.Sweep()
	assert.Equal(t, 1, evicted)

	leave := read(t, watcher)
	assert.Equal(t, "peer-leave", leave["type"])
	assert.Equal(t, silentID, leave["id"])

	require.Eventually(t, func() bool {
		return hub.Stats().Connections == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.Stats().Rooms)
}

func TestRouter_Status(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	for _, path := range []string{"/", "/health"} {
		t.Run(path, func(t *testing.T) {
			status := getStatus(t, srv, path)
			assert.Equal(t, "ok", status.Status)
			assert.Zero(t, status.Connections)
			assert.Zero(t, status.Rooms)

			ts, err := time.Parse(time.RFC3339Nano, status.Timestamp)
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now(), ts, time.Minute)
			assert.True(t, strings.HasSuffix(status.Timestamp, "Z"))
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "unknown path", method: http.MethodGet, path: "/nope"},
		{name: "nested path", method: http.MethodGet, path: "/ws/extra"},
		{name: "wrong method", method: http.MethodPost, path: "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)

			res, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, http.StatusNotFound, res.StatusCode)

			var body resp.ErrorResponse
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.Equal(t, errs.ErrNotFound, body.Code)
		})
	}
}

func TestHandleWebSocket_RateLimited(t *testing.T) {
	lim := limiter.NewIPRateLimiter(rate.Every(time.Hour), 1, time.Hour)
	t.Cleanup(lim.Stop)

	srv, _ := newTestServer(t, nil, lim)

	dial(t, srv, "/ws")

	_, res, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws"), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, res)
	defer res.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)

	var body resp.ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, errs.ErrRateLimitExceeded, body.Code)
}

func TestHandleWebSocket_OriginCheck(t *testing.T) {
	cfg := &configs.AppConfig{
		Environment:    "production",
		AllowedOrigins: []string{"https://ok.example"},
	}
	srv, _ := newTestServer(t, cfg, nil)

	tests := []struct {
		origin string
		wantOK bool
	}{
		{origin: "https://ok.example", wantOK: true},
		{origin: "https://evil.example", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			header := http.Header{"Origin": []string{tt.origin}}
			ws, res, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws"), header)
			if tt.wantOK {
				require.NoError(t, err)
				_ = ws.Close()
				return
			}

			require.Error(t, err)
			require.NotNil(t, res)
			assert.Equal(t, http.StatusForbidden, res.StatusCode)
		})
	}
}

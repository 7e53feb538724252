package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_EvictsUnresponsive(t *testing.T) {
	r, registry, rooms := newTestRouter()
	m := NewMonitor(registry, r, time.Hour)

	silent, watcher := newMockConn("silent"), newMockConn("watcher")
	silentID := connectAndJoin(t, r, silent, "R", "")
	connectAndJoin(t, r, watcher, "R", "")
	watcher.reset()

	evicted, pinged := m.Sweep()
	assert.Equal(t, 0, evicted)
	assert.Equal(t, 2, pinged)

	// Only the watcher answers.
	registry.MarkAlive(watcher)

	evicted, _ = m.Sweep()
	assert.Equal(t, 1, evicted)
	assert.True(t, silent.isTerminated())
	assert.False(t, watcher.isTerminated())
	assert.False(t, registry.IsRegistered(silent))

	// The transport notices the terminate and runs its own cleanup.
	r.Disconnect(silent, "connection closed")

	leaves := watcher.ofType(t, TypePeerLeave)
	require.Len(t, leaves, 1, "exactly one peer-leave per eviction")
	assert.Equal(t, silentID, leaves[0]["id"])
	assert.Equal(t, 1, rooms.Size("R"))
}

func TestMonitor_ResponsiveSurvives(t *testing.T) {
	r, registry, _ := newTestRouter()
	m := NewMonitor(registry, r, time.Hour)

	c := newMockConn("c")
	connectAndJoin(t, r, c, "R", "")

	for range 5 {
		evicted, _ := m.Sweep()
		require.Equal(t, 0, evicted)
		registry.MarkAlive(c)
	}

	assert.Equal(t, 5, c.pingCount())
	assert.False(t, c.isTerminated())
	assert.True(t, registry.IsRegistered(c))
}

func TestMonitor_EvictsUnjoined(t *testing.T) {
	r, registry, rooms := newTestRouter()
	m := NewMonitor(registry, r, time.Hour)

	c := newMockConn("c")
	require.Nil(t, r.Connect(c))

	m.Sweep()
	m.Sweep()

	assert.True(t, c.isTerminated())
	assert.Equal(t, 0, registry.Count())
	assert.Equal(t, 0, rooms.Count())
}

func TestMonitor_Run(t *testing.T) {
	r, registry, rooms := newTestRouter()
	m := NewMonitor(registry, r, 10*time.Millisecond)

	c := newMockConn("c")
	connectAndJoin(t, r, c, "R", "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return !registry.IsRegistered(c) }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, rooms.Exists("R"))

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}

func TestNewMonitor_DefaultInterval(t *testing.T) {
	r, registry, _ := newTestRouter()
	m := NewMonitor(registry, r, 0)
	assert.Equal(t, DefaultHeartbeatInterval, m.interval)
}

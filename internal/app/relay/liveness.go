package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cursorrelay/internal/pkg/logx"
)

// DefaultHeartbeatInterval is the sweep period used when none is configured.
const DefaultHeartbeatInterval = 30 * time.Second

// Monitor evicts connections that stop answering transport pings. A connection
// gets one full interval to answer each ping; the sweep after an unanswered ping
// evicts it.
type Monitor struct {
	registry *Registry
	router   *Router
	interval time.Duration
	logger   zerolog.Logger
}

// NewMonitor returns a Monitor sweeping registry every interval.
func NewMonitor(registry *Registry, router *Router, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	return &Monitor{
		registry: registry,
		router:   router,
		interval: interval,
		logger:   logx.Component("Monitor"),
	}
}

// Run sweeps on a single ticker until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info().Dur("interval", m.interval).Msg("Liveness monitor started.")

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			m.logger.Info().Msg("Liveness monitor stopped.")
			return
		}
	}
}

// Sweep performs one liveness pass and returns how many connections were evicted
// and how many were pinged.
func (m *Monitor) Sweep() (evicted, pinged int) {
	evicted, pinged = m.registry.Sweep(m.evict)

	if evicted > 0 {
		m.logger.Info().Int("evicted", evicted).Int("pinged", pinged).Msg("Liveness sweep evicted connections.")
	} else {
		m.logger.Debug().Int("pinged", pinged).Msg("Liveness sweep finished.")
	}
	return evicted, pinged
}

// evict terminates conn and runs the disconnect cleanup right away. The transport's
// own cleanup, triggered by the terminate, then finds nothing left to do.
func (m *Monitor) evict(conn Conn) {
	if err := conn.Terminate(); err != nil {
		m.logger.Debug().Err(err).Str("conn_id", conn.ID()).Msg("Terminate returned an error.")
	}
	m.router.Disconnect(conn, "liveness timeout")
}

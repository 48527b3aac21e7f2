package phone

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober checks whether the bridge answers at a base URL.
type Prober interface {
	Probe(ctx context.Context, baseURL string) error
}

// Monitor probes the phone bridge on a fixed interval and broadcasts status
// changes to WebSocket subscribers.
type Monitor struct {
	state    *State
	prober   Prober
	hub      *Hub
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	lastProbe time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewMonitor creates a bridge monitor. Interval defaults to 3s when zero.
func NewMonitor(state *State, prober Prober, hub *Hub, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Monitor{
		state:    state,
		prober:   prober,
		hub:      hub,
		interval: interval,
		logger:   slog.Default().With("component", "phone-monitor"),
	}
}

// Start launches the periodic probe loop. Calling Start on a running monitor
// is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	m.logger.Info("Starting phone bridge monitor", "interval", m.interval)

	go func() {
		defer close(m.done)

		m.CheckNow(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckNow(ctx)
			}
		}
	}()
}

// Stop halts the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
	m.logger.Info("Phone bridge monitor stopped")
}

// CheckNow runs one probe immediately, regardless of the interval.
func (m *Monitor) CheckNow(ctx context.Context) {
	m.mu.Lock()
	m.lastProbe = time.Now()
	m.mu.Unlock()

	base, err := m.state.BaseURL()
	if err == nil {
		err = m.prober.Probe(ctx, base)
	}

	changed := m.state.SetResult(err)
	if changed {
		snap := m.state.Snapshot()
		m.logger.Info("Phone bridge status changed", "connected", snap.Connected)
		if m.hub != nil {
			m.hub.Broadcast(snap)
		}
	}
}

// Refresh probes the bridge on demand, but no more than twice per interval.
// Read paths call this to return fresh status without hammering the device.
func (m *Monitor) Refresh(ctx context.Context) {
	m.mu.Lock()
	recent := time.Since(m.lastProbe) < m.interval/2
	m.mu.Unlock()
	if recent {
		return
	}
	m.CheckNow(ctx)
}

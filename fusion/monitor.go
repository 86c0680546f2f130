package fusion

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultProbeInterval paces the background health probe.
const DefaultProbeInterval = 30 * time.Second

// HostStatus is a point-in-time view of add-in reachability.
type HostStatus struct {
	Reachable bool      `json:"reachable"`
	Fusion    string    `json:"fusion"`
	CheckedAt time.Time `json:"checkedAt"`
	Detail    string    `json:"detail,omitempty"`
}

// Monitor keeps an atomically readable host-status snapshot so health
// answers never block on a live REST round-trip. The snapshot is refreshed
// by a background probe and by every regular call outcome.
type Monitor struct {
	client   *Client
	interval time.Duration
	status   atomic.Pointer[HostStatus]
	cancel   context.CancelFunc
	done     chan struct{}
}

// Status returns the latest snapshot.
func (m *Monitor) Status() HostStatus {
	return *m.status.Load()
}

// Observe refreshes the snapshot from a call outcome. A host_error still
// proves the add-in process is answering; only silence marks it unreachable.
func (m *Monitor) Observe(result *CallResult) {
	status := &HostStatus{CheckedAt: time.Now()}
	switch result.Status {
	case StatusOK, StatusHostError:
		status.Reachable = true
		status.Fusion = "connected"
	default:
		status.Fusion = "disconnected"
		status.Detail = result.Detail
	}
	m.status.Store(status)
}

// Start launches the background probe loop. The first probe fires
// immediately so the snapshot is meaningful before the first tick.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	go m.loop(ctx)
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	m.Observe(m.client.Health(ctx))
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Observe(m.client.Health(ctx))
		}
	}
}

// Close stops the probe loop and waits for it to exit.
func (m *Monitor) Close() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// NewMonitor creates a monitor over the given client. The snapshot starts
// out unreachable until the first probe lands.
func NewMonitor(client *Client, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	ret := &Monitor{
		client:   client,
		interval: interval,
		done:     make(chan struct{}),
	}
	ret.status.Store(&HostStatus{Fusion: "disconnected", Detail: "not probed yet"})
	return ret
}

package monitoring

import (
	"sync"
	"time"
)

// Monitor keeps a simple snapshot of runtime counters for the /api/stats
// endpoint. Prometheus collectors cover time series; this is the cheap
// JSON view staff dashboards poll.
type Monitor struct {
	mu        sync.RWMutex
	counters  map[string]int64
	startTime time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		counters:  make(map[string]int64),
		startTime: time.Now(),
	}
}

// Incr adds one to a named counter.
func (m *Monitor) Incr(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// Get returns a specific counter value.
func (m *Monitor) Get(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[name]
}

// Snapshot returns all counters plus uptime.
func (m *Monitor) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]interface{}, len(m.counters)+1)
	for k, v := range m.counters {
		out[k] = v
	}
	out["uptime_seconds"] = time.Since(m.startTime).Seconds()
	return out
}

// Reset clears all counters.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]int64)
}

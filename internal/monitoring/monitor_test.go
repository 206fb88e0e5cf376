package monitoring

import (
	"testing"
)

func TestMonitorSnapshot(t *testing.T) {
	m := NewMonitor()
	m.Incr("orders_placed")
	m.Incr("orders_placed")

	snapshot := m.Snapshot()

	value, exists := snapshot["orders_placed"]
	if !exists {
		t.Fatalf("Expected 'orders_placed' to be present in snapshot, but it was not")
	}
	if value != int64(2) {
		t.Errorf("Expected 'orders_placed' to be 2, but got %v", value)
	}

	if _, exists = snapshot["uptime_seconds"]; !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in snapshot, but it was not")
	}
}

func TestMonitorReset(t *testing.T) {
	m := NewMonitor()
	m.Incr("items_completed")

	m.Reset()

	if got := m.Get("items_completed"); got != 0 {
		t.Errorf("Expected counter to be 0 after Reset(), got %d", got)
	}

	// Uptime is computed on Snapshot and survives a reset.
	if _, exists := m.Snapshot()["uptime_seconds"]; !exists {
		t.Errorf("Expected 'uptime_seconds' to be present after Reset(), but it was not")
	}
}

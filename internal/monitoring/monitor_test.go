package monitoring

import (
	"testing"

	"hotelops/internal/common"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("sessions_open", 42)

	metrics := m.GetMetrics()

	value, exists := metrics["sessions_open"]
	if !exists {
		t.Fatalf("Expected 'sessions_open' to be present in metrics, but it was not")
	}
	if value != 42 {
		t.Errorf("Expected 'sessions_open' to be 42, but got %v", value)
	}

	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_RecordOutcome(t *testing.T) {
	m := NewMonitor()

	m.RecordOutcome("board_auto_assign", common.NewOutcome(common.OutcomePartialSuccess, "Assigned 3 of 4 pending tasks, 1 failed"))
	m.RecordOutcome("board_auto_assign", common.NewOutcome(common.OutcomePartialSuccess, "Assigned 1 of 2 pending tasks, 1 failed"))

	metrics := m.GetMetrics()

	if got := metrics["board_auto_assign_last_kind"]; got != "partial_success" {
		t.Fatalf("Expected last kind 'partial_success', got %v", got)
	}
	if got := metrics["board_auto_assign_partial_success_total"]; got != 2 {
		t.Errorf("Expected 2 partial successes, got %v", got)
	}
	if _, exists := metrics["board_auto_assign_last_at"]; !exists {
		t.Errorf("Expected 'board_auto_assign_last_at' to be present in metrics, but it was not")
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("sessions_open", 42)
	m.Add("menu_items_saved", 3)

	m.Reset()

	metrics := m.GetMetrics()
	if _, exists := metrics["sessions_open"]; exists {
		t.Errorf("Expected 'sessions_open' to be removed after Reset(), but it was present")
	}
	if _, exists := metrics["uptime_seconds"]; !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

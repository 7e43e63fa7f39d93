package monitoring

import (
	"sync"
	"time"

	"hotelops/internal/common"
)

// Monitor keeps a JSON-friendly snapshot of recent activity for dashboards
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// Add increments a numeric counter, starting from zero.
func (m *Monitor) Add(name string, delta int) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	current, _ := m.metrics[name].(int)
	m.metrics[name] = current + delta
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	metrics := make(map[string]interface{}, len(m.metrics)+1)
	for k, v := range m.metrics {
		metrics[k] = v
	}
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()
	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
}

// RecordOutcome stores the latest outcome for topic, e.g. "board_auto_assign".
func (m *Monitor) RecordOutcome(topic string, outcome common.Outcome) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	prefix := topic + "_"
	m.metrics[prefix+"last_kind"] = string(outcome.Kind)
	m.metrics[prefix+"last_message"] = outcome.Message
	m.metrics[prefix+"last_at"] = time.Now().Format(time.RFC3339)

	counter := prefix + string(outcome.Kind) + "_total"
	current, _ := m.metrics[counter].(int)
	m.metrics[counter] = current + 1
}

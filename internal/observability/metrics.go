package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects per-operation request counters and opening-hours verdicts.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	operations map[string]*OperationMetrics
	verdicts   map[string]int64
}

// OperationMetrics holds counters for one API operation.
type OperationMetrics struct {
	count         atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		operations: make(map[string]*OperationMetrics),
		verdicts:   make(map[string]int64),
	}
}

// RecordRequest records a finished request.
func (m *Metrics) RecordRequest(operation string, duration time.Duration, failed bool) {
	m.requestTotal.Add(1)
	om := m.getOperation(operation)
	om.count.Add(1)
	om.totalDuration.Add(duration.Milliseconds())
	if failed {
		m.requestFailed.Add(1)
		om.errorCount.Add(1)
	}
}

// RecordVerdict counts an opening-hours evaluation result by state name.
func (m *Metrics) RecordVerdict(state string) {
	m.mu.Lock()
	m.verdicts[state]++
	m.mu.Unlock()
}

func (m *Metrics) getOperation(operation string) *OperationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	om, ok := m.operations[operation]
	if !ok {
		om = &OperationMetrics{}
		m.operations[operation] = om
	}
	return om
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Operations:    make([]OperationSnapshot, 0, len(m.operations)),
		Verdicts:      make(map[string]int64, len(m.verdicts)),
	}
	for name, om := range m.operations {
		count := om.count.Load()
		op := OperationSnapshot{
			Operation:  name,
			Count:      count,
			ErrorCount: om.errorCount.Load(),
		}
		if count > 0 {
			op.AverageDurationMs = om.totalDuration.Load() / count
		}
		snapshot.Operations = append(snapshot.Operations, op)
	}
	sort.Slice(snapshot.Operations, func(i, j int) bool {
		return snapshot.Operations[i].Operation < snapshot.Operations[j].Operation
	})
	for state, n := range m.verdicts {
		snapshot.Verdicts[state] = n
	}
	return snapshot
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64               `json:"request_total"`
	RequestFailed int64               `json:"request_failed"`
	Operations    []OperationSnapshot `json:"operations"`
	Verdicts      map[string]int64    `json:"verdicts"`
}

// OperationSnapshot represents metrics for one operation.
type OperationSnapshot struct {
	Operation         string `json:"operation"`
	Count             int64  `json:"count"`
	ErrorCount        int64  `json:"error_count"`
	AverageDurationMs int64  `json:"average_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}

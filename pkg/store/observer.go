package store

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer defines hooks for observability around record operations.
type Observer interface {
	// OnCreate is called after a successful create operation.
	OnCreate(resource string, recordID string, duration time.Duration)

	// OnRead is called after a successful read operation.
	OnRead(resource string, recordID string, duration time.Duration)

	// OnList is called after a successful list operation.
	OnList(resource string, count int, duration time.Duration)

	// OnUpdate is called after a successful update or patch operation.
	OnUpdate(resource string, recordID string, duration time.Duration)

	// OnDelete is called after a successful delete operation.
	OnDelete(resource string, recordID string, duration time.Duration)

	// OnError is called when an operation fails.
	OnError(resource string, operation string, err error)

	// OnReset is called after a state reset.
	OnReset(resources []string, duration time.Duration)
}

// Observers fans hooks out to several observers in order.
func Observers(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) OnCreate(resource string, recordID string, duration time.Duration) {
	for _, o := range m {
		o.OnCreate(resource, recordID, duration)
	}
}

func (m multiObserver) OnRead(resource string, recordID string, duration time.Duration) {
	for _, o := range m {
		o.OnRead(resource, recordID, duration)
	}
}

func (m multiObserver) OnList(resource string, count int, duration time.Duration) {
	for _, o := range m {
		o.OnList(resource, count, duration)
	}
}

func (m multiObserver) OnUpdate(resource string, recordID string, duration time.Duration) {
	for _, o := range m {
		o.OnUpdate(resource, recordID, duration)
	}
}

func (m multiObserver) OnDelete(resource string, recordID string, duration time.Duration) {
	for _, o := range m {
		o.OnDelete(resource, recordID, duration)
	}
}

func (m multiObserver) OnError(resource string, operation string, err error) {
	for _, o := range m {
		o.OnError(resource, operation, err)
	}
}

func (m multiObserver) OnReset(resources []string, duration time.Duration) {
	for _, o := range m {
		o.OnReset(resources, duration)
	}
}

// NoopObserver is a no-op Observer for when instrumentation is disabled.
type NoopObserver struct{}

func (n *NoopObserver) OnCreate(resource string, recordID string, duration time.Duration) {}
func (n *NoopObserver) OnRead(resource string, recordID string, duration time.Duration)   {}
func (n *NoopObserver) OnList(resource string, count int, duration time.Duration)         {}
func (n *NoopObserver) OnUpdate(resource string, recordID string, duration time.Duration) {}
func (n *NoopObserver) OnDelete(resource string, recordID string, duration time.Duration) {}
func (n *NoopObserver) OnError(resource string, operation string, err error)              {}
func (n *NoopObserver) OnReset(resources []string, duration time.Duration)                {}

// LogObserver traces operations through a slog.Logger at debug level.
type LogObserver struct {
	Log *slog.Logger
}

func (l *LogObserver) OnCreate(resource string, recordID string, duration time.Duration) {
	l.Log.Debug("record created", "resource", resource, "id", recordID, "duration", duration)
}

func (l *LogObserver) OnRead(resource string, recordID string, duration time.Duration) {
	l.Log.Debug("record read", "resource", resource, "id", recordID, "duration", duration)
}

func (l *LogObserver) OnList(resource string, count int, duration time.Duration) {
	l.Log.Debug("records listed", "resource", resource, "count", count, "duration", duration)
}

func (l *LogObserver) OnUpdate(resource string, recordID string, duration time.Duration) {
	l.Log.Debug("record updated", "resource", resource, "id", recordID, "duration", duration)
}

func (l *LogObserver) OnDelete(resource string, recordID string, duration time.Duration) {
	l.Log.Debug("record deleted", "resource", resource, "id", recordID, "duration", duration)
}

func (l *LogObserver) OnError(resource string, operation string, err error) {
	l.Log.Debug("operation failed", "resource", resource, "operation", operation, "error", err)
}

func (l *LogObserver) OnReset(resources []string, duration time.Duration) {
	l.Log.Debug("state reset", "resources", resources, "duration", duration)
}

// MetricsObserver collects in-memory operation counters. All counters use
// atomic operations so it can be shared across goroutines.
type MetricsObserver struct {
	createCount    atomic.Int64
	readCount      atomic.Int64
	listCount      atomic.Int64
	updateCount    atomic.Int64
	deleteCount    atomic.Int64
	errorCount     atomic.Int64
	resetCount     atomic.Int64
	totalLatencyNs atomic.Int64
}

// NewMetricsObserver creates a new thread-safe metrics observer.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (m *MetricsObserver) OnCreate(resource string, recordID string, duration time.Duration) {
	m.createCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

func (m *MetricsObserver) OnRead(resource string, recordID string, duration time.Duration) {
	m.readCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

func (m *MetricsObserver) OnList(resource string, count int, duration time.Duration) {
	m.listCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

func (m *MetricsObserver) OnUpdate(resource string, recordID string, duration time.Duration) {
	m.updateCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

func (m *MetricsObserver) OnDelete(resource string, recordID string, duration time.Duration) {
	m.deleteCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

func (m *MetricsObserver) OnError(resource string, operation string, err error) {
	m.errorCount.Add(1)
}

func (m *MetricsObserver) OnReset(resources []string, duration time.Duration) {
	m.resetCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

// Snapshot returns a copy of the current metrics.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CreateCount:  m.createCount.Load(),
		ReadCount:    m.readCount.Load(),
		ListCount:    m.listCount.Load(),
		UpdateCount:  m.updateCount.Load(),
		DeleteCount:  m.deleteCount.Load(),
		ErrorCount:   m.errorCount.Load(),
		ResetCount:   m.resetCount.Load(),
		TotalLatency: time.Duration(m.totalLatencyNs.Load()),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	CreateCount  int64         `json:"createCount"`
	ReadCount    int64         `json:"readCount"`
	ListCount    int64         `json:"listCount"`
	UpdateCount  int64         `json:"updateCount"`
	DeleteCount  int64         `json:"deleteCount"`
	ErrorCount   int64         `json:"errorCount"`
	ResetCount   int64         `json:"resetCount"`
	TotalLatency time.Duration `json:"totalLatencyNs"`
}

// TotalOperations returns the total number of successful operations.
func (s MetricsSnapshot) TotalOperations() int64 {
	return s.CreateCount + s.ReadCount + s.ListCount + s.UpdateCount + s.DeleteCount
}

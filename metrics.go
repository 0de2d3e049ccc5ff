package pwhash

import (
	"sync/atomic"
	"time"
)

// MetricID names one counter or histogram.
type MetricID uint16

const (
	MetricHashSuccess MetricID = iota
	MetricHashFailure
	MetricVerifyMatch
	MetricVerifyMismatch
	MetricVerifyMalformed
	MetricDeriveSuccess
	MetricDeriveFailure
	// MetricParamsRejected counts calls refused by bound checks before any derivation.
	MetricParamsRejected
	// MetricAllocationFailed counts derivations refused for lack of memory.
	MetricAllocationFailed
	MetricHashLatency
	MetricVerifyLatency
	MetricDeriveLatency
)

// latencyBoundsMs are the inclusive upper bounds of the first seven latency
// buckets; the eighth catches everything slower. Argon2id at interactive cost
// lands in the tens of milliseconds, sensitive in seconds.
var latencyBoundsMs = [...]int64{10, 50, 100, 250, 500, 1000, 2500}

const histBucketCount = len(latencyBoundsMs) + 1

// counterCount is the number of plain counters; latency IDs follow them.
const counterCount = int(MetricHashLatency)

var latencyMetrics = [...]MetricID{MetricHashLatency, MetricVerifyLatency, MetricDeriveLatency}

// paddedCounter keeps each hot counter on its own cache line.
type paddedCounter struct {
	atomic.Uint64
	_ [56]byte
}

type latencyHistogram [histBucketCount]atomic.Uint64

// Metrics is a fixed set of lock-free counters and latency histograms.
// A nil or disabled Metrics records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [counterCount]paddedCounter
	latency       [len(latencyMetrics)]latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics. Histogram buckets
// are not cumulative.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a metrics set.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter. Latency IDs are not counters and are ignored.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || int(id) >= counterCount {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d in a latency histogram. Non-latency IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() {
		return
	}
	h, ok := m.histogram(id)
	if !ok {
		return
	}
	h[bucketIndex(d)].Add(1)
}

// Value returns a counter's current value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || int(id) >= counterCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for i := range m.counters {
		s.Counters[MetricID(i)] = m.counters[i].Load()
	}
	if !m.enableLatency {
		return s
	}
	for i, id := range latencyMetrics {
		buckets := make([]uint64, histBucketCount)
		for b := range buckets {
			buckets[b] = m.latency[i][b].Load()
		}
		s.Histograms[id] = buckets
	}
	return s
}

func (m *Metrics) histogram(id MetricID) (*latencyHistogram, bool) {
	i := int(id) - counterCount
	if i < 0 || i >= len(m.latency) {
		return nil, false
	}
	return &m.latency[i], true
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()
	for i, bound := range latencyBoundsMs {
		if ms <= bound {
			return i
		}
	}
	return len(latencyBoundsMs)
}

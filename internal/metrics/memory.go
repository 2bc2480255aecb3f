package metrics

import (
	"sync"
	"time"
)

// Memory tracks counters, gauges, and timings in process.
// All operations are thread-safe.
//
// Counters track incrementing values (e.g., events notified).
// Gauges track point-in-time values (e.g., matches tracked).
// Timings track durations and compute min/max/average statistics.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

var _ Sink = (*Memory)(nil)

// NewMemory creates a new metrics tracker with empty counters, gauges, and timings.
func NewMemory() *Memory {
	return &Memory{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

// IncrCounter increments a counter by 1.
func (m *Memory) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// SetGauge sets a gauge to the specified value, overwriting any previous value.
func (m *Memory) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

// RecordTiming records a duration measurement.
func (m *Memory) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], duration)
}

// Counter returns the current value of a counter.
func (m *Memory) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// Gauge returns the current value of a gauge.
func (m *Memory) Gauge(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[name]
}

func (m *Memory) RunCompleted(duration time.Duration, stage string) {
	m.RecordTiming("run.duration", duration)
	if stage == "" {
		m.IncrCounter("runs.success")
		return
	}
	m.IncrCounter("runs.failed." + stage)
}

func (m *Memory) MatchesTracked(count int) {
	m.SetGauge("matches.tracked", float64(count))
}

func (m *Memory) EventNotified(eventType string) {
	m.IncrCounter("events.notified." + eventType)
}

func (m *Memory) EventDropped(rawType string) {
	m.IncrCounter("events.dropped." + rawType)
}

func (m *Memory) DeliveryFailed(eventType string) {
	m.IncrCounter("delivery.failed." + eventType)
}

func (m *Memory) UpstreamRequest(duration time.Duration, err error) {
	m.RecordTiming("upstream.fetch", duration)
	if err != nil {
		m.IncrCounter("upstream.errors")
	}
}

// Snapshot returns a copy of all metrics as a map containing:
//   - "counters": map of counter names to values
//   - "gauges": map of gauge names to values
//   - "timings": map of timing names to statistics (count, total, average, min, max)
func (m *Memory) Snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]interface{})

	counters := make(map[string]int64)
	for k, v := range m.counters {
		counters[k] = v
	}
	snapshot["counters"] = counters

	gauges := make(map[string]float64)
	for k, v := range m.gauges {
		gauges[k] = v
	}
	snapshot["gauges"] = gauges

	timings := make(map[string]map[string]interface{})
	for name, durations := range m.timings {
		if len(durations) == 0 {
			continue
		}

		var total time.Duration
		min := durations[0]
		max := durations[0]
		for _, d := range durations {
			total += d
			if d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}

		timings[name] = map[string]interface{}{
			"count":   len(durations),
			"total":   total.String(),
			"average": (total / time.Duration(len(durations))).String(),
			"min":     min.String(),
			"max":     max.String(),
		}
	}
	snapshot["timings"] = timings

	return snapshot
}

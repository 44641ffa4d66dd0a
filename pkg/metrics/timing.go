// Package metrics times omnibar's hot paths: tokenizing, suggestion lookup,
// filtering, catalog loading and history I/O.
//
// Samples are kept in memory with atomics. Collection is on unless
// OMNIBAR_METRICS=0; --robot-metrics prints the totals.
//
//	func (s Suggester) Suggest(input string, cursor int) []Suggestion {
//	    defer metrics.Timer(metrics.Suggest)()
//	    ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("OMNIBAR_METRICS") != "0")
}

// Enabled reports whether samples are recorded.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled turns collection on or off.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric accumulates durations of one named operation. It is safe for
// concurrent use; catalog sources record from several goroutines.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64 // ns
	max   atomic.Int64 // ns
	min   atomic.Int64 // ns, 0 until the first sample
}

var registry []*TimingMetric

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

func register(name string) *TimingMetric {
	m := newTimingMetric(name)
	registry = append(registry, m)
	return m
}

// Operations timed across the module, in report order.
var (
	Tokenize    = register("tokenize")
	Suggest     = register("suggest")
	FilterApply = register("filter_apply")
	CatalogLoad = register("catalog_load")
	JSONParsing = register("json_parsing")
	HistoryIO   = register("history_io")
	UIRender    = register("ui_render")
)

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled.Load() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)

	for old := m.max.Load(); ns > old; old = m.max.Load() {
		if m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for old := m.min.Load(); old == 0 || ns < old; old = m.min.Load() {
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// MaxNs returns the longest sample.
func (m *TimingMetric) MaxNs() int64 { return m.max.Load() }

// MinNs returns the shortest sample, or 0 without samples.
func (m *TimingMetric) MinNs() int64 { return m.min.Load() }

// AvgNs returns the mean sample, or 0 without samples.
func (m *TimingMetric) AvgNs() int64 {
	n := m.count.Load()
	if n == 0 {
		return 0
	}
	return m.total.Load() / n
}

// TimingStats is a snapshot of one metric in milliseconds.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Stats snapshots the metric.
func (m *TimingMetric) Stats() TimingStats {
	ms := func(ns int64) float64 { return float64(ns) / float64(time.Millisecond) }
	return TimingStats{
		Name:    m.name,
		Count:   m.Count(),
		TotalMs: ms(m.total.Load()),
		AvgMs:   ms(m.AvgNs()),
		MaxMs:   ms(m.MaxNs()),
		MinMs:   ms(m.MinNs()),
	}
}

// Reset drops all samples.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// Timer starts timing m; call the returned func to record the sample.
func Timer(m *TimingMetric) func() {
	return TimerWithCallback(m, nil)
}

// TimerWithCallback is Timer that also hands the duration to cb, for
// callers that log it as well.
func TimerWithCallback(m *TimingMetric, cb func(time.Duration)) func() {
	if !enabled.Load() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		m.Record(d)
		if cb != nil {
			cb(d)
		}
	}
}

// ResetAll drops the samples of every metric.
func ResetAll() {
	for _, m := range registry {
		m.Reset()
	}
}

// AllTimingStats snapshots the metrics that have samples.
func AllTimingStats() []TimingStats {
	stats := make([]TimingStats, 0, len(registry))
	for _, m := range registry {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

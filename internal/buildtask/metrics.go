package buildtask

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the observation surface the Build Task records into. An
// implementation is typically a thin wrapper over prometheus collectors
// registered once at node startup; NewPrometheusMetrics below provides the
// default one.
type Metrics interface {
	ObservePhaseADuration(d time.Duration)
	ObservePhaseBDuration(d time.Duration)
	RecordHoloceneFlush()
}

// PrometheusMetrics is the default Metrics implementation, registering a
// pair of duration histograms and a flush counter.
type PrometheusMetrics struct {
	phaseA  prometheus.Histogram
	phaseB  prometheus.Histogram
	flushes prometheus.Counter
}

// NewPrometheusMetrics constructs and registers the Build Task's
// collectors against reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		phaseA: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rollup_node",
			Subsystem: "build_task",
			Name:      "fcu_duration_seconds",
			Help:      "Duration of the forkchoiceUpdated-with-attributes call (Phase A).",
			Buckets:   prometheus.DefBuckets,
		}),
		phaseB: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rollup_node",
			Subsystem: "build_task",
			Name:      "block_import_duration_seconds",
			Help:      "Duration of the getPayload+newPayload call pair (Phase B).",
			Buckets:   prometheus.DefBuckets,
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollup_node",
			Subsystem: "build_task",
			Name:      "holocene_invalid_flush_total",
			Help:      "Count of post-Holocene INVALID payloads recovered via deposits-only re-attempt.",
		}),
	}
	reg.MustRegister(m.phaseA, m.phaseB, m.flushes)
	return m
}

func (m *PrometheusMetrics) ObservePhaseADuration(d time.Duration) { m.phaseA.Observe(d.Seconds()) }
func (m *PrometheusMetrics) ObservePhaseBDuration(d time.Duration) { m.phaseB.Observe(d.Seconds()) }
func (m *PrometheusMetrics) RecordHoloceneFlush()                  { m.flushes.Inc() }

// NoopMetrics discards all observations; useful for tests and for callers
// that haven't wired a registry yet.
type NoopMetrics struct{}

func (NoopMetrics) ObservePhaseADuration(time.Duration) {}
func (NoopMetrics) ObservePhaseBDuration(time.Duration) {}
func (NoopMetrics) RecordHoloceneFlush()                {}

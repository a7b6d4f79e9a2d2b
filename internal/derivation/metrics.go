package derivation

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the observation surface Derivation State records into.
type Metrics interface {
	SetL1Origin(number uint64)
	RecordReorg()
	RecordCriticalError()
	SetDerivationIdle(idle bool)
}

// PrometheusMetrics is the default Metrics implementation.
type PrometheusMetrics struct {
	l1Origin       prometheus.Gauge
	reorgs         prometheus.Counter
	criticalErrors prometheus.Counter
	idle           prometheus.Gauge
}

// NewPrometheusMetrics constructs and registers Derivation State's
// collectors against reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		l1Origin: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rollup_node",
			Subsystem: "derivation",
			Name:      "l1_origin_number",
			Help:      "L1 block number the derivation pipeline is currently anchored to.",
		}),
		reorgs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollup_node",
			Subsystem: "derivation",
			Name:      "reorgs_total",
			Help:      "Count of L1 reorgs detected by the derivation pipeline.",
		}),
		criticalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollup_node",
			Subsystem: "derivation",
			Name:      "critical_errors_total",
			Help:      "Count of critical pipeline errors that terminated the derivation actor.",
		}),
		idle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rollup_node",
			Subsystem: "derivation",
			Name:      "idle",
			Help:      "1 if derivation is idle waiting for more data, 0 if it is actively stepping.",
		}),
	}
	reg.MustRegister(m.l1Origin, m.reorgs, m.criticalErrors, m.idle)
	return m
}

func (m *PrometheusMetrics) SetL1Origin(number uint64) { m.l1Origin.Set(float64(number)) }
func (m *PrometheusMetrics) RecordReorg()              { m.reorgs.Inc() }
func (m *PrometheusMetrics) RecordCriticalError()      { m.criticalErrors.Inc() }

func (m *PrometheusMetrics) SetDerivationIdle(idle bool) {
	if idle {
		m.idle.Set(1)
	} else {
		m.idle.Set(0)
	}
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) SetL1Origin(uint64)     {}
func (NoopMetrics) RecordReorg()           {}
func (NoopMetrics) RecordCriticalError()   {}
func (NoopMetrics) SetDerivationIdle(bool) {}

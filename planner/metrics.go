package planner

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records planner activity in Prometheus.
//
// A nil *Metrics is valid and records nothing. Collectors are created and
// registered lazily on first use.
type Metrics struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	operations *prometheus.CounterVec
	unmet      *prometheus.CounterVec
	violations *prometheus.GaugeVec
	latency    *prometheus.HistogramVec
}

// NewMetrics creates a collector set.
//
// Parameters:
//   - reg: registerer to register with; nil keeps the collectors unregistered
//   - namespace: metrics namespace (defaults to "roster" if empty)
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "roster"
	}
	return &Metrics{reg: reg, namespace: namespace}
}

func (m *Metrics) ensureRegistered() {
	m.once.Do(func() {
		m.operations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      "operations_total",
			Help:      "Planner operations by action and result (ok, client_error, error).",
		}, []string{"action", "result"})

		m.unmet = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      "unmet_preferences_total",
			Help:      "Leave requests left ungranted by generation, by reason.",
		}, []string{"reason"})

		m.violations = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      "violations",
			Help:      "Current number of rule violations of a period's roster.",
		}, []string{"period"})

		m.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      "operation_seconds",
			Help:      "Duration of planner operations in seconds by action.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"action"})

		if m.reg != nil {
			m.reg.MustRegister(m.operations)
			m.reg.MustRegister(m.unmet)
			m.reg.MustRegister(m.violations)
			m.reg.MustRegister(m.latency)
		}
	})
}

// ObserveOperation records the outcome and duration of one operation.
func (m *Metrics) ObserveOperation(action, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ensureRegistered()
	m.operations.WithLabelValues(action, result).Inc()
	m.latency.WithLabelValues(action).Observe(elapsed.Seconds())
}

// AddUnmet counts ungranted requests for a reason.
func (m *Metrics) AddUnmet(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ensureRegistered()
	m.unmet.WithLabelValues(reason).Add(float64(n))
}

// SetViolations sets the violation gauge of a period.
func (m *Metrics) SetViolations(period string, n int) {
	if m == nil {
		return
	}
	m.ensureRegistered()
	m.violations.WithLabelValues(period).Set(float64(n))
}

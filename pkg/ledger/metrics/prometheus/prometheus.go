package prommetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements ledger.Metrics using Prometheus.
type Metrics struct {
	creditsGrantedTotal   prometheus.Counter
	grantsTotal           prometheus.Counter
	consumesTotal         *prometheus.CounterVec
	resolutionMissesTotal prometheus.Counter
}

// NewMetrics creates a new Prometheus metrics implementation for the ledger.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		creditsGrantedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "credits_granted_total",
			Help:      "Total number of credits granted across all accounts.",
		}),

		grantsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "grants_total",
			Help:      "Total number of grant operations applied.",
		}),

		consumesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "consumes_total",
			Help:      "Total number of credit consume attempts.",
		}, []string{"status"}),

		resolutionMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "resolution_misses_total",
			Help:      "Total number of plan/amount combinations that resolved to a zero grant.",
		}),
	}
}

func (m *Metrics) RecordGrant(amount int) {
	m.grantsTotal.Inc()
	m.creditsGrantedTotal.Add(float64(amount))
}

func (m *Metrics) RecordConsume(status string) {
	m.consumesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordResolutionMiss() {
	m.resolutionMissesTotal.Inc()
}

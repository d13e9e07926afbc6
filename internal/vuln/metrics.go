package vuln

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for record lifecycle operations.
type Metrics struct {
	RecordsTotal *prometheus.CounterVec
}

// NewMetrics registers and returns record metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_records_total",
			Help: "Total record operations by operation and result.",
		}, []string{"op", "result"}),
	}
	reg.MustRegister(m.RecordsTotal)
	return m
}

func (m *Metrics) observe(op, result string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(op, result).Inc()
}

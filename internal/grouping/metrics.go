package grouping

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for grouping runs.
type Metrics struct {
	RunsTotal  prometheus.Counter
	Duration   prometheus.Histogram
	Records    prometheus.Histogram
	Groups     prometheus.Histogram
	BucketSize prometheus.Histogram
	NoiseTotal prometheus.Counter
	Subgroups  prometheus.Histogram
}

// NewMetrics registers and returns grouping metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_grouping_runs_total",
			Help: "Total grouping runs.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_grouping_duration_seconds",
			Help:    "Duration of grouping runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms .. ~8s
		}),
		Records: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_grouping_records",
			Help:    "Records per grouping run.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1 .. ~262k
		}),
		Groups: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_grouping_groups",
			Help:    "Groups emitted per grouping run.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		BucketSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_grouping_bucket_size",
			Help:    "Records per exact-key bucket.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 .. 2048
		}),
		NoiseTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_grouping_noise_total",
			Help: "Records left as singletons by density clustering.",
		}),
		Subgroups: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_grouping_bucket_subgroups",
			Help:    "Sub-groups produced per exact-key bucket.",
			Buckets: prometheus.LinearBuckets(1, 1, 16), // 1 .. 16
		}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.Duration,
		m.Records,
		m.Groups,
		m.BucketSize,
		m.NoiseTotal,
		m.Subgroups,
	)
	return m
}

// Hooks returns Hooks that update the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnBucket: func(size, subgroups, noise int) {
			m.BucketSize.Observe(float64(size))
			m.Subgroups.Observe(float64(subgroups))
			m.NoiseTotal.Add(float64(noise))
		},
		OnComplete: func(records, groups int, duration float64) {
			m.RunsTotal.Inc()
			m.Duration.Observe(duration)
			m.Records.Observe(float64(records))
			m.Groups.Observe(float64(groups))
		},
	}
}

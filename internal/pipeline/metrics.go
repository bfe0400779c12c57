package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Metrics содержит метрики конвейера мешинга
type Metrics struct {
	Queued        prometheus.Counter
	Completed     prometheus.Counter
	Failed        prometheus.Counter
	DroppedErrors prometheus.Counter
	InFlight      prometheus.Gauge
	Duration      prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil: без регистрации)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "meshing",
			Name:      "queued_total",
			Help:      "Total number of chunks queued for meshing",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "meshing",
			Name:      "completed_total",
			Help:      "Total number of successfully meshed chunks",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "meshing",
			Name:      "failed_total",
			Help:      "Total number of failed meshing jobs",
		}),
		DroppedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "meshing",
			Name:      "dropped_errors_total",
			Help:      "Meshing errors dropped because the error channel was full",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockworld",
			Subsystem: "meshing",
			Name:      "in_flight",
			Help:      "Chunks queued or being meshed",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blockworld",
			Subsystem: "meshing",
			Name:      "job_duration_seconds",
			Help:      "Duration of one chunk meshing job",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Queued, m.Completed, m.Failed, m.DroppedErrors, m.InFlight, m.Duration)
	}
	return m
}

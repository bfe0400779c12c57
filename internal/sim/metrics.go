package sim

import "github.com/prometheus/client_golang/prometheus"

// Metrics содержит метрики цикла симуляции
type Metrics struct {
	Ticks        prometheus.Counter
	DroppedTime  prometheus.Counter
	TickDuration prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil: без регистрации)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "sim",
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks",
		}),
		DroppedTime: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "sim",
			Name:      "dropped_seconds_total",
			Help:      "Simulation time dropped by the catch-up limit",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blockworld",
			Subsystem: "sim",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one simulation tick",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Ticks, m.DroppedTime, m.TickDuration)
	}
	return m
}

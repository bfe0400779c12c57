package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics содержит метрики хранилища чанков
type Metrics struct {
	LoadedChunks  prometheus.Gauge
	Generated     prometheus.Counter
	Evicted       prometheus.Counter
	GenerateError prometheus.Counter
	BatchDuration prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil: без регистрации)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockworld",
			Subsystem: "world",
			Name:      "loaded_chunks",
			Help:      "Number of chunks currently held in memory",
		}),
		Generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "world",
			Name:      "chunks_generated_total",
			Help:      "Total number of generated chunks",
		}),
		Evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "world",
			Name:      "chunks_evicted_total",
			Help:      "Total number of unloaded chunks",
		}),
		GenerateError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "world",
			Name:      "generate_errors_total",
			Help:      "Total number of failed chunk generations",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blockworld",
			Subsystem: "world",
			Name:      "generate_batch_duration_seconds",
			Help:      "Duration of one generation batch",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.LoadedChunks, m.Generated, m.Evicted, m.GenerateError, m.BatchDuration)
	}
	return m
}

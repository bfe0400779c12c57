package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterMetrics публикует статистику шины в reg.
// Значения читаются из EventBus.Metrics при каждом сборе, фоновая горутина не нужна.
func RegisterMetrics(bus EventBus, reg prometheus.Registerer) {
	if reg == nil {
		return
	}

	counter := func(name, help string, value func(Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "eventbus",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(bus.Metrics())) })
	}

	reg.MustRegister(
		counter("messages_published_total", "Общее число опубликованных сообщений.",
			func(s Stats) uint64 { return s.Published }),
		counter("messages_consumed_total", "Общее число доставленных сообщений подписчикам.",
			func(s Stats) uint64 { return s.Consumed }),
		counter("messages_dropped_total", "Сообщений, отброшенных из-за ограничения back-pressure.",
			func(s Stats) uint64 { return s.Dropped }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "blockworld",
			Subsystem: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений, находящихся в очереди (не доставленных).",
		}, func() float64 { return float64(bus.Metrics().InFlight) }),
	)
}

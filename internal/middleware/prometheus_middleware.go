package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsRoute   = "/metrics"
	unmatchedRoute = "unmatched"
)

// PrometheusMiddleware считает запросы к отладочному API по шаблонам маршрутов.
// Запросы к /metrics не учитываются.
type PrometheusMiddleware struct {
	duration *prometheus.HistogramVec // method, route, status
	size     *prometheus.HistogramVec // route
	inflight prometheus.Gauge
	errors   *prometheus.CounterVec // method, route, class
}

// NewPrometheusMiddleware создаёт middleware с пространством имён service.
// Метрики регистрируются в reg, если он не nil.
func NewPrometheusMiddleware(service string, reg prometheus.Registerer) *PrometheusMiddleware {
	pm := &PrometheusMiddleware{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_request_duration_seconds",
			Help:      "Время обработки запроса к API мира.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"method", "route", "status"}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_response_size_bytes",
			Help:      "Размер тела ответа API мира.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}, []string{"route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: service,
			Name:      "http_requests_inflight",
			Help:      "Запросы к API мира в обработке.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "http_request_errors_total",
			Help:      "Ответы API мира с кодом 4xx или 5xx.",
		}, []string{"method", "route", "class"}),
	}

	if reg != nil {
		reg.MustRegister(pm.duration, pm.size, pm.inflight, pm.errors)
	}
	return pm
}

// Handler возвращает обработчик для router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == metricsRoute {
			c.Next()
			return
		}
		if route == "" {
			route = unmatchedRoute
		}

		pm.inflight.Inc()
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		pm.inflight.Dec()

		code := c.Writer.Status()
		method := c.Request.Method
		pm.duration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
		if n := c.Writer.Size(); n > 0 {
			pm.size.WithLabelValues(route).Observe(float64(n))
		}
		if code >= 400 {
			pm.errors.WithLabelValues(method, route, statusClass(code)).Inc()
		}
	}
}

func statusClass(code int) string {
	if code >= 500 {
		return "5xx"
	}
	return "4xx"
}

// RegisterMetricsEndpoint вешает GET /metrics на gatherer или на глобальный реестр, если он nil
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r gin.IRoutes, gatherer prometheus.Gatherer) {
	h := promhttp.Handler()
	if gatherer != nil {
		h = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	r.GET(metricsRoute, gin.WrapH(h))
}

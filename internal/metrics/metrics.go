// Package metrics expose les compteurs Prometheus du service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medicart"

type Metrics struct {
	registry *prometheus.Registry

	Requests         *prometheus.CounterVec
	LatencyMS        *prometheus.HistogramVec
	CheckoutOutcomes *prometheus.CounterVec
	StockMovements   *prometheus.CounterVec
}

// New crée un registre dédié : plusieurs instances peuvent coexister (tests).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		CheckoutOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "outcomes_total",
			Help:      "Checkout attempts by phase and final state.",
		}, []string{"phase", "state"}),
		StockMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "movements_total",
			Help:      "Stock movements applied by pharmacy staff.",
		}, []string{"type"}),
	}
	reg.MustRegister(
		m.Requests, m.LatencyMS, m.CheckoutOutcomes, m.StockMovements,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Checkout compte une issue de checkout. Sans effet sur un receveur nil.
func (m *Metrics) Checkout(phase, state string) {
	if m == nil {
		return
	}
	m.CheckoutOutcomes.WithLabelValues(phase, state).Inc()
}

func (m *Metrics) Movement(kind string) {
	if m == nil {
		return
	}
	m.StockMovements.WithLabelValues(kind).Inc()
}

// Middleware mesure chaque requête par route gin (pas par URL brute).
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

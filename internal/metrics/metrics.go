// Package metrics exposes storefront counters in Prometheus format.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shopfront"

// Metrics holds the storefront's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	CartOps         *prometheus.CounterVec // by op
	CartPersistFail *prometheus.CounterVec // by op
	Orders          prometheus.Counter
	Requests        *prometheus.CounterVec   // by method, status
	Latency         *prometheus.HistogramVec // by method
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Cart mutations applied, by operation.",
		}, []string{"op"}),
		CartPersistFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_persist_failures_total",
			Help:      "Cart mutations whose snapshot could not be written.",
		}, []string{"op"}),
		Orders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders accepted by the remote service.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method and status.",
		}, []string{"method", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	m.Registry.MustRegister(
		m.CartOps,
		m.CartPersistFail,
		m.Orders,
		m.Requests,
		m.Latency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// WatchOpenCarts exports the number of cart stores currently held open.
func (m *Metrics) WatchOpenCarts(open func() int) {
	if m == nil {
		return
	}
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cart_open_stores",
		Help:      "Cart stores held in memory.",
	}, func() float64 { return float64(open()) }))
}

func (m *Metrics) CartOp(op string, persistErr error) {
	if m == nil {
		return
	}
	m.CartOps.WithLabelValues(op).Inc()
	if persistErr != nil {
		m.CartPersistFail.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.Orders.Inc()
}

func (m *Metrics) Request(method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.Latency.WithLabelValues(method).Observe(took.Seconds())
}
